package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/packrun/cmd/packrun/commands"
	"github.com/slok/packrun/internal/log"
	loglogrus "github.com/slok/packrun/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("packrun", "Run pack actions with isolated per-pack dependencies.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	setupCmd := commands.NewSetupCommand(rootCmd, app)
	runCmd := commands.NewRunCommand(rootCmd, app)
	serveCmd := commands.NewServeCommand(rootCmd, app)
	doctorCmd := commands.NewDoctorCommand(rootCmd, app)

	// Environment subcommands share a parent command.
	envCmd := app.Command("env", "Manage pack environments.")
	envListCmd := commands.NewEnvListCommand(rootCmd, envCmd)
	envRmCmd := commands.NewEnvRmCommand(rootCmd, envCmd)

	// Execution subcommands share a parent command.
	execCmd := app.Command("exec", "Inspect action executions.")
	execListCmd := commands.NewExecListCommand(rootCmd, execCmd)
	execGetCmd := commands.NewExecGetCommand(rootCmd, execCmd)

	cmds := map[string]commands.Command{
		setupCmd.Name():    setupCmd,
		runCmd.Name():      runCmd,
		serveCmd.Name():    serveCmd,
		doctorCmd.Name():   doctorCmd,
		envListCmd.Name():  envListCmd,
		envRmCmd.Name():    envRmCmd,
		execListCmd.Name(): execListCmd,
		execGetCmd.Name():  execGetCmd,
	}

	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	rootCmd.Stdin, rootCmd.Stdout, rootCmd.Stderr = stdin, stdout, stderr

	// Commands that print structured output don't log unless debugging,
	// so logs don't get mixed with the printed output on the terminal.
	printerCommands := map[string]bool{
		"env list":  true,
		"exec list": true,
		"exec get":  true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	rootCmd.Logger = getLogger(*rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				if err := cmds[cmdName].Run(ctx); err != nil {
					return fmt.Errorf("%s: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func getLogger(config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	l := logrus.New()
	l.SetOutput(config.Stderr)
	if config.Debug {
		l.SetLevel(logrus.DebugLevel)
	}
	if config.LoggerType == commands.LoggerTypeJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{ForceColors: !config.NoColor, DisableColors: config.NoColor})
	}

	logger := loglogrus.NewLogrus(logrus.NewEntry(l)).WithValues(log.Kv{"app": "packrun", "version": Version})
	logger.Debugf("Debug logging enabled")
	return logger
}

func main() {
	if err := Run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "packrun: %s\n", err)
		os.Exit(1)
	}
}
