package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slok/packrun/internal/api"
	"github.com/slok/packrun/internal/log"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddress   string
	shutdownTimeout time.Duration
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Serve the executions and environments HTTP API.")
	c.Cmd.Flag("listen-address", "HTTP listen address.").Default(":8080").StringVar(&c.listenAddress)
	c.Cmd.Flag("shutdown-timeout", "Time to wait for in flight requests on shutdown.").Default("10s").DurationVar(&c.shutdownTimeout)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger.WithValues(log.Kv{"addr": c.listenAddress})

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler, err := api.NewHandler(api.HandlerConfig{
		Repository:     repo,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:         c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create API handler: %w", err)
	}

	server := &http.Server{
		Addr:              c.listenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group

	// HTTP server.
	g.Add(
		func() error {
			logger.Infof("HTTP API listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		},
		func(_ error) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Could not shutdown HTTP server: %s", err)
			}
		},
	)

	// Context cancellation.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				<-ctx.Done()
				logger.Infof("Stopping HTTP API")
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}
