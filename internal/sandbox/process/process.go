package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/sandbox"
)

const (
	defaultTimeout        = 10 * time.Minute
	defaultMaxOutputBytes = 4 << 20
	defaultSearchPathVar  = "PYTHONPATH"

	// SandboxEnvVar tells the action if it's running sandboxed.
	SandboxEnvVar = "PACKRUN_SANDBOX"
)

var defaultInheritEnv = []string{"PATH", "HOME", "LANG", "LC_ALL", "TMPDIR"}

// ExecutorConfig is the configuration for the process executor.
type ExecutorConfig struct {
	// VirtualenvsPath is the directory holding the pack environments. Required.
	VirtualenvsPath string
	// Interpreter is the command that runs the entry points, defaults to `python3`.
	Interpreter []string
	// SearchPathEnvVar is the interpreter library search path variable, defaults to PYTHONPATH.
	SearchPathEnvVar string
	// GlobalSearchPath are the platform-global library locations.
	GlobalSearchPath []string
	// DefaultTimeout is used when the request doesn't set one.
	DefaultTimeout time.Duration
	// MaxOutputBytes caps each of stdout and stderr.
	MaxOutputBytes int
	// InheritEnv are the parent environment variables passed to the actions.
	InheritEnv []string
	Logger     log.Logger
}

func (c *ExecutorConfig) defaults() error {
	if c.VirtualenvsPath == "" {
		return fmt.Errorf("virtualenvs path is required")
	}
	if len(c.Interpreter) == 0 {
		c.Interpreter = []string{"python3"}
	}
	if c.SearchPathEnvVar == "" {
		c.SearchPathEnvVar = defaultSearchPathVar
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = defaultTimeout
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = defaultMaxOutputBytes
	}
	if c.InheritEnv == nil {
		c.InheritEnv = defaultInheritEnv
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "sandbox.Process"})
	return nil
}

// Executor runs the entry points as local subprocesses with a controlled library search path.
//
// The params are written as JSON to the subprocess stdin, the last non empty stdout line
// is parsed as the JSON result. The subprocess runs in its own process group that is
// killed as a whole on timeout or cancellation.
type Executor struct {
	virtualenvsPath  string
	interpreter      []string
	searchPathVar    string
	globalSearchPath []string
	defaultTimeout   time.Duration
	maxOutputBytes   int
	inheritEnv       []string
	logger           log.Logger
}

var _ sandbox.Executor = &Executor{}

// NewExecutor returns a new process executor.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Executor{
		virtualenvsPath:  cfg.VirtualenvsPath,
		interpreter:      cfg.Interpreter,
		searchPathVar:    cfg.SearchPathEnvVar,
		globalSearchPath: cfg.GlobalSearchPath,
		defaultTimeout:   cfg.DefaultTimeout,
		maxOutputBytes:   cfg.MaxOutputBytes,
		inheritEnv:       cfg.InheritEnv,
		logger:           cfg.Logger,
	}, nil
}

// Run executes the entry point of the request.
func (e *Executor) Run(ctx context.Context, req model.ExecutionRequest, env *model.Environment) (*model.ExecutionResult, error) {
	if req.EntryPoint == "" {
		return nil, fmt.Errorf("entry point is required: %w", model.ErrNotValid)
	}
	if req.SandboxEnabled && env == nil {
		return nil, fmt.Errorf("sandboxed execution requires a pack environment: %w", model.ErrNotValid)
	}

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}
	stdin, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("could not serialize params: %w: %w", err, model.ErrNotValid)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	searchPath := sandbox.SearchPath(e.globalSearchPath, env, req.SandboxEnabled, e.virtualenvsPath)

	args := append([]string{}, e.interpreter[1:]...)
	args = append(args, req.EntryPoint)
	cmd := exec.CommandContext(runCtx, e.interpreter[0], args...)
	cmd.Dir = filepath.Dir(req.EntryPoint)
	cmd.Env = e.buildEnv(req, searchPath)
	cmd.Stdin = bytes.NewReader(stdin)
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	resultLine := &lastLineWriter{limit: e.maxOutputBytes}
	cmd.Stdout = io.MultiWriter(&limitedWriter{w: &stdout, remaining: e.maxOutputBytes}, resultLine)
	cmd.Stderr = &limitedWriter{w: &stderr, remaining: e.maxOutputBytes}
	cmd.WaitDelay = time.Second

	logger := e.logger.WithValues(log.Kv{"entrypoint": req.EntryPoint, "sandbox": req.SandboxEnabled})
	logger.Debugf("Executing with %s=%s", e.searchPathVar, strings.Join(searchPath, string(os.PathListSeparator)))

	start := time.Now()
	runErr := cmd.Run()
	res := &model.ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("execution cancelled: %w", ctx.Err())
		}

		// Either our own timeout or the caller deadline killed the subprocess.
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			res.ExitCode = -1
			limit := timeout
			if ctx.Err() != nil {
				limit = res.Duration.Round(time.Millisecond)
			}
			logger.Warningf("Execution timed out after %s", limit)
			return nil, &model.ExecutionTimeoutError{Timeout: limit, Result: res}
		}

		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("could not execute entry point: %w", runErr)
		}
		res.ExitCode = exitErr.ExitCode()
		logger.Debugf("Execution failed with exit code %d", res.ExitCode)
		return nil, &model.ExecutionError{Result: res}
	}

	line := resultLine.Last()
	if line == "" {
		return nil, &model.ResultParseError{Result: res, Err: fmt.Errorf("action didn't output a result")}
	}
	var result any
	if err := json.Unmarshal([]byte(line), &result); err != nil {
		return nil, &model.ResultParseError{Line: line, Result: res, Err: err}
	}
	res.Result = result

	logger.Debugf("Execution completed in %s", res.Duration)
	return res, nil
}

func (e *Executor) buildEnv(req model.ExecutionRequest, searchPath []string) []string {
	vars := map[string]string{}
	for _, k := range e.inheritEnv {
		if v, ok := os.LookupEnv(k); ok {
			vars[k] = v
		}
	}
	for k, v := range req.Env {
		vars[k] = v
	}

	// Not overridable by the request.
	vars[e.searchPathVar] = strings.Join(searchPath, string(os.PathListSeparator))
	vars[SandboxEnvVar] = strconv.FormatBool(req.SandboxEnabled)

	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	return env
}

// lastLineWriter keeps the last non empty line written to it, independently of
// how much output came before. Lines longer than the limit are cut.
type lastLineWriter struct {
	limit int
	cur   []byte
	last  []byte
}

func (l *lastLineWriter) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		chunk := p
		if i >= 0 {
			chunk = p[:i]
		}
		if room := l.limit - len(l.cur); room > 0 {
			l.cur = append(l.cur, chunk[:min(room, len(chunk))]...)
		}
		if i < 0 {
			break
		}
		if len(bytes.TrimSpace(l.cur)) > 0 {
			l.last = append(l.last[:0], l.cur...)
		}
		l.cur = l.cur[:0]
		p = p[i+1:]
	}
	return n, nil
}

// Last returns the last non empty line, an unterminated final line counts.
func (l *lastLineWriter) Last() string {
	if cur := bytes.TrimSpace(l.cur); len(cur) > 0 {
		return string(cur)
	}
	return string(bytes.TrimSpace(l.last))
}

// limitedWriter wraps a writer and stops writing after a byte limit.
// Excess data is discarded without error.
type limitedWriter struct {
	w         io.Writer
	remaining int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.remaining <= 0 {
		return n, nil
	}
	if len(p) > lw.remaining {
		p = p[:lw.remaining]
	}
	written, err := lw.w.Write(p)
	lw.remaining -= written
	if err != nil {
		return written, err
	}
	return n, nil
}
