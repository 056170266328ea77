package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/fitmatch-auth/config"
	"github.com/target/fitmatch-auth/internal/bootstrap"
	"golang.org/x/term"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	In     *bufio.Reader
	Out    io.Writer
	// Opener overrides the system browser. Nil uses the default.
	Opener func(url string) error
	// HTTPClient overrides the client used for the provider and backend. Optional.
	HTTPClient *http.Client
	// ReadPassword reads a secret without echo. Nil falls back to a plain prompt.
	ReadPassword func() (string, error)
}

func main() {
	logger := bootstrap.InitLogger(logLevel())

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		In:     bufio.NewReader(os.Stdin),
		Out:    os.Stdout,
	}
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		cmdCtx.ReadPassword = func() (string, error) {
			secret, err := term.ReadPassword(fd)
			return string(secret), err
		}
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelWarn
	}
	return level
}

func commands() map[string]command {
	return map[string]command{
		"discovery": {
			name:        "discovery",
			description: "Print the provider endpoints derived from AUTH0_DOMAIN",
			run:         runDiscovery,
		},
		"login": {
			name:        "login",
			description: "Sign in through the browser and store the session",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Revoke the stored session and sign out of the provider",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the profile of the stored session",
			run:         runWhoami,
		},
		"signup": {
			name:        "signup",
			description: "Create an account with email, password and a verification code",
			run:         runSignup,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: fitmatch-auth <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-12s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// authRuntime holds the wired components and the resources to release after a command.
type authRuntime struct {
	*bootstrap.AuthComponents
	closers []func() error
}

func (r *authRuntime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// errTokenStoreDisabled is returned by the session commands, which run as separate
// processes and can only hand the session to one another through Redis.
var errTokenStoreDisabled = errors.New(
	"token store is disabled; set TOKEN_STORE_ENABLED=true and REDIS_URI to keep the session between commands")

// openSession is openAuth for commands that need the stored session.
func openSession(cmdCtx *commandContext, profile string) (*authRuntime, error) {
	if !cmdCtx.Config.TokenStore.Enabled {
		return nil, errTokenStoreDisabled
	}
	return openAuth(cmdCtx, profile)
}

func openAuth(cmdCtx *commandContext, profile string) (*authRuntime, error) {
	rt := &authRuntime{}

	var redisClient *redis.Client
	if cmdCtx.Config.TokenStore.Enabled {
		client, err := bootstrap.ConnectRedis(cmdCtx.Ctx, cmdCtx.Config.Redis, cmdCtx.Logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		redisClient = client
		rt.closers = append(rt.closers, client.Close)
	}

	metricsClient := bootstrap.BuildMetrics(cmdCtx.Config.Observability.Metrics, cmdCtx.Logger)
	rt.closers = append(rt.closers, metricsClient.Close)

	authCfg := bootstrap.AuthConfig{
		App:        cmdCtx.Config,
		Metrics:    metricsClient,
		Logger:     cmdCtx.Logger,
		Opener:     cmdCtx.Opener,
		TokenKey:   profile,
		HTTPClient: cmdCtx.HTTPClient,
	}
	if redisClient != nil {
		authCfg.RedisClient = redisClient
	}
	comps, err := bootstrap.BuildAuth(authCfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.AuthComponents = comps
	return rt, nil
}

// startRedirector binds the callback listener and registers its shutdown.
func (r *authRuntime) startRedirector(ctx context.Context) error {
	if err := r.Redirector.Start(ctx); err != nil {
		return fmt.Errorf("start callback listener: %w", err)
	}
	r.closers = append(r.closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return r.Redirector.Close(shutdownCtx)
	})
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
