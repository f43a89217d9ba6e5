// Package cmd holds the startup plumbing shared by pharmadesk commands:
// environment-then-flags configuration and a telemetry-wrapped run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/pharmadesk/internal/platform/config"
	"github.com/louisbranch/pharmadesk/internal/platform/otel"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// Service names reported to telemetry.
const (
	ServiceSeed = "pharmadesk-seed"
	ServiceWeb  = "pharmadesk-web"
)

// RunOptions controls shared entrypoint behavior for service commands.
type RunOptions struct {
	// ShutdownTimeout bounds telemetry flushing after run returns.
	ShutdownTimeout time.Duration
}

// Load fills cfg from environment defaults, lets bind register flags over
// those defaults and then parses args. A nil vars map reads the process
// environment.
func Load[T any](cfg *T, vars map[string]string, fs *flag.FlagSet, args []string, bind func(*flag.FlagSet, *T)) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if fs == nil {
		return errors.New("flag parser is required")
	}
	var err error
	if vars == nil {
		err = config.ParseEnv(cfg)
	} else {
		err = config.ParseEnvFrom(cfg, vars)
	}
	if err != nil {
		return err
	}
	if bind != nil {
		bind(fs, cfg)
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry configures tracing and executes a service run loop.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	return RunWithTelemetryAndOptions(ctx, service, RunOptions{}, run)
}

// RunWithTelemetryAndOptions configures tracing, executes run and flushes
// spans once run returns.
func RunWithTelemetryAndOptions(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	defer func() {
		timeout := options.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultOTelShutdownTimeout
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("service=%s otel shutdown err=%v", service, err)
		}
	}()

	started := time.Now()
	err = run(ctx)
	log.Printf("service=%s stopped after=%s", service, time.Since(started).Round(time.Millisecond))
	return err
}
