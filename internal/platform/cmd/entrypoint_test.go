package cmd

import (
	"context"
	"errors"
	"flag"
	"io"
	"testing"
)

type testConfig struct {
	Address string `env:"PHARMADESK_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"PHARMADESK_TEST_MODE" envDefault:"server"`
}

func bindTestFlags(fs *flag.FlagSet, cfg *testConfig) {
	fs.StringVar(&cfg.Address, "address", cfg.Address, "address")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "mode")
}

func TestLoadAppliesFlagsOverEnvironment(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	err := Load(&cfg, map[string]string{
		"PHARMADESK_TEST_ADDRESS": "env:9000",
		"PHARMADESK_TEST_MODE":    "env-mode",
	}, fs, []string{"-address", "flag:9001"}, bindTestFlags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Address != "flag:9001" {
		t.Fatalf("Address = %q, want flag value", cfg.Address)
	}
	if cfg.Mode != "env-mode" {
		t.Fatalf("Mode = %q, want env value", cfg.Mode)
	}
}

func TestLoadUsesDefaultsWithEmptyVariables(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	if err := Load(&cfg, map[string]string{}, flag.NewFlagSet("test", flag.ContinueOnError), nil, bindTestFlags); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Address != "127.0.0.1:8080" || cfg.Mode != "server" {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadReadsProcessEnvironment(t *testing.T) {
	t.Setenv("PHARMADESK_TEST_MODE", "process")

	var cfg testConfig
	if err := Load(&cfg, nil, flag.NewFlagSet("test", flag.ContinueOnError), nil, nil); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != "process" {
		t.Fatalf("Mode = %q, want %q", cfg.Mode, "process")
	}
}

func TestLoadRejectsMissingInputs(t *testing.T) {
	t.Parallel()

	if err := Load[testConfig](nil, nil, flag.NewFlagSet("test", flag.ContinueOnError), nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if err := Load(&testConfig{}, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for nil flag set")
	}
}

func TestLoadReportsUnknownFlag(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := Load(&testConfig{}, map[string]string{}, fs, []string{"-bogus"}, bindTestFlags); err == nil {
		t.Fatal("expected unknown flag error")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	t.Parallel()

	if err := RunWithTelemetry(context.Background(), " ", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceWeb, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("PHARMADESK_OTEL_ENABLED", "false")

	want := errors.New("boom")
	called := false
	err := RunWithTelemetryAndOptions(context.Background(), ServiceSeed, RunOptions{ShutdownTimeout: 10}, func(context.Context) error {
		called = true
		return want
	})
	if !called {
		t.Fatal("expected run to be called")
	}
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
