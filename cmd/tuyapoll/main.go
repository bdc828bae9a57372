package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/joho/godotenv"

	"github.com/speedwagon-io/tuya-local-poll/internal/collector"
	"github.com/speedwagon-io/tuya-local-poll/internal/collector/adapters"
	"github.com/speedwagon-io/tuya-local-poll/internal/config"
	"github.com/speedwagon-io/tuya-local-poll/internal/emitter"
	"github.com/speedwagon-io/tuya-local-poll/internal/lib/logger/sl"
	"github.com/speedwagon-io/tuya-local-poll/internal/model"
	"github.com/speedwagon-io/tuya-local-poll/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code. In one-shot
// mode exactly one result line is written to stdout.
func run(args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("tuyapoll", flag.ContinueOnError)
	fset.SetOutput(stderr)

	envFile := fset.String("env-file", ".env", "optional dotenv file with TUYA_* variables")
	listen := fset.String("listen", "", "serve /status on this address instead of polling once")
	showVersion := fset.Bool("version", false, "print version and exit")
	showHelp := fset.Bool("help", false, "print usage and exit")
	if err := fset.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, versioninfo.Short())
		return 0
	}

	if *showHelp {
		fset.Usage()
		if desc, err := config.Description(); err == nil {
			fmt.Fprintln(stderr, desc)
		}
		return 0
	}

	out := emitter.New(stdout)

	// Variables already in the environment take precedence over the file.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return emit(out, stderr, model.Failure(model.KindMissingConfiguration, err.Error()))
	}

	cfg, err := config.Load()
	if err != nil {
		return emit(out, stderr, model.Failure(model.KindMissingConfiguration, err.Error()))
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	log := sl.NewLogger(stderr, cfg.Log.Level, cfg.Log.Format)

	log.Info("starting tuya-local-poll",
		slog.String("version", versioninfo.Short()),
		slog.String("host", cfg.Device.Host),
		slog.Float64("protocol", cfg.Device.Version),
	)

	runner := collector.NewRunner(log, cfg, adapters.NewTuyaLocal(log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Listen != "" {
		return serve(ctx, log, cfg.Listen, runner)
	}

	return emit(out, stderr, runner.Run(ctx))
}

func serve(ctx context.Context, log *slog.Logger, address string, runner *collector.Runner) int {
	srv := server.New(log, address, runner)
	if err := srv.Start(); err != nil {
		log.Error("failed to start status server", sl.Err(err))
		return 1
	}

	<-ctx.Done()
	log.Info("received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop status server", sl.Err(err))
	}

	log.Info("status server stopped")
	return 0
}

// emit prints the one result line and returns its exit code.
func emit(out *emitter.Emitter, stderr io.Writer, res model.Result) int {
	if err := out.Emit(res); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return res.ExitCode()
}
