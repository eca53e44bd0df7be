package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"subtrack/internal/backend"
	"subtrack/internal/cli"
	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

func main() {
	username := flag.String("user", "", "username that will own the imported subscriptions")
	file := flag.String("file", "", "path to the CSV file")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	if *username == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "usage: subtrack-import -user <username> -file <subscriptions.csv>")
		os.Exit(2)
	}
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory().Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	svc := services.NewSubscriptionService(result.Repository, services.Options{
		Publisher:         result.Publisher,
		Metrics:           metrics.New(),
		RenewalWindowDays: cfg.RenewalWindowDays,
	})

	err = run(ctx, result.Repository, svc, *username, *file, os.Stdout)
	if cerr := result.Cleanup(); cerr != nil {
		logger.Warn("Backend cleanup failed", log.FieldError, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "import failed:", err)
		os.Exit(1)
	}
}

// run imports path for username and writes one line per created subscription.
func run(ctx context.Context, users storage.UserStore, svc *services.SubscriptionService, username, path string, out io.Writer) error {
	user, err := users.GetUserByUsername(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("user %q does not exist", username)
	}
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	created, err := svc.Import(ctx, user.ID, f)
	if err != nil {
		return err
	}

	for _, s := range created {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\trenews %s\t%s/month\n",
			s.ID, s.Name, s.Cost, s.RenewalType, s.RenewalDate(), s.MonthlyCost())
	}
	fmt.Fprintf(out, "imported %d subscriptions for %s\n", len(created), user.Username)
	return nil
}
