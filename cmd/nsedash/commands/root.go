package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"nse-dashboard/internal/api"
	"nse-dashboard/internal/api/apiobs"
	"nse-dashboard/internal/dashboard"
	"nse-dashboard/internal/download"
	"nse-dashboard/internal/downloadlog"
	"nse-dashboard/internal/logger"
	"nse-dashboard/internal/render"
	"nse-dashboard/internal/store"
	"nse-dashboard/internal/trace"
)

var (
	configPath string
	baseURL    string

	cfg     *store.Config
	session *dashboard.Session
	journal *downloadlog.Journal
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "nsedash",
		Short:         "NSE report downloads and market dashboards",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap(cmd.Context(), cmd.OutOrStdout())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return teardown(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	root.PersistentFlags().StringVar(&baseURL, "api", "", "report backend base URL (overrides config)")

	root.AddCommand(lastDateCmd(), downloadCmd(), sectorsCmd(), stocksCmd(), bhavcopyCmd(), serveCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprint(os.Stderr, render.Error(err))
		return err
	}
	return nil
}

func bootstrap(ctx context.Context, out io.Writer) error {
	_ = godotenv.Load()

	logCfg := logger.LoadConfigFromEnv()
	logCfg.Output = os.Stderr
	if err := logger.InitWithConfig(logCfg); err != nil {
		return err
	}
	if err := trace.Init(); err != nil {
		logger.Warn(ctx, "Tracing disabled", "error", err)
	}

	var err error
	cfg, err = store.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	journal, err = downloadlog.New(cfg.Downloads.JournalDir)
	if err != nil {
		return err
	}
	if err := journal.CompressOlder(cfg.Downloads.RetentionDays); err != nil {
		logger.Warn(ctx, "Journal compression failed", "error", err)
	}

	backend := apiobs.Wrap(api.NewFromConfig(cfg))
	session = dashboard.NewSession(backend,
		download.WithNotifier(render.NewNotifier(out)),
		download.WithJournal(journal),
	)

	logger.Debug(ctx, "Session ready", "api", cfg.API.BaseURL, "journal", journal.Dir())
	return nil
}

func teardown(ctx context.Context) error {
	if journal != nil {
		if err := journal.Close(); err != nil {
			logger.Warn(ctx, "Failed to close journal", "error", err)
		}
	}
	return trace.Shutdown(context.WithoutCancel(ctx))
}
