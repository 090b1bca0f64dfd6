package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/flood-exposure-viewer/internal/app"
	"github.com/flood-exposure-viewer/internal/config"
	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/pkg/logger"
	"github.com/flood-exposure-viewer/internal/repository/cache"
	"github.com/flood-exposure-viewer/internal/repository/file"
	redisRepo "github.com/flood-exposure-viewer/internal/repository/redis"
	"github.com/flood-exposure-viewer/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options - общие флаги всех подкоманд
type options struct {
	Municipality string
	Years        string
	Output       string
	OutFile      string
	LogLevel     string
	Timeout      time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "viewerctl",
		Short:         "Flood exposure viewer tools: legend summaries, CSV exports and data checks",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.Municipality, "municipality", "m", domain.DefaultMunicipality, "Municipality key (MUN property)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "Log level, logs go to stderr")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", time.Minute, "Overall timeout")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the legend summary for a municipality",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, opts)
		},
	}
	summaryCmd.Flags().StringVarP(&opts.Years, "year", "y", domain.DefaultYear.String(), "Active scenario year")
	summaryCmd.Flags().StringVarP(&opts.Output, "output", "o", formatYAML, "Output format: yaml or json")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write exposed assets CSV for a municipality",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}
	exportCmd.Flags().StringVarP(&opts.Years, "years", "y", domain.DefaultYear.String(), "Comma separated scenario years")
	exportCmd.Flags().StringVarP(&opts.OutFile, "out", "o", "", "Output file, stdout when empty")

	enqueueCmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a background CSV export for the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(cmd, opts)
		},
	}
	enqueueCmd.Flags().StringVarP(&opts.Years, "years", "y", domain.DefaultYear.String(), "Comma separated scenario years")
	enqueueCmd.Flags().StringVarP(&opts.Output, "output", "o", formatYAML, "Output format: yaml or json")

	checkCmd := &cobra.Command{
		Use:   "check-totals FILE",
		Short: "Validate a ground truth CSV and print parsed totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckTotals(cmd, args[0], opts)
		},
	}
	checkCmd.Flags().StringVarP(&opts.Output, "output", "o", formatYAML, "Output format: yaml or json")

	root.AddCommand(summaryCmd, exportCmd, enqueueCmd, checkCmd)
	return root
}

// env - загруженные данные и менеджер сессий для одной команды
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	source   *app.DataSource
	dataset  *usecase.DatasetUseCase
	sessions *usecase.SessionManager
}

func setup(ctx context.Context, opts *options) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewWithOutputs(opts.LogLevel, logger.FormatConsole, []string{"stderr"})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	source, err := app.OpenDataSource(cfg, log)
	if err != nil {
		return nil, err
	}

	dataset := usecase.NewDatasetUseCase(source.Assets, source.Boundaries, source.GroundTruth, nil, 0, log)
	if err := dataset.LoadScenarios(ctx); err != nil {
		source.Close()
		return nil, err
	}
	if err := dataset.LoadBoundaries(ctx); err != nil {
		log.Warn("Boundaries unavailable", zap.Error(err))
	}
	if err := dataset.LoadGroundTruth(ctx); err != nil {
		log.Warn("Ground truth unavailable, percentages will be zero", zap.Error(err))
	}

	sessions := usecase.NewSessionManager(
		dataset,
		app.RendererFactory(cfg.Viewer, log),
		app.SessionOptions(cfg.Viewer, nil),
		nil,
		app.SessionManagerConfig(cfg.Viewer),
		log,
	)

	return &env{cfg: cfg, log: log, source: source, dataset: dataset, sessions: sessions}, nil
}

func (e *env) Close() {
	e.sessions.Close()
	if err := e.source.Close(); err != nil {
		e.log.Warn("Failed to close data source", zap.Error(err))
	}
	_ = e.log.Sync()
}

func runSummary(cmd *cobra.Command, opts *options) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	year, err := domain.ParseYear(opts.Years)
	if err != nil {
		return err
	}

	e, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	s := e.sessions.Detached(ctx, domain.NewSelection(year, domain.NormalizeMunicipality(opts.Municipality)))
	defer s.Close()

	state, pending, err := s.WaitLegend(ctx, 0)
	if err != nil {
		return err
	}
	if pending {
		return fmt.Errorf("legend was not computed within %s", opts.Timeout)
	}

	return render(cmd.OutOrStdout(), opts.Output, state.Legend)
}

func runExport(cmd *cobra.Command, opts *options) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	years, err := parseYears(opts.Years)
	if err != nil {
		return err
	}

	e, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	s := e.sessions.Detached(ctx, domain.NewSelection(years[0], domain.NormalizeMunicipality(opts.Municipality)))
	defer s.Close()

	f, err := s.Export(ctx, years)
	if err != nil {
		return err
	}

	if opts.OutFile == "" {
		_, err = cmd.OutOrStdout().Write(f.Content)
		return err
	}
	if err := os.WriteFile(opts.OutFile, f.Content, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d rows written to %s (suggested name %s)\n", f.Rows, opts.OutFile, f.Filename)
	return nil
}

func runEnqueue(cmd *cobra.Command, opts *options) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	years, err := parseYears(opts.Years)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewWithOutputs(opts.LogLevel, logger.FormatConsole, []string{"stderr"})
	if err != nil {
		return err
	}
	defer log.Sync()

	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	exportUC := usecase.NewExportUseCase(
		nil,
		redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log),
		cache.NewCacheRepository(redisClient),
		cfg.Cache.ExportTTL,
		log,
	)

	record, err := exportUC.Enqueue(ctx, opts.Municipality, years)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), opts.Output, record)
}

func runCheckTotals(cmd *cobra.Command, path string, opts *options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	totals, skipped, err := file.ParseGroundTruth(f)
	if err != nil {
		return err
	}

	report := totalsReport{Skipped: skipped, Municipalities: make(map[string]map[string]int, len(totals))}
	for mun := range totals {
		row := make(map[string]int)
		for c, n := range totals.Totals(mun) {
			row[string(c)] = n
		}
		report.Municipalities[mun] = row
	}

	if err := render(cmd.OutOrStdout(), opts.Output, report); err != nil {
		return err
	}
	if skipped > 0 {
		return fmt.Errorf("%d rows skipped", skipped)
	}
	return nil
}

type totalsReport struct {
	Skipped        int                       `json:"skipped"`
	Municipalities map[string]map[string]int `json:"municipalities"`
}

func parseYears(raw string) ([]domain.Year, error) {
	var years []domain.Year
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		y, err := domain.ParseYear(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	years = domain.NormalizeYears(years)
	if len(years) == 0 {
		return nil, fmt.Errorf("no scenario years given")
	}
	return years, nil
}
