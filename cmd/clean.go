package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"listing-cleaner/config"
	"listing-cleaner/loader"
	"listing-cleaner/models"
	"listing-cleaner/services"
	"listing-cleaner/storage"
	"listing-cleaner/utils"
)

var (
	csvPath      string
	sqlitePath   string
	usePostgres  bool
	skipInsights bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Run the cleaning pipeline and write the clean table",
	Long: `Loads every export in the data directory, runs the cleaning pipeline and
writes the resulting table to CSV and, when configured, to SQLite and
PostgreSQL. A short insight report is printed at the end.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&csvPath, "csv", "", "CSV output path (overrides CSV_OUTPUT_PATH)")
	cleanCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite output path (overrides SQLITE_OUTPUT_PATH)")
	cleanCmd.Flags().BoolVar(&usePostgres, "postgres", false, "also store the table in PostgreSQL")
	cleanCmd.Flags().BoolVar(&skipInsights, "no-insights", false, "do not print the insight report")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("csv") {
		cfg.CSVOutputPath = csvPath
	}
	if cmd.Flags().Changed("sqlite") {
		cfg.SQLiteOutputPath = sqlitePath
	}
	if usePostgres {
		cfg.PostgresEnabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger = logger.WithRun(runID)
	logger.Info("=== Listing cleaner starting (run %s) ===", runID)
	logger.Info("Config: data dir %s | csv %q | sqlite %q | postgres %v",
		cfg.DataDir, cfg.CSVOutputPath, cfg.SQLiteOutputPath, cfg.PostgresEnabled)

	batches, err := loader.New(logger).LoadDir(cfg.DataDir)
	if err != nil {
		return err
	}

	table, report, err := services.NewPipeline(logger).Run(batches)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	logger.Info("Run report: loaded %d | dropped %d | on request %d | duplicates %d | tags %d | rows %d",
		report.Loaded, report.DroppedIncomplete, report.PriceOnRequest, report.Duplicates,
		report.VocabularySize, report.Rows)

	if len(table.Rows) == 0 {
		return fmt.Errorf("all %d listings were dropped during cleaning", report.Loaded)
	}

	insightTable, err := writeTable(cfg, runID, logger, table)
	if err != nil {
		return err
	}

	if !skipInsights {
		svc := services.NewInsightService(logger)
		svc.Print(cmd.OutOrStdout(), svc.Generate(insightTable))
	}
	return nil
}

// writeTable hands the table to every configured writer. It returns the
// table the insight report should be built from: the one read back from
// PostgreSQL when that is enabled, otherwise the in-memory table.
func writeTable(cfg *config.Config, runID string, logger *utils.Logger, table *models.CleanTable) (*models.CleanTable, error) {
	var writers []storage.TableWriter
	defer func() {
		for _, w := range writers {
			if err := w.Close(); err != nil {
				logger.Warn("Closing writer: %v", err)
			}
		}
	}()

	if cfg.CSVOutputPath != "" {
		w, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	if cfg.SQLiteOutputPath != "" {
		w, err := storage.NewSQLiteWriter(cfg.SQLiteOutputPath)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	var pg *storage.PostgresWriter
	if cfg.PostgresEnabled {
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
			Logger:      logger,
		}
		w, err := storage.NewPostgresWriter(cfg.DSN(), runID, cfg.PostgresReplace, retry)
		if err != nil {
			return nil, err
		}
		pg = w
		writers = append(writers, w)
	}

	for _, w := range writers {
		if err := w.Write(table); err != nil {
			return nil, err
		}
	}
	logger.Info("Clean table written to %d backend(s)", len(writers))

	if pg == nil {
		return table, nil
	}
	stored, err := pg.FetchRun()
	if err != nil {
		logger.Error("Failed to fetch run from PostgreSQL for insights: %v", err)
		return table, nil
	}
	return stored, nil
}
