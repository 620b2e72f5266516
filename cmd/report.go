package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/trail-report/internal"
	"github.com/frahmantamala/trail-report/internal/backoffice"
	"github.com/frahmantamala/trail-report/internal/compensation"
	"github.com/frahmantamala/trail-report/internal/directory"
	directoryPostgres "github.com/frahmantamala/trail-report/internal/directory/postgres"
	"github.com/frahmantamala/trail-report/internal/export"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/submission"
	"github.com/frahmantamala/trail-report/internal/validation"
	"github.com/frahmantamala/trail-report/pkg/logger"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Work with report files",
	Long:  `Validate, calculate, export and submit reports stored as JSON files`,
}

var validateReportCmd = &cobra.Command{
	Use:   "validate [report.json]",
	Short: "Check logistics and work output of a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := readReportFile(args[0])
		if err != nil {
			return err
		}
		verdict := validation.Validate(r)
		if err := printJSON(verdict); err != nil {
			return err
		}
		if !verdict.CanComplete {
			return fmt.Errorf("report %s is incomplete: %d errors, %d warnings", r.ID, verdict.ErrorCount(), verdict.WarningCount())
		}
		return nil
	},
}

var calculateReportCmd = &cobra.Command{
	Use:   "calculate [report.json]",
	Short: "Calculate per-member compensation of a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := readReportFile(args[0])
		if err != nil {
			return err
		}
		service, closeFn, err := compensationService()
		if err != nil {
			return err
		}
		defer closeFn()

		results, err := service.CalculateReport(cmd.Context(), r)
		if err != nil {
			return err
		}
		if results == nil {
			return internal.ErrTariffNotFound
		}
		return printJSON(results)
	},
}

var exportReportCmd = &cobra.Command{
	Use:   "export [report.json]",
	Short: "Write the compensation workbook of a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := readReportFile(args[0])
		if err != nil {
			return err
		}
		service, closeFn, err := compensationService()
		if err != nil {
			return err
		}
		defer closeFn()

		results, err := service.CalculateReport(cmd.Context(), r)
		if err != nil {
			return err
		}
		if results == nil {
			return internal.ErrTariffNotFound
		}

		out, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := export.NewWriter(logger.LoggerWrapper()).WriteCompensation(out, r, results); err != nil {
			return err
		}
		fmt.Println("Wrote", exportOutput)
		return nil
	},
}

var submitReportCmd = &cobra.Command{
	Use:   "submit [report.json]",
	Short: "Submit a report and follow its status until the office decides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := readReportFile(args[0])
		if err != nil {
			return err
		}
		return submitReport(cmd.Context(), r)
	},
}

var (
	tariffFile         string
	qualificationsFile string
	exportOutput       string
	backOfficeURL      string
	backOfficeKey      string
)

func submitReport(ctx context.Context, r *report.Report) error {
	log := logger.LoggerWrapper()

	lifecycle := internal.DefaultLifecycle()
	boConfig := internal.BackOfficeConfig{}
	if cfg, err := loadConfig(configPath); err == nil {
		lifecycle = cfg.Lifecycle
		boConfig = cfg.BackOffice
	} else if backOfficeURL == "" {
		return err
	}

	client := backoffice.NewClient(backoffice.Config{
		BaseURL:        getStringFlag(backOfficeURL, boConfig.BaseURL),
		APIKey:         getStringFlag(backOfficeKey, boConfig.APIKey),
		RequestTimeout: boConfig.RequestTimeout,
		StatusTimeout:  boConfig.StatusTimeout,
	}, log)

	service, closeFn, err := compensationService()
	if err != nil {
		return err
	}
	defer closeFn()

	session, err := submission.Open(r, submission.Dependencies{
		BackOffice: client,
		Calculator: service,
		Notifier:   submission.NotifierFunc(printNotification(log)),
		Logger:     log,
	}, submission.ConfigFrom(lifecycle))
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		session.Close()
	}()

	if err := session.Submit(ctx); err != nil {
		return err
	}
	session.Wait()

	log.Info("report session finished", "state", session.State())
	return nil
}

func printNotification(log *slog.Logger) func(context.Context, submission.Notification) {
	return func(_ context.Context, n submission.Notification) {
		if n.Silent {
			return
		}
		log.Info(n.Message, "code", n.Code, "kind", n.Kind, "state", n.State)
	}
}

// compensationService prefers file based directories and falls back to the database.
func compensationService() (*compensation.Service, func(), error) {
	log := logger.LoggerWrapper()

	if tariffFile != "" {
		files, err := loadFileDirectory(tariffFile, qualificationsFile)
		if err != nil {
			return nil, nil, err
		}
		return compensation.NewService(files, files, log), func() {}, nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("no --tariff given and no database configured: %w", err)
	}
	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	tariffs := directory.NewTariffService(directoryPostgres.NewTariffRepository(gormDB), log)
	qualifications := directory.NewQualificationService(directoryPostgres.NewQualificationRepository(gormDB), log)
	return compensation.NewService(tariffs, qualifications, log), func() { _ = db.Close() }, nil
}

// fileDirectory serves a single tariff table and a qualification snapshot read from disk.
type fileDirectory struct {
	tariff         *report.TariffTable
	effective      time.Time
	qualifications map[string][]string
}

func loadFileDirectory(tariffPath, qualificationsPath string) (*fileDirectory, error) {
	table, err := readTariffFile(tariffPath)
	if err != nil {
		return nil, err
	}
	effective, err := time.Parse(report.DateLayout, table.EffectiveFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid effective_from in %s: %w", tariffPath, err)
	}

	files := &fileDirectory{tariff: table, effective: effective, qualifications: map[string][]string{}}
	if qualificationsPath == "" {
		return files, nil
	}
	data, err := os.ReadFile(qualificationsPath)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &files.qualifications); err != nil {
		return nil, fmt.Errorf("invalid qualifications file %s: %w", qualificationsPath, err)
	}
	return files, nil
}

func (f *fileDirectory) TariffFor(_ context.Context, on time.Time) (*report.TariffTable, error) {
	if on.Before(f.effective) {
		return nil, directory.ErrTariffNotFound
	}
	return f.tariff, nil
}

func (f *fileDirectory) Snapshot(_ context.Context, memberIDs []string) (map[string][]string, error) {
	snapshot := make(map[string][]string, len(memberIDs))
	for _, id := range memberIDs {
		snapshot[id] = append([]string{}, f.qualifications[id]...)
	}
	return snapshot, nil
}

func readReportFile(path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid report file %s: %w", path, err)
	}
	if r.ID == "" {
		r.ID = report.NewID()
	}
	return &r, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	for _, c := range []*cobra.Command{calculateReportCmd, exportReportCmd, submitReportCmd} {
		c.Flags().StringVar(&tariffFile, "tariff", "", "JSON tariff table (skips the database)")
		c.Flags().StringVar(&qualificationsFile, "qualifications", "", "JSON map of member id to qualification codes, used with --tariff")
	}
	exportReportCmd.Flags().StringVarP(&exportOutput, "output", "o", "compensation.xlsx", "workbook to write")
	submitReportCmd.Flags().StringVar(&backOfficeURL, "backoffice-url", "", "back office API URL (overrides config)")
	submitReportCmd.Flags().StringVar(&backOfficeKey, "api-key", "", "back office API key (overrides config)")

	reportCmd.AddCommand(validateReportCmd)
	reportCmd.AddCommand(calculateReportCmd)
	reportCmd.AddCommand(exportReportCmd)
	reportCmd.AddCommand(submitReportCmd)

	rootCmd.AddCommand(reportCmd)
}
