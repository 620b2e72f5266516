package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/frahmantamala/trail-report/internal/compensation"
	directoryDatamodel "github.com/frahmantamala/trail-report/internal/core/datamodel/directory"
	"github.com/frahmantamala/trail-report/internal/directory"
	directoryPostgres "github.com/frahmantamala/trail-report/internal/directory/postgres"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	seedTariffFile string
	seedMembers    []string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a tariff table and trained marker qualifications for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		ctx := context.Background()
		if clearData {
			if err := clearDirectory(ctx, gormDB); err != nil {
				log.Fatalf("failed to clear directory data: %v", err)
			}
			fmt.Println("Cleared tariff tables and qualifications")
		}

		table := sampleTariff()
		if seedTariffFile != "" {
			if table, err = readTariffFile(seedTariffFile); err != nil {
				log.Fatalf("failed to read tariff file: %v", err)
			}
		}

		logs := logger.LoggerWrapper()
		tariffs := directory.NewTariffService(directoryPostgres.NewTariffRepository(gormDB), logs)
		if err := tariffs.Publish(ctx, table); err != nil {
			log.Fatalf("failed to seed tariff table: %v", err)
		}
		fmt.Println("Seeded tariff table effective from", table.EffectiveFrom)

		qualifications := directory.NewQualificationService(directoryPostgres.NewQualificationRepository(gormDB), logs)
		for _, memberID := range seedMembers {
			if err := qualifications.Grant(ctx, memberID, compensation.TrainedMarkerQualification); err != nil {
				log.Fatalf("failed to grant qualification to %s: %v", memberID, err)
			}
			fmt.Println("Granted trained marker qualification to", memberID)
		}
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedTariffFile, "tariff", "", "JSON tariff table to seed instead of the sample one")
	seedCmd.Flags().StringSliceVar(&seedMembers, "member", []string{"member-1", "member-2"}, "member ids to grant the trained marker qualification")
}

func clearDirectory(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&directoryDatamodel.TariffRow{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&directoryDatamodel.Tariff{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&directoryDatamodel.MemberQualification{}).Error
	})
}

func readTariffFile(path string) (*report.TariffTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table report.TariffTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("invalid tariff file %s: %w", path, err)
	}
	return &table, nil
}

func sampleTariff() *report.TariffTable {
	return &report.TariffTable{
		EffectiveFrom:            "2024-01-01",
		OwnVehicleRate:           decimal.RequireFromString("6.00"),
		OwnVehicleSubsidizedRate: decimal.RequireFromString("3.00"),
		MealAllowances: []report.TariffRow{
			{From: "00:00", To: "05:59", Amount: decimal.Zero},
			{From: "06:00", To: "09:59", Amount: decimal.RequireFromString("80.00")},
			{From: "10:00", To: "23:59", Amount: decimal.RequireFromString("160.00")},
		},
		WorkAllowances: []report.TariffRow{
			{From: "00:00", To: "03:59", Amount: decimal.Zero},
			{From: "04:00", To: "07:59", Amount: decimal.RequireFromString("150.00")},
			{From: "08:00", To: "23:59", Amount: decimal.RequireFromString("300.00")},
		},
	}
}
