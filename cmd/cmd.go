package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/trail-report/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clearData  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "trail-report",
	Short: "Trail Report",
	Long:  `Compensation, validation and submission of trail maintenance reports.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// Docker deployments are configured from the environment only
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	lifecycle := internal.DefaultLifecycle()
	v.SetDefault("env", "development")
	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.allowed_origins", "*")
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "text")
	v.SetDefault("backoffice.request_timeout", "30s")
	v.SetDefault("backoffice.status_timeout", "10s")
	v.SetDefault("lifecycle.autosave_debounce", lifecycle.AutosaveDebounce)
	v.SetDefault("lifecycle.submit_timeout", lifecycle.SubmitTimeout)
	v.SetDefault("lifecycle.poll_interval", lifecycle.PollInterval)
	v.SetDefault("lifecycle.poll_max_attempts", lifecycle.PollMaxAttempts)
	v.SetDefault("lifecycle.poll_timeout", lifecycle.PollTimeout)
	v.SetDefault("lifecycle.poll_max_failures", lifecycle.PollMaxFailures)
	v.SetDefault("lifecycle.notification_feed_length", lifecycle.NotificationFeedLength)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
