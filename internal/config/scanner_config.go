package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ScannerConfig struct {
	SweepInterval        time.Duration `mapstructure:"sweep_interval"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second"`
	SeenIDsCap           int           `mapstructure:"seen_ids_cap"`
	MinGroupSize         int           `mapstructure:"min_group_size"`
	AlertRetentionInDays int           `mapstructure:"alert_retention_days"`
}

func (config ScannerConfig) validate() error {
	var errs []error

	if config.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep_interval must be greater than zero"))
	}
	if config.MaxRequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("max_requests_per_second must be greater than zero"))
	}
	if config.SeenIDsCap < 0 {
		errs = append(errs, fmt.Errorf("seen_ids_cap must be non-negative"))
	}
	if config.AlertRetentionInDays <= 0 {
		errs = append(errs, fmt.Errorf("alert_retention_days must be greater than zero"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config ScannerConfig) bindEnvironmentVariables() error {

	err := viper.BindEnv("scanner.sweep_interval", "SWEEP_INTERVAL")
	if err != nil {
		return err
	}

	err = viper.BindEnv("scanner.max_requests_per_second", "MAX_REQUESTS_PER_SECOND")
	if err != nil {
		return err
	}

	err = viper.BindEnv("scanner.seen_ids_cap", "SEEN_IDS_CAP")
	if err != nil {
		return err
	}

	err = viper.BindEnv("scanner.min_group_size", "MIN_GROUP_SIZE")
	if err != nil {
		return err
	}

	return viper.BindEnv("scanner.alert_retention_days", "ALERT_RETENTION_DAYS")
}
