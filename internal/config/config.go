package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/taxbridge/taxbridge/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Cache      CacheConfig
	Integrator IntegratorConfig `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type CacheConfig struct {
	Enabled bool
}

// IntegratorConfig identifies this integration to the tax service. The
// fields feed the ClientTracking string and the outbound identity headers.
type IntegratorConfig struct {
	Vendor             string `validate:"required"`
	ERPName            string `validate:"required"`
	ERPVersion         string `validate:"required"`
	IntegrationVersion string `validate:"required"`
	Environment        string `validate:"required"`
	Company            string `validate:"required"`
	Product            string `validate:"required"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/taxbridge")

	v.SetEnvPrefix("TAXBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true},
		Integrator: IntegratorConfig{
			Vendor:             "WK",
			ERPName:            "NETSUITE",
			ERPVersion:         "2024.2",
			IntegrationVersion: "4.2.0",
			Environment:        "SANDBOX",
			Company:            "TSTDRV000000",
			Product:            "SUITETAX",
		},
	}
}
