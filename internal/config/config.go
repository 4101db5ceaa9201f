package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Hooks     HooksConfig     `mapstructure:"hooks"`
	Intensity IntensityConfig `mapstructure:"intensity"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

// Database drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	// ReportURLExpiry is how long a report download link stays valid.
	ReportURLExpiry time.Duration `mapstructure:"report_url_expiry"`
}

// Enabled reports whether report export has somewhere to write to.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Format is "console" or "json".
	Format string `mapstructure:"format"`
}

// HooksConfig configures the enrollment webhook.
type HooksConfig struct {
	Secret     string  `mapstructure:"secret"`
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
}

// IntensityConfig maps item categories to the intensity label new
// executions start with.
type IntensityConfig struct {
	Defaults map[string]string `mapstructure:"defaults"`
	Fallback string            `mapstructure:"fallback"`
}

type JobsConfig struct {
	// FinishSchedule is a cron expression for the lifecycle sweep; empty disables it.
	FinishSchedule string `mapstructure:"finish_schedule"`
	Timezone       string `mapstructure:"timezone"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	// Duration strings ("60m", "1h") decode straight into time.Duration fields.
	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	config.Database.Driver = strings.ToLower(strings.TrimSpace(config.Database.Driver))
	return config, nil
}

// setDefaults also registers every key Unmarshal should read from the
// environment; AutomaticEnv only covers keys viper already knows.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "program_ledger")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.report_url_expiry", "15m")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("hooks.secret", "")
	v.SetDefault("hooks.rate_per_sec", 20)
	v.SetDefault("hooks.burst", 40)
	v.SetDefault("intensity.defaults", map[string]string{
		"strength": "beginner",
		"cardio":   "moderate",
	})
	v.SetDefault("intensity.fallback", "rest")
	v.SetDefault("jobs.finish_schedule", "15 3 * * *")
	v.SetDefault("jobs.timezone", "UTC")
}
