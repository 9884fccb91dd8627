package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"student-analytics-server-go/models"
)

const envPrefix = "ANALYTICS"

// Store drivers
const (
	DriverFile  = "file"
	DriverRedis = "redis"
	DriverBolt  = "bolt"
)

type (
	Config struct {
		Debug     bool
		HTTP      HTTPConfig
		Store     StoreConfig
		Redis     RedisConfig
		Bolt      BoltConfig
		Grades    GradesConfig
		Analytics AnalyticsConfig
		LogDir    string
		Seed      bool
	}

	HTTPConfig struct {
		Addr            string
		ShutdownTimeout time.Duration
	}

	StoreConfig struct {
		Driver string
		Path   string // snapshot file for the file driver
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Key      string
	}

	BoltConfig struct {
		Path   string
		Bucket string
	}

	GradesConfig struct {
		Scale string
	}

	AnalyticsConfig struct {
		Top       int
		Threshold float64
	}
)

// New returns a viper instance carrying the defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdownTimeout", 5*time.Second)
	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.path", "student_data.json")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 8)
	v.SetDefault("redis.key", "roster")
	v.SetDefault("bolt.path", "data/roster.db")
	v.SetDefault("bolt.bucket", "Roster")
	v.SetDefault("grades.scale", "standard")
	v.SetDefault("analytics.top", 5)
	v.SetDefault("analytics.threshold", 50.0)
	v.SetDefault("log.dir", "")
	v.SetDefault("seed", false)

	// ANALYTICS_STORE_DRIVER overrides store.driver, and so on
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional .env file and config file, then the environment.
// Empty paths are skipped; a missing .env file is not an error.
func Load(dotEnvPath, configFile string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, fmt.Errorf("config.godotenv(%s): %w", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config.os.Stat(%s): %w", dotEnvPath, err)
		}
	}

	v := New()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.ReadInConfig(%s): %w", configFile, err)
		}
	}
	return FromViper(v)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	conf := &Config{
		Debug: v.GetBool("debug"),
		HTTP: HTTPConfig{
			Addr:            v.GetString("http.addr"),
			ShutdownTimeout: v.GetDuration("http.shutdownTimeout"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
			Path:   strings.TrimSpace(v.GetString("store.path")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Key:      v.GetString("redis.key"),
		},
		Bolt: BoltConfig{
			Path:   v.GetString("bolt.path"),
			Bucket: v.GetString("bolt.bucket"),
		},
		Grades:    GradesConfig{Scale: v.GetString("grades.scale")},
		Analytics: AnalyticsConfig{Top: v.GetInt("analytics.top"), Threshold: v.GetFloat64("analytics.threshold")},
		LogDir:    v.GetString("log.dir"),
		Seed:      v.GetBool("seed"),
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the values that cannot be defaulted away.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for the %q driver", DriverFile)
		}
	case DriverRedis:
		if c.Redis.Addr == "" || c.Redis.Key == "" {
			return fmt.Errorf("config: redis.addr and redis.key are required for the %q driver", DriverRedis)
		}
	case DriverBolt:
		if c.Bolt.Path == "" || c.Bolt.Bucket == "" {
			return fmt.Errorf("config: bolt.path and bolt.bucket are required for the %q driver", DriverBolt)
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if _, err := models.ScaleByName(c.Grades.Scale); err != nil {
		return fmt.Errorf("config: grades.scale: %w", err)
	}
	if c.Analytics.Top < 0 {
		return fmt.Errorf("config: analytics.top cannot be negative (got %d)", c.Analytics.Top)
	}
	if math.IsNaN(c.Analytics.Threshold) || c.Analytics.Threshold < 0 || c.Analytics.Threshold > 100 {
		return fmt.Errorf("config: analytics.threshold must be within 0-100 (got %.2f)", c.Analytics.Threshold)
	}
	return nil
}

// GradeScale returns the configured grade ladder.
func (c *Config) GradeScale() *models.GradeScale {
	gs, err := models.ScaleByName(c.Grades.Scale)
	if err != nil {
		return models.StandardScale
	}
	return gs
}
