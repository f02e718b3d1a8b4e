// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"strings"
	"time"

	"github.com/absmach/jelly/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "JELLY"

var (
	errReadFail      = errors.New("failed to read config file")
	errParseFail     = errors.New("failed to parse config")
	errInvalidConfig = errors.New("invalid config")
)

// MongoConfig is the document store connection.
type MongoConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port string `mapstructure:"port" validate:"required,numeric"`
	Name string `mapstructure:"name" validate:"required"`
}

// CacheConfig is the channel cache connection.
type CacheConfig struct {
	URL string        `mapstructure:"url" validate:"required,url"`
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// Config is the CLI configuration. Values come from the defaults, then the
// config file, then JELLY_* environment variables.
type Config struct {
	Mongo              MongoConfig   `mapstructure:"mongo"`
	Cache              CacheConfig   `mapstructure:"cache"`
	ESURL              string        `mapstructure:"es_url"               validate:"required,url"`
	DBOpTimeout        time.Duration `mapstructure:"db_op_timeout"        validate:"gt=0"`
	DefaultProfileName string        `mapstructure:"default_profile_name"`
	RawOutput          bool          `mapstructure:"raw_output"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mongo.host", "localhost")
	v.SetDefault("mongo.port", "27017")
	v.SetDefault("mongo.name", "jelly")
	v.SetDefault("cache.url", "redis://localhost:6379/0")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("es_url", "redis://localhost:6379/1")
	v.SetDefault("db_op_timeout", 5*time.Second)
	v.SetDefault("default_profile_name", "")
	v.SetDefault("raw_output", false)
}

// LoadConfig reads the config file at path. A missing file leaves the
// defaults in place; the file type follows its extension.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, errors.Wrap(errReadFail, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errParseFail, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(errInvalidConfig, err)
	}

	return cfg, nil
}
