// Package config loads named values from a configuration file, a .env file
// and the environment, and registers them with an ioc.Registry so that
// constructors can take them by name.
//
//	src := config.Source{
//	    File:      "config.yml",
//	    EnvFile:   ".env",
//	    EnvPrefix: "APP",
//	    Keys:      []string{"count", "db.host"},
//	    Defaults:  map[string]any{"count": 5},
//	}
//
//	reg := ioc.NewRegistry()
//	if err := config.Register(reg, src); err != nil {
//	    return err
//	}
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/junioryono/ioc"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Source describes where values are read from and which keys must be found.
//
// Values are looked up in order: the environment, the .env file, the
// configuration file, then Defaults. Environment names are the upper-cased
// key with dots and dashes replaced by underscores, prefixed by EnvPrefix:
// with prefix "APP" the key "db.host" is read from APP_DB_HOST.
type Source struct {
	File      string
	EnvFile   string
	EnvPrefix string `validate:"omitempty,alphanum"`

	// Keys are registered as values under the same names.
	Keys []string `validate:"required,min=1,dive,required"`

	// Defaults apply to keys found nowhere else. A value read for a key
	// with a default is converted to the default's type.
	Defaults map[string]any

	LogLevel  string `validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	LogFormat string `validate:"omitempty,oneof=json console"`
}

// MissingKeysError lists the keys that were found in no source.
type MissingKeysError struct {
	Keys []string
}

func (e MissingKeysError) Error() string {
	return fmt.Sprintf("config: missing keys: %s", strings.Join(e.Keys, ", "))
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the source description itself.
func (s Source) Validate() error {
	if err := getValidator().Struct(s); err != nil {
		return fmt.Errorf("config: invalid source: %w", err)
	}
	return nil
}

// Load reads every key of src and returns the values by key.
func Load(src Source) (map[string]any, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, def := range src.Defaults {
		v.SetDefault(key, def)
	}

	if src.File != "" {
		v.SetConfigFile(src.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", src.File, err)
		}
	}

	v.SetEnvPrefix(src.EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if src.EnvFile != "" {
		dotenv, err := godotenv.Read(src.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", src.EnvFile, err)
		}

		// .env entries rank below the real environment.
		for _, key := range src.Keys {
			name := envName(src.EnvPrefix, key)
			if _, ok := os.LookupEnv(name); ok {
				continue
			}
			if val, ok := dotenv[name]; ok {
				v.Set(key, val)
			}
		}
	}

	values := make(map[string]any, len(src.Keys))
	var missing []string
	for _, key := range src.Keys {
		if !v.IsSet(key) {
			missing = append(missing, key)
			continue
		}

		val := v.Get(key)
		if def, ok := src.Defaults[key]; ok {
			converted, err := convert(val, def)
			if err != nil {
				return nil, fmt.Errorf("config: key %q: %w", key, err)
			}
			val = converted
		}
		values[key] = val
	}

	if len(missing) > 0 {
		return nil, MissingKeysError{Keys: missing}
	}

	return values, nil
}

// Register loads src and adds every key to reg as a value.
func Register(reg *ioc.Registry, src Source) error {
	values, err := Load(src)
	if err != nil {
		return err
	}

	for _, key := range src.Keys {
		if err := reg.AddValue(key, values[key]); err != nil {
			return err
		}
	}

	return nil
}

// Module returns a module registering src's values.
func Module(src Source) ioc.ModuleOption {
	return ioc.NewModule("config", func(reg *ioc.Registry) error {
		return Register(reg, src)
	})
}

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

func envName(prefix, key string) string {
	name := strings.ToUpper(envReplacer.Replace(key))
	if prefix == "" {
		return name
	}
	return strings.ToUpper(prefix) + "_" + name
}

// convert casts val to the type of def.
func convert(val, def any) (any, error) {
	switch def.(type) {
	case string:
		return cast.ToStringE(val)
	case int:
		return cast.ToIntE(val)
	case int64:
		return cast.ToInt64E(val)
	case float64:
		return cast.ToFloat64E(val)
	case bool:
		return cast.ToBoolE(val)
	case time.Duration:
		return cast.ToDurationE(val)
	case []string:
		return cast.ToStringSliceE(val)
	case map[string]any:
		return cast.ToStringMapE(val)
	default:
		return val, nil
	}
}
