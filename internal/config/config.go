// Package config loads application settings from defaults, an optional
// YAML file, RECALL_ environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/recall/internal/logging"
)

// EnvPrefix marks environment variables read as configuration. Nested keys
// are separated by a double underscore, e.g. RECALL_DATABASE__PATH.
const EnvPrefix = "RECALL_"

type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Session   SessionConfig   `koanf:"session"`
	Stats     StatsConfig     `koanf:"stats"`
	Server    ServerConfig    `koanf:"server"`
	Log       logging.Config  `koanf:"log"`
	Import    ImportConfig    `koanf:"import"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// SchedulerConfig holds the review unit: the wall-clock length of one
// interval step.
type SchedulerConfig struct {
	ReviewUnit time.Duration `koanf:"review_unit" validate:"gt=0,lte=8760h"`
}

type SessionConfig struct {
	BatchSize int `koanf:"batch_size" validate:"gte=1,lte=1000"`
}

type StatsConfig struct {
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

type ImportConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

var defaults = map[string]any{
	"database.path":          "recall.db",
	"scheduler.review_unit":  "24h",
	"session.batch_size":     20,
	"stats.refresh_interval": "1m",
	"server.addr":            ":8080",
	"log.level":              "info",
	"log.format":             "text",
	"import.repos_dir":       "repos",
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"db":               "database.path",
	"review-unit":      "scheduler.review_unit",
	"batch-size":       "session.batch_size",
	"refresh-interval": "stats.refresh_interval",
	"addr":             "server.addr",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"repos-dir":        "import.repos_dir",
}

// RegisterFlags adds the configuration flags to fs. Their defaults are
// informational; a flag only overrides other sources when set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML configuration file")
	fs.String("db", "recall.db", "path to the SQLite database")
	fs.Duration("review-unit", 24*time.Hour, "length of one review interval step")
	fs.Int("batch-size", 20, "maximum cards per study session")
	fs.Duration("refresh-interval", time.Minute, "deck counter refresh period (0 disables)")
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("repos-dir", "repos", "directory holding git deck sources")
}

// Load reads the configuration. path may be empty, in which case the
// --config flag is consulted; a missing file is an error only when named
// explicitly. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path == "" && fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if fs != nil {
		p := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate checks cfg and reports every failing field in plain English.
func Validate(cfg *Config) error {
	validate, trans, err := newValidator()
	if err != nil {
		return err
	}
	err = validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate, trans, nil
}
