package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leighmacdonald/smitelog/pkg/combatlog"
	"github.com/leighmacdonald/smitelog/pkg/log"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	ErrReadConfig   = errors.New("failed to read config file")
	ErrFormatConfig = errors.New("config file format invalid")
)

type Config struct {
	General General `mapstructure:"general"`
	DB      DB      `mapstructure:"database"`
	Parser  Parser  `mapstructure:"parser"`
	Log     Log     `mapstructure:"log"`
	Sentry  Sentry  `mapstructure:"sentry"`
}

type General struct {
	// Mode is "release" or "debug".
	Mode string `mapstructure:"mode"`
}

type DB struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	LogQueries  bool   `mapstructure:"log_queries"`
}

// Parser tunes the derived statistics constants.
type Parser struct {
	AssistWindow         time.Duration `mapstructure:"assist_window"`
	AssistThreshold      int           `mapstructure:"assist_threshold"`
	ItemCostMilestone    int           `mapstructure:"item_cost_milestone"`
	RewardSpikeThreshold int           `mapstructure:"reward_spike_threshold"`
}

// EngineConfig maps the parser section onto the engine's tunables.
func (p Parser) EngineConfig() combatlog.Config {
	conf := combatlog.NewConfig()

	if p.AssistWindow > 0 {
		conf.AssistWindow = p.AssistWindow
	}

	if p.AssistThreshold > 0 {
		conf.AssistThreshold = p.AssistThreshold
	}

	if p.ItemCostMilestone > 0 {
		conf.ItemCostMilestone = p.ItemCostMilestone
	}

	if p.RewardSpikeThreshold > 0 {
		conf.RewardSpikeThreshold = p.RewardSpikeThreshold
	}

	return conf
}

type Log struct {
	Level log.Level `mapstructure:"level"`
	// File receives the log stream instead of stdout when set.
	File string `mapstructure:"file"`
}

type Sentry struct {
	DSN        string  `mapstructure:"dsn"`
	Trace      bool    `mapstructure:"trace"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

func setDefaults() {
	viper.SetDefault("general.mode", "release")

	viper.SetDefault("database.dsn", "postgresql://localhost/smitelog")
	viper.SetDefault("database.auto_migrate", true)
	viper.SetDefault("database.log_queries", false)

	viper.SetDefault("parser.assist_window", "10s")
	viper.SetDefault("parser.assist_threshold", 50)
	viper.SetDefault("parser.item_cost_milestone", 1000)
	viper.SetDefault("parser.reward_spike_threshold", 500)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")

	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.trace", false)
	viper.SetDefault("sentry.sample_rate", 1.0)
}

// Read loads the config from an explicit file when given, otherwise from
// smitelog.yml in the home or working directory. Missing files fall back to
// defaults plus SMITELOG_ environment overrides.
func Read(cfgFile string) (Config, error) {
	setDefaults()

	if home, errHomeDir := homedir.Dir(); errHomeDir == nil {
		viper.AddConfigPath(home)
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("smitelog")
	viper.SetConfigType("yml")
	viper.SetEnvPrefix("smitelog")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if errRead := viper.ReadInConfig(); errRead != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrReadConfig, cfgFile)
		}
	} else if errRead := viper.ReadInConfig(); errRead != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(errRead, &notFound) {
			return Config{}, errors.Join(errRead, ErrReadConfig)
		}
	}

	var conf Config

	if errUnmarshal := viper.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); errUnmarshal != nil {
		return Config{}, errors.Join(errUnmarshal, ErrFormatConfig)
	}

	if strings.HasPrefix(conf.DB.DSN, "pgx://") {
		conf.DB.DSN = strings.Replace(conf.DB.DSN, "pgx://", "postgres://", 1)
	}

	return conf, nil
}
