package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toolbelt/plumbing-estimator/internal/api"
	"github.com/toolbelt/plumbing-estimator/internal/money"
)

const (
	app = "plumbing-estimator"
)

type Config struct {
	Model    *ModelConfig    `mapstructure:"model"`
	AI       *AIConfig       `mapstructure:"ai"`
	Currency *CurrencyConfig `mapstructure:"currency"`
	Server   api.Config      `mapstructure:"server"`
	History  *HistoryConfig  `mapstructure:"history"`
}

type ModelConfig struct {
	Path             string `mapstructure:"path"`
	MissingFields    string `mapstructure:"missing-fields"`
	StrictCategories bool   `mapstructure:"strict-categories"`
}

type AIConfig struct {
	Provider     string          `mapstructure:"provider"`
	Timeout      time.Duration   `mapstructure:"timeout"`
	CacheSize    int             `mapstructure:"cache-size"`
	Fallback     bool            `mapstructure:"fallback"`
	MaxLogLength int             `mapstructure:"max-log-length"`
	Gemini       *ProviderConfig `mapstructure:"gemini"`
	OpenAI       *ProviderConfig `mapstructure:"openai"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type CurrencyConfig struct {
	Rate        float64 `mapstructure:"rate"`
	TimeDivisor float64 `mapstructure:"time-divisor"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "plumbing-estimator prices plumbing jobs from a free-text description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.openai.api-key-file", "OPENAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding OPENAI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is plumbing-estimator.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-file", "", "also write json logs to this file, rotated by size")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func setDefaults() {
	server := api.DefaultConfig()

	viper.SetDefault("model.path", "models/production/plumbing_model_v1.0.0.json")
	viper.SetDefault("model.missing-fields", "defaults")
	viper.SetDefault("model.strict-categories", false)

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", 30*time.Second)
	viper.SetDefault("ai.cache-size", 256)
	viper.SetDefault("ai.fallback", true)
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.openai.model", "gpt-4")
	viper.SetDefault("ai.openai.max-retries", 2)

	viper.SetDefault("currency.rate", money.DefaultDZDToGBP)
	viper.SetDefault("currency.time-divisor", 15)

	viper.SetDefault("server.address", server.Address)
	viper.SetDefault("server.timeout", server.Timeout)
	viper.SetDefault("server.allowed-origins", server.AllowedOrigins)

	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", "estimates.db")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// Every key has a default, so a missing file is fine unless one was asked for.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	// We can't proceed if the config file parsed with error.
	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
