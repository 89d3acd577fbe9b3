package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SECSCAN_OSV_URL.
const EnvPrefix = "SECSCAN"

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("timeout", 60)
	viper.SetDefault("workers", 4)
	viper.SetDefault("osv.url", "https://api.osv.dev/v1/query")
	viper.SetDefault("osv.timeout", 10)
	viper.SetDefault("static.command", "bandit")
	viper.SetDefault("static.args", []string{"-f", "json", "-q"})
	viper.SetDefault("rules.file", "")
	viper.SetDefault("output.format", "text")
	viper.SetDefault("log.file", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("metrics.addr", "")
	viper.SetDefault("notifications.slack.enabled", false)
	viper.SetDefault("notifications.slack.webhook_url", "")
}

// Load initializes the configuration from .env, an optional YAML file and
// environment variables. Without cfgFile, ./secscan.yaml is used when present.
// A missing default file is not an error; an unreadable explicit one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("secscan")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Fall back to the conventional Slack variable when ours is unset.
	if os.Getenv(EnvPrefix+"_NOTIFICATIONS_SLACK_WEBHOOK_URL") == "" && os.Getenv("SLACK_WEBHOOK_URL") != "" {
		viper.SetDefault("notifications.slack.webhook_url", os.Getenv("SLACK_WEBHOOK_URL"))
	}
	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
