package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

var outputFormats = []string{"text", "json", "both"}

// ValidateConfig validates configuration values and returns an error listing
// every problem found. Call it after Load.
func ValidateConfig() error {
	var problems []string

	for _, key := range []string{"timeout", "osv.timeout"} {
		if !viper.IsSet(key) {
			continue
		}
		d, err := parseSeconds(viper.Get(key))
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("%s: %v", key, err))
		case d <= 0:
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %v", key, d))
		}
	}

	if viper.IsSet("workers") {
		workers := viper.GetInt("workers")
		if workers <= 0 {
			problems = append(problems, fmt.Sprintf("workers must be positive, got: %d", workers))
		}
	}

	if viper.IsSet("output.format") {
		format := strings.ToLower(viper.GetString("output.format"))
		if !slices.Contains(outputFormats, format) {
			problems = append(problems, fmt.Sprintf("output.format must be one of %s, got: %q", strings.Join(outputFormats, "|"), format))
		}
	}

	if viper.IsSet("static.command") && strings.TrimSpace(viper.GetString("static.command")) == "" {
		problems = append(problems, "static.command must not be empty")
	}

	if viper.GetBool("notifications.slack.enabled") && viper.GetString("notifications.slack.webhook_url") == "" {
		problems = append(problems, "notifications.slack.webhook_url is required when slack notifications are enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
