package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the typed view of the configuration handed to the rest of the
// program.
type Settings struct {
	Timeout time.Duration
	Workers int

	OSVURL     string
	OSVTimeout time.Duration

	StaticCommand string
	StaticArgs    []string

	RulesFile    string
	OutputFormat string
	LogFile      string
	Verbose      bool
	MetricsAddr  string

	SlackEnabled    bool
	SlackWebhookURL string
}

// FromViper reads the current viper state into Settings.
func FromViper() Settings {
	return Settings{
		Timeout:         Seconds("timeout"),
		Workers:         viper.GetInt("workers"),
		OSVURL:          viper.GetString("osv.url"),
		OSVTimeout:      Seconds("osv.timeout"),
		StaticCommand:   viper.GetString("static.command"),
		StaticArgs:      viper.GetStringSlice("static.args"),
		RulesFile:       viper.GetString("rules.file"),
		OutputFormat:    strings.ToLower(viper.GetString("output.format")),
		LogFile:         viper.GetString("log.file"),
		Verbose:         viper.GetBool("verbose"),
		MetricsAddr:     viper.GetString("metrics.addr"),
		SlackEnabled:    viper.GetBool("notifications.slack.enabled"),
		SlackWebhookURL: viper.GetString("notifications.slack.webhook_url"),
	}
}

// Seconds reads key as a duration. Bare numbers are seconds; strings may also
// use Go duration syntax ("1m30s").
func Seconds(key string) time.Duration {
	d, _ := parseSeconds(viper.Get(key))
	return d
}

func parseSeconds(v any) (time.Duration, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return t, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", t)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("invalid duration %v", v)
	}
}
