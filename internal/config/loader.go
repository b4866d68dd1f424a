package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

func NewLoader() *Loader {
	return &Loader{}
}

// Defaults returns the configuration used when neither a file nor a flag
// sets a value.
func Defaults() Config {
	return Config{
		Method:      "GET",
		Headers:     map[string]string{},
		Concurrency: 1,
		Requests:    1,
		Timeout:     30 * time.Second,
		Output:      OutputText,
		Tracing: TracingConfig{
			Protocol:    "grpc",
			SampleRate:  1.0,
			ServiceName: "volley",
			Propagate:   true,
		},
	}
}

// Load parses command-line arguments and an optional configuration file.
// The result is not validated; callers run Validate. Only an explicit --help
// returns ErrHelpRequested.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected argument %q", extra[0])
	}

	configPath := flagSet.Lookup("config").Value.String()

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	if cfg.Output == "" {
		cfg.Output = OutputText
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "url", "target"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("url: %w", err)
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "method"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("method: %w", err)
		}
		if val != "" {
			cfg.Method = val
		}
	}
	if raw, ok := lookupSetting(settings, "headers"); ok {
		if err := applyHeaderSetting(cfg, raw); err != nil {
			return fmt.Errorf("headers: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "data", "body"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("data: %w", err)
		}
		cfg.Body = val
	}
	if raw, ok := lookupSetting(settings, "concurrency"); ok {
		val, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("concurrency: %w", err)
		}
		cfg.Concurrency = val
	}
	if raw, ok := lookupSetting(settings, "requests"); ok {
		val, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("requests: %w", err)
		}
		cfg.Requests = val
	}
	if raw, ok := lookupSetting(settings, "timeout"); ok {
		val, err := asSeconds(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = val
	}
	if raw, ok := lookupSetting(settings, "failstatus", "fail_status", "fail-status"); ok {
		val, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("fail_status: %w", err)
		}
		cfg.FailStatus = val
	}
	if raw, ok := lookupSetting(settings, "requestid", "request_id", "request-id"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("request_id: %w", err)
		}
		cfg.RequestID = val
	}
	if raw, ok := lookupSetting(settings, "websocket", "ws"); ok {
		if err := applyWebSocketSettings(&cfg.WebSocket, raw); err != nil {
			return fmt.Errorf("websocket: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if raw, ok := lookupSetting(settings, "nocolor", "no_color", "no-color"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("no_color: %w", err)
		}
		cfg.NoColor = val
	}
	if raw, ok := lookupSetting(settings, "progress"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}
		cfg.Progress = val
	}
	if raw, ok := lookupSetting(settings, "logerrors", "log_errors", "log-errors"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("log_errors: %w", err)
		}
		cfg.LogErrors = val
	}
	if raw, ok := lookupSetting(settings, "verbose"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("verbose: %w", err)
		}
		cfg.Verbose = val
	}
	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = val
	}
	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}
	return nil
}

// applyHeaderSetting accepts either a map or a list of "Key: Value" strings.
func applyHeaderSetting(cfg *Config, raw interface{}) error {
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	switch raw.(type) {
	case []interface{}, []string, string:
		entries, err := asStringSlice(raw)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			key, value, err := parseHeader(entry)
			if err != nil {
				return err
			}
			cfg.Headers[key] = value
		}
		return nil
	}
	hdrs, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return err
	}
	for k, v := range hdrs {
		key, value, err := parseHeader(k + ":" + v)
		if err != nil {
			return err
		}
		cfg.Headers[key] = value
	}
	return nil
}

func applyWebSocketSettings(ws *WebSocketConfig, value interface{}) error {
	settings, err := cast.ToStringMapE(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "message"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("message: %w", err)
		}
		ws.Message = val
	}
	if raw, ok := lookupSetting(settings, "duration"); ok {
		dur, err := asSeconds(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		ws.Duration = dur
		ws.Persist = true
	}
	if raw, ok := lookupSetting(settings, "interval", "message_interval", "message-interval"); ok {
		dur, err := asSeconds(raw)
		if err != nil {
			return fmt.Errorf("interval: %w", err)
		}
		ws.Interval = dur
	}
	if raw, ok := lookupSetting(settings, "awaitecho", "await_echo", "await-echo"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("await_echo: %w", err)
		}
		ws.AwaitEcho = val
	}
	return nil
}

func applyTracingSettings(t *TracingConfig, value interface{}) error {
	settings, err := cast.ToStringMapE(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := cast.ToFloat64E(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		if val != "" {
			t.ServiceName = val
		}
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		t.Propagate = val
	}
	return nil
}
