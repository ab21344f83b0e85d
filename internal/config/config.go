// Package config loads application settings from remotectl.yaml, REMOTECTL_*
// environment variables and defaults. The device connection is not part of it:
// that is user data persisted by the store.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "REMOTECTL"
	FileName  = "remotectl"
)

type Config struct {
	DataDir  string
	Log      LogConfig
	HTTP     HTTPConfig
	Sync     SyncConfig
	Timers   TimersConfig
	Dispatch DispatchConfig
	MQTT     MQTTConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type HTTPConfig struct {
	Addr          string
	DeviceTimeout time.Duration
}

type SyncConfig struct {
	Debounce time.Duration
}

type TimersConfig struct {
	PollInterval time.Duration
}

type DispatchConfig struct {
	HoldInterval time.Duration
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// New returns a viper instance with defaults, env binding and search paths set.
// file, when non-empty, is used instead of searching.
func New(file string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return v
	}
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home + "/.config/remotectl")
	}
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "~/.remotectl")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.addr", ":8088")
	v.SetDefault("http.device_timeout", "10s")
	v.SetDefault("sync.debounce", "500ms")
	v.SetDefault("timers.poll_interval", "5s")
	v.SetDefault("dispatch.hold_interval", "120ms")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "remotectl")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "hifi-remote")
}

// Load reads the config file if there is one and decodes the settings.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	dataDir, err := homedir.Expand(v.GetString("data_dir"))
	if err != nil {
		return nil, fmt.Errorf("expanding data_dir: %w", err)
	}

	cfg := &Config{
		DataDir: dataDir,
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTPConfig{
			Addr:          v.GetString("http.addr"),
			DeviceTimeout: v.GetDuration("http.device_timeout"),
		},
		Sync:     SyncConfig{Debounce: v.GetDuration("sync.debounce")},
		Timers:   TimersConfig{PollInterval: v.GetDuration("timers.poll_interval")},
		Dispatch: DispatchConfig{HoldInterval: v.GetDuration("dispatch.hold_interval")},
		MQTT: MQTTConfig{
			Broker:      v.GetString("mqtt.broker"),
			ClientID:    v.GetString("mqtt.client_id"),
			Username:    v.GetString("mqtt.username"),
			Password:    v.GetString("mqtt.password"),
			TopicPrefix: strings.TrimSuffix(v.GetString("mqtt.topic_prefix"), "/"),
		},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case c.DataDir == "":
		return errors.New("data_dir must not be empty")
	case c.Sync.Debounce <= 0:
		return fmt.Errorf("sync.debounce must be positive, got %s", c.Sync.Debounce)
	case c.Timers.PollInterval <= 0:
		return fmt.Errorf("timers.poll_interval must be positive, got %s", c.Timers.PollInterval)
	case c.Dispatch.HoldInterval <= 0:
		return fmt.Errorf("dispatch.hold_interval must be positive, got %s", c.Dispatch.HoldInterval)
	case c.MQTT.Enabled() && c.MQTT.TopicPrefix == "":
		return errors.New("mqtt.topic_prefix must not be empty when mqtt.broker is set")
	}
	return nil
}
