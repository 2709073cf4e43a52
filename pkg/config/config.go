package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Discord DiscordConfig `json:"discord"`
	Relay   RelayConfig   `json:"relay"`
	Log     LogConfig     `json:"log"`
}

type DiscordConfig struct {
	Token         string `env:"RELAYBOT_DISCORD_TOKEN"          json:"token"`
	CommandPrefix string `env:"RELAYBOT_DISCORD_COMMAND_PREFIX" json:"command_prefix"`
}

// RelayConfig configures the relay-mapping store, not the mappings
// themselves; those live in their own file at ConfigPath.
type RelayConfig struct {
	ConfigPath          string `env:"RELAYBOT_RELAY_CONFIG_PATH"           json:"config_path"`
	ReplyTimeoutSeconds int    `env:"RELAYBOT_RELAY_REPLY_TIMEOUT_SECONDS" json:"reply_timeout_seconds"`
}

type LogConfig struct {
	Level string `env:"RELAYBOT_LOG_LEVEL" json:"level"`
	JSON  bool   `env:"RELAYBOT_LOG_JSON"  json:"json"`
}

func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			CommandPrefix: "<",
		},
		Relay: RelayConfig{
			ConfigPath:          "relay.json",
			ReplyTimeoutSeconds: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the config file at path, overlaying defaults and then
// environment variables. A missing file is not an error; defaults plus
// environment apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
