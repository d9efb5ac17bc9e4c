package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Catalog      string `toml:"catalog"`
	WatchCatalog *bool  `toml:"watch_catalog"`
	Port         string `toml:"port"`
	Match        string `toml:"match"`
	Baud         int    `toml:"baud"`
	ReadTimeout  string `toml:"read_timeout"`
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	MQTTBroker   string `toml:"mqtt_broker"`
	MQTTTopic    string `toml:"mqtt_topic"`
	MQTTClientID string `toml:"mqtt_client_id"`
	MQTTUsername string `toml:"mqtt_username"`
	MQTTPassword string `toml:"mqtt_password"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.icmprog/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".icmprog", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
// A relative catalog path is resolved against the config file's directory.
func ApplyFileConfig(cfg *Config, fc FileConfig, path string, changed map[string]bool) error {
	s := newConfigSetter(changed)

	catalog := fc.Catalog
	if catalog != "" && !filepath.IsAbs(catalog) && path != "" {
		catalog = filepath.Join(filepath.Dir(path), catalog)
	}
	s.setString("catalog", catalog, &cfg.CatalogPath)
	s.setString("port", fc.Port, &cfg.PortName)
	s.setString("match", fc.Match, &cfg.Match)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)
	s.setString("mqtt-broker", fc.MQTTBroker, &cfg.MQTTBroker)
	s.setString("mqtt-topic", fc.MQTTTopic, &cfg.MQTTTopic)
	s.setString("mqtt-client-id", fc.MQTTClientID, &cfg.MQTTClientID)
	s.setString("mqtt-username", fc.MQTTUsername, &cfg.MQTTUsername)
	s.setString("mqtt-password", fc.MQTTPassword, &cfg.MQTTPassword)

	s.setInt("baud", fc.Baud, &cfg.BaudRate)

	if err := s.setDuration("read-timeout", fc.ReadTimeout, &cfg.ReadTimeout); err != nil {
		return err
	}

	s.setBool("watch-catalog", fc.WatchCatalog, &cfg.WatchCatalog)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
