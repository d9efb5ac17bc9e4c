package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default serial link settings for the ICM325A programmer.
const (
	DefaultBaudRate    = 19200
	DefaultMatch       = "STLink"
	DefaultReadTimeout = 10 * time.Second
	DefaultLogFile     = "icmprog.log"
	DefaultMQTTTopic   = "icmprog"
)

// Config holds CLI configuration for icmprog.
type Config struct {
	// CatalogPath is the profile catalog file; empty selects the built-in catalog
	CatalogPath  string
	WatchCatalog bool

	// PortName bypasses discovery when set
	PortName    string
	Match       string
	BaudRate    int
	ReadTimeout time.Duration

	LogLevel string
	LogFile  string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		WatchCatalog: true,
		Match:        DefaultMatch,
		BaudRate:     DefaultBaudRate,
		ReadTimeout:  DefaultReadTimeout,
		LogLevel:     "info",
		LogFile:      DefaultLogFile,
		MQTTTopic:    DefaultMQTTTopic,
		MQTTClientID: defaultClientID(),
		MQTTPassword: os.Getenv("ICMPROG_MQTT_PASSWORD"),
	}
}

func defaultClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "icmprog"
	}
	return "icmprog-" + host
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.PortName == "" && strings.TrimSpace(c.Match) == "" {
		return fmt.Errorf("either port or match is required")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.MQTTBroker != "" {
		c.MQTTTopic = strings.Trim(c.MQTTTopic, "/")
		if c.MQTTTopic == "" {
			return fmt.Errorf("mqtt topic is required when a broker is set")
		}
		if c.MQTTClientID == "" {
			c.MQTTClientID = defaultClientID()
		}
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
