package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (ICMPROG_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("catalog", os.Getenv("ICMPROG_CATALOG"), &cfg.CatalogPath)
	s.setString("port", os.Getenv("ICMPROG_PORT"), &cfg.PortName)
	s.setString("match", os.Getenv("ICMPROG_MATCH"), &cfg.Match)
	s.setString("log-level", os.Getenv("ICMPROG_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", os.Getenv("ICMPROG_LOG_FILE"), &cfg.LogFile)
	s.setString("mqtt-broker", os.Getenv("ICMPROG_MQTT_BROKER"), &cfg.MQTTBroker)
	s.setString("mqtt-topic", os.Getenv("ICMPROG_MQTT_TOPIC"), &cfg.MQTTTopic)
	s.setString("mqtt-client-id", os.Getenv("ICMPROG_MQTT_CLIENT_ID"), &cfg.MQTTClientID)
	s.setString("mqtt-username", os.Getenv("ICMPROG_MQTT_USERNAME"), &cfg.MQTTUsername)
	s.setString("mqtt-password", os.Getenv("ICMPROG_MQTT_PASSWORD"), &cfg.MQTTPassword)

	if err := s.setIntFromString("baud", os.Getenv("ICMPROG_BAUD"), &cfg.BaudRate); err != nil {
		return err
	}
	if err := s.setDuration("read-timeout", os.Getenv("ICMPROG_READ_TIMEOUT"), &cfg.ReadTimeout); err != nil {
		return err
	}

	s.setBoolFromString("watch-catalog", os.Getenv("ICMPROG_WATCH_CATALOG"), &cfg.WatchCatalog)

	return nil
}
