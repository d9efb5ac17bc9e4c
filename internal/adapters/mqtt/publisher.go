// Package mqtt publishes programming results to an MQTT broker for line
// monitoring.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"

	// qosAtLeastOnce keeps results across a broker reconnect.
	qosAtLeastOnce = 1
)

// Config holds broker connection settings.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string

	// ConnectTimeout bounds Connect; zero selects 10 seconds.
	ConnectTimeout time.Duration
}

// client is the part of paho.Client the publisher needs.
type client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher implements ports.ResultPublisher. Each result is published as
// JSON on <topic>/<unit>; <topic>/status carries online/offline with a
// retained last will.
type Publisher struct {
	client  client
	topic   string
	timeout time.Duration
	logger  ports.Logger
}

// NewPublisher creates a publisher. Call Connect before publishing.
func NewPublisher(cfg Config, logger ports.Logger) *Publisher {
	statusTopic := cfg.Topic + "/status"

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetWill(statusTopic, statusOffline, qosAtLeastOnce, true)

	opts.SetOnConnectHandler(func(c paho.Client) {
		logger.Info("connected to MQTT broker", ports.String("broker", cfg.Broker))
		if token := c.Publish(statusTopic, qosAtLeastOnce, true, statusOnline); token.Wait() && token.Error() != nil {
			logger.Warn("publish online status failed", ports.Err(token.Error()))
		}
	})
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		logger.Warn("MQTT connection lost", ports.Err(err))
	})

	return newPublisher(paho.NewClient(opts), cfg, logger)
}

func newPublisher(c client, cfg Config, logger ports.Logger) *Publisher {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Publisher{client: c, topic: cfg.Topic, timeout: timeout, logger: logger}
}

// Connect connects to the broker. The client reconnects on its own after
// the first successful connection.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	if err := p.wait(ctx, token, p.timeout); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

// Publish sends one result.
func (p *Publisher) Publish(ctx context.Context, r domain.Result) error {
	if !p.client.IsConnected() {
		return errors.New("mqtt client is not connected")
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	token := p.client.Publish(p.topic+"/"+r.UnitID, qosAtLeastOnce, false, payload)
	if err := p.wait(ctx, token, p.timeout); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}

// Close marks the station offline and disconnects.
func (p *Publisher) Close() {
	if !p.client.IsConnected() {
		return
	}
	token := p.client.Publish(p.topic+"/status", qosAtLeastOnce, true, statusOffline)
	if !token.WaitTimeout(time.Second) || token.Error() != nil {
		p.logger.Debug("publish offline status failed", ports.Err(token.Error()))
	}
	p.client.Disconnect(250)
}

func (p *Publisher) wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
