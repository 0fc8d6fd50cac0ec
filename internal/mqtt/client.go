package mqtt

import (
	"fmt"
	"strings"
	"time"

	"station_telemetry/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	// QoS 1: at-least-once. The broker may redeliver, so the consumer side
	// must tolerate duplicates.
	qosAtLeastOnce = 1

	keepAlive         = 60 * time.Second
	pingTimeout       = 10 * time.Second
	disconnectQuiesce = 250 // ms granted to flush in-flight work on Close
)

// Config holds the MQTT connection settings resolved in main().
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TelemetryTopic string // subscription filter, e.g. "ev/station/+/telemetry"
}

// MessageHandler receives one inbound message.
type MessageHandler func(topic string, payload []byte)

// Client wraps the paho MQTT client for the telemetry topics.
type Client struct {
	client mqtt.Client
	cfg    Config
	log    *logger.Logger
}

// NewClient connects to the broker. Reconnection after a drop is handled by
// paho; the initial connect failing is fatal to the caller.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(keepAlive)
	opts.SetPingTimeout(pingTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infow("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt connection lost", "err", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}

	return &Client{client: client, cfg: cfg, log: log}, nil
}

// SubscribeTelemetry registers handler for every message matching the
// telemetry filter.
func (c *Client) SubscribeTelemetry(handler MessageHandler) error {
	token := c.client.Subscribe(c.cfg.TelemetryTopic, qosAtLeastOnce, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", c.cfg.TelemetryTopic, token.Error())
	}
	c.log.Infow("subscribed to telemetry topic", "topic", c.cfg.TelemetryTopic)
	return nil
}

// PublishTelemetry publishes one payload on the station's telemetry topic,
// derived from the subscription filter by substituting the device id for
// the single-level wildcard.
func (c *Client) PublishTelemetry(deviceID string, payload []byte) error {
	topic := strings.Replace(c.cfg.TelemetryTopic, "+", deviceID, 1)
	token := c.client.Publish(topic, qosAtLeastOnce, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(disconnectQuiesce)
	c.log.Infow("mqtt client disconnected")
}
