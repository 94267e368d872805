// Package telemetry ingests leak readings published by field devices over MQTT
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abelzeko/panchayat-water/internal/entities"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MessageHandler processes one MQTT message
type MessageHandler func(topic string, payload []byte) error

// Options configures the broker connection
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Client wraps a paho MQTT client
type Client struct {
	client mqtt.Client
	logger *zap.Logger
}

// NewClient connects to the broker
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	o := mqtt.NewClientOptions()
	o.AddBroker(opts.Broker)
	o.SetClientID(opts.ClientID)
	if opts.Username != "" {
		o.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		o.SetPassword(opts.Password)
	}
	o.SetAutoReconnect(true)
	o.SetCleanSession(true)
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(o)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	logger.Info("Connected to MQTT broker", zap.String("broker", opts.Broker))

	return &Client{client: client, logger: logger}, nil
}

// Subscribe registers handler for topic. Handler errors are logged and the
// subscription stays active.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Error("Error handling MQTT message", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}
	c.logger.Info("Subscribed to MQTT topic", zap.String("topic", topic))
	return nil
}

// Disconnect closes the connection, waiting up to 250ms for in-flight work
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// LeakAssessor is the part of the diagnostics use case the handler needs
type LeakAssessor interface {
	AssessLeak(ctx context.Context, subject string, reading entities.LeakReading) (entities.LeakResult, *entities.Evaluation, error)
}

// NewLeakHandler returns a handler that decodes each payload as a leak
// reading and assesses it. The subject is the topic level matched by the
// single-level wildcard in pattern.
func NewLeakHandler(pattern string, assessor LeakAssessor, timeout time.Duration, logger *zap.Logger) MessageHandler {
	return func(topic string, payload []byte) error {
		subject, err := SubjectFromTopic(pattern, topic)
		if err != nil {
			return err
		}

		var reading entities.LeakReading
		if err := json.Unmarshal(payload, &reading); err != nil {
			return fmt.Errorf("failed to decode leak reading from %s: %w", topic, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, e, err := assessor.AssessLeak(ctx, subject, reading)
		if err != nil {
			return fmt.Errorf("failed to assess leak reading for %s: %w", subject, err)
		}
		logger.Info("Assessed telemetry leak reading",
			zap.String("subject", subject),
			zap.String("evaluation_id", e.ID),
			zap.String("status", string(result.LeakageStatus)),
		)
		return nil
	}
}

// SubjectFromTopic matches topic against pattern and returns the level
// under the first '+'
func SubjectFromTopic(pattern, topic string) (string, error) {
	patternLevels := strings.Split(pattern, "/")
	topicLevels := strings.Split(topic, "/")

	subject, found := "", false
	for i, level := range patternLevels {
		if level == "#" {
			break
		}
		if i >= len(topicLevels) {
			return "", fmt.Errorf("topic %q does not match %q", topic, pattern)
		}
		switch level {
		case "+":
			if !found {
				subject, found = topicLevels[i], true
			}
		default:
			if topicLevels[i] != level {
				return "", fmt.Errorf("topic %q does not match %q", topic, pattern)
			}
		}
		if i == len(patternLevels)-1 && len(topicLevels) != len(patternLevels) {
			return "", fmt.Errorf("topic %q does not match %q", topic, pattern)
		}
	}
	if !found {
		return "", fmt.Errorf("pattern %q has no single-level wildcard", pattern)
	}
	if subject == "" {
		return "", fmt.Errorf("topic %q has an empty subject level", topic)
	}
	return subject, nil
}
