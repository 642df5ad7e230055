package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
	mqttQuiesceMillis  = 250
)

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes each sample as JSON to a fixed topic.
type MQTTPublisher struct {
	client mqttClient
	topic  string
	logger logger.Logger
}

// NewMQTT connects to the broker once. Like the InfluxDB sink it does not
// reconnect after a dropped connection.
func NewMQTT(cfg MQTTConfig, log logger.Logger) (*MQTTPublisher, error) {
	errFactory := errors.New()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(mqttConnectTimeout).
		SetAutoReconnect(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, errFactory.Wrap(ErrMirrorConnect, fmt.Errorf("timed out connecting to %s", cfg.Broker))
	}
	if err := token.Error(); err != nil {
		return nil, errFactory.Wrap(ErrMirrorConnect, err)
	}

	log.Info().Str("broker", cfg.Broker).Str("topic", cfg.Topic).Msg("Connected to MQTT broker")

	return newMQTTPublisher(client, cfg.Topic, log), nil
}

func newMQTTPublisher(client mqttClient, topic string, log logger.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, logger: log}
}

func (p *MQTTPublisher) Name() string {
	return "mqtt"
}

func (p *MQTTPublisher) Publish(_ context.Context, s Sample) error {
	errFactory := errors.New()

	payload, err := json.Marshal(s)
	if err != nil {
		return errFactory.Wrap(ErrMirrorPublish, err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errFactory.Wrap(ErrMirrorPublish, fmt.Errorf("publish to %s timed out", p.topic))
	}
	if err := token.Error(); err != nil {
		return errFactory.Wrap(ErrMirrorPublish, err)
	}

	p.logger.Debug().Str("topic", p.topic).Msg("Sample published")

	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(mqttQuiesceMillis)
	return nil
}
