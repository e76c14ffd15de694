package telemetry

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// MessageHandler receives the topic and raw string payload of one inbound
// feed message.
type MessageHandler func(topic, payload string)

// Transport is the narrow slice of an MQTT session the aggregator needs.
// Reconnection policy lives behind this interface, not in the aggregator.
type Transport interface {
	Connect() error
	Subscribe(topic string, handler MessageHandler) error
	Publish(topic, payload string) error
	Disconnect()
}

const connectTimeout = 10 * time.Second

// MQTTTransport implements Transport over an Eclipse Paho client.
type MQTTTransport struct {
	client mqtt.Client
	logger *logrus.Logger
}

// NewMQTTTransport builds a transport for the broker at host:port.
func NewMQTTTransport(host string, port int, clientID string, logger *logrus.Logger) *MQTTTransport {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", host, port)).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	return &MQTTTransport{
		client: mqtt.NewClient(opts),
		logger: logger,
	}
}

func (t *MQTTTransport) Connect() error {
	token := t.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("broker connect timed out after %s", connectTimeout)
	}
	return token.Error()
}

func (t *MQTTTransport) Subscribe(topic string, handler MessageHandler) error {
	token := t.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), string(msg.Payload()))
	})
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("subscribe to %s timed out", topic)
	}
	return token.Error()
}

// Publish sends a QoS 0 message and does not track acknowledgement.
func (t *MQTTTransport) Publish(topic, payload string) error {
	token := t.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

func (t *MQTTTransport) Disconnect() {
	t.client.Disconnect(250)
	t.logger.Debug("MQTT transport disconnected")
}

var _ Transport = (*MQTTTransport)(nil)
