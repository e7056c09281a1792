package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

// client is the part of paho.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends JSON messages below a fixed topic prefix.
type Publisher struct {
	client  client
	prefix  string
	qos     byte
	timeout time.Duration
}

// Connect dials the broker and keeps reconnecting in the background after a drop.
func Connect(cfg Config) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("patient-monitor-%d", time.Now().Unix())
	}
	opts.SetClientID(clientID)
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.OnConnect = func(paho.Client) {
		log.WithField("broker", cfg.Broker).Info("mqtt connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.WithError(err).Warn("mqtt connection lost")
	}

	c := paho.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return newPublisher(c, cfg), nil
}

func newPublisher(c client, cfg Config) *Publisher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &Publisher{
		client:  c,
		prefix:  strings.Trim(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		timeout: timeout,
	}
}

func (p *Publisher) Topic(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "/" + suffix
}

// PublishJSON marshals v and publishes it to prefix/suffix.
func (p *Publisher) PublishJSON(suffix string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mqtt payload: %w", err)
	}
	topic := p.Topic(suffix)
	token := p.client.Publish(topic, p.qos, false, data)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
	return token.Error()
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
