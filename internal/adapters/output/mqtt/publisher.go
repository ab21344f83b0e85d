package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"hifi-remote/internal/domain/model"
)

const publishTimeout = 2 * time.Second

// Client is the part of paho.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Prefix   string
}

// Connect dials the broker and announces availability on <prefix>/status with
// a retained last will.
func Connect(opts Options, logger *slog.Logger) (paho.Client, error) {
	availTopic := fmt.Sprintf("%s/status", opts.Prefix)

	o := paho.NewClientOptions()
	o.AddBroker(opts.Broker)
	o.SetClientID(opts.ClientID)
	if opts.Username != "" {
		o.SetUsername(opts.Username)
		o.SetPassword(opts.Password)
	}
	o.SetAutoReconnect(true)
	o.SetWill(availTopic, "offline", 0, true)
	o.SetOnConnectHandler(func(c paho.Client) {
		logger.Info("connected to mqtt", "broker", opts.Broker)
		c.Publish(availTopic, 0, true, "online")
	})
	o.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	c := paho.NewClient(o)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", token.Error())
	}
	return c, nil
}

// Publisher mirrors layout and timer snapshots as retained JSON messages and
// forwards alerts, all under one topic prefix.
type Publisher struct {
	client Client
	prefix string
	logger *slog.Logger
}

func NewPublisher(client Client, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, prefix: prefix, logger: logger}
}

func (p *Publisher) Topic(name string) string {
	return fmt.Sprintf("%s/%s", p.prefix, name)
}

func (p *Publisher) PublishLayout(layout model.RemoteLayout) {
	p.publish("layout", true, layout)
}

func (p *Publisher) PublishTimers(timers []model.Timer) {
	if timers == nil {
		timers = []model.Timer{}
	}
	p.publish("timers", true, timers)
}

func (p *Publisher) PublishAlert(title, message string) {
	p.publish("alerts", false, alert{Title: title, Message: message, At: time.Now().UTC()})
}

// Alert makes the publisher usable as a notifier.
func (p *Publisher) Alert(title, message string) { p.PublishAlert(title, message) }

type alert struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func (p *Publisher) publish(name string, retained bool, payload interface{}) {
	topic := p.Topic(name)
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal mqtt payload", "topic", topic, "error", err)
		return
	}
	token := p.client.Publish(topic, 0, retained, data)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warn("mqtt publish timed out", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
	}
}
