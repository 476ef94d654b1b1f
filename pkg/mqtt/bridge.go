// Package mqtt mirrors a node's traffic on an MQTT broker and accepts
// messages to send from it.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/logger"
)

type Config struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

const DefaultTopicPrefix = "chirpnet"

// Client is the part of paho.Client the bridge needs.
type Client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// Sender is satisfied by layer.Transmitter.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// Event is published for every message heard or sent.
type Event struct {
	Node      string `json:"node"`
	Direction string `json:"direction"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Command is the payload accepted on the send topic. A payload that is not
// JSON is taken as the message itself.
type Command struct {
	Message string `json:"message"`
}

type Bridge struct {
	layer.NopObserver

	client Client
	cfg    Config
	node   string
	sender Sender
	log    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

var _ layer.Observer = (*Bridge)(nil)

// NewClient builds a paho client that keeps reconnecting to cfg.Broker.
func NewClient(cfg Config, node string, log *logger.Logger) paho.Client {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID("chirpnet_" + node)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)

	opts.SetOnConnectHandler(func(paho.Client) {
		log.Info("connected", logger.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn("connection lost", logger.Error(err))
	})
	return paho.NewClient(opts)
}

// NewBridge publishes under <prefix>/<node>/ and takes commands on
// <prefix>/<node>/send. sender may be nil for a listen-only node.
func NewBridge(cfg Config, node string, client Client, sender Sender, log *logger.Logger) *Bridge {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if log == nil {
		log = logger.Default()
	}
	return &Bridge{
		client: client,
		cfg:    cfg,
		node:   node,
		sender: sender,
		log:    log.WithComponent("mqtt"),
	}
}

func (b *Bridge) Topic(name string) string {
	return strings.Join([]string{b.cfg.TopicPrefix, b.node, name}, "/")
}

// Start connects and subscribes to the send topic. Sends triggered from the
// broker use ctx.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	if b.sender == nil {
		return nil
	}
	handler := func(_ paho.Client, msg paho.Message) {
		go b.handleSend(msg.Payload())
	}
	if token := b.client.Subscribe(b.Topic("send"), b.cfg.QoS, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe: %w", token.Error())
	}
	b.log.Info("listening for commands", logger.String("topic", b.Topic("send")))
	return nil
}

func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.client.Disconnect(250)
}

func (b *Bridge) handleSend(payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		cmd.Message = strings.TrimSpace(string(payload))
	}

	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := b.sender.Send(ctx, cmd.Message); err != nil {
		b.log.Warn("send from broker failed", logger.String("message", cmd.Message), logger.Error(err))
		b.publish("error", Event{Direction: "tx", Message: cmd.Message, Error: err.Error()})
		return err
	}
	return nil
}

func (b *Bridge) MessageReceived(message string) { b.PublishReceived(message) }

func (b *Bridge) MessageSent(message string, _ time.Duration) { b.PublishSent(message) }

func (b *Bridge) PublishReceived(message string) {
	b.publish("rx", Event{Direction: "rx", Message: message})
}

func (b *Bridge) PublishSent(message string) {
	b.publish("tx", Event{Direction: "tx", Message: message})
}

// publish does not wait for the broker; observers must not block.
func (b *Bridge) publish(name string, event Event) {
	event.Node = b.node
	event.Timestamp = time.Now().Unix()
	payload, err := json.Marshal(event)
	if err != nil {
		b.log.Error("failed to marshal event", logger.Error(err))
		return
	}
	token := b.client.Publish(b.Topic(name), b.cfg.QoS, b.cfg.Retain, payload)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			b.log.Warn("publish failed", logger.String("topic", b.Topic(name)), logger.Error(token.Error()))
		}
	}()
}
