package collector

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type PublisherConfig struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Publisher mirrors each persisted reading onto an MQTT topic as
// retained JSON so home-automation consumers always see the latest
// value on subscribe.
type Publisher struct {
	cfg    PublisherConfig
	client mqtt.Client
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "nepwatch-collector"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connecting to broker %q: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to broker %q: %w", cfg.Broker, err)
	}
	return &Publisher{cfg: cfg, client: client}, nil
}

func (p *Publisher) Publish(reading Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("encoding reading: %w", err)
	}
	token := p.client.Publish(p.cfg.Topic, 0, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publishing to %q: timed out", p.cfg.Topic)
	}
	return token.Error()
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
