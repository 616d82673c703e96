// Package trigger connects external event sources to the dispatch
// orchestrator. The MQTT connector turns platform webhook fan-out messages
// into debounced dispatch requests.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/dispatch"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/logger"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// Config defines the connection parameters for the MQTT trigger source.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "lawnflow-dispatch"
	}
	if c.Topic == "" {
		c.Topic = "dispatch/trigger/#"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("trigger: broker is required when mqtt trigger is enabled")
	}
	return nil
}

// Enqueuer receives the decoded dispatch requests.
type Enqueuer interface {
	EnqueueDispatch(req dispatch.Request) error
}

// message is the wire form published by the platform on job changes.
type message struct {
	BusinessID string `json:"business_id"`
	PlanDate   string `json:"plan_date"`
	Mode       string `json:"mode"`
	Actor      string `json:"actor"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTTrigger subscribes to the trigger topic and forwards decoded requests.
type MQTTTrigger struct {
	cfg Config
	enq Enqueuer
	log logger.Logger
	cli pahoClient
}

// NewMQTTTrigger creates a connector; it does not connect yet.
func NewMQTTTrigger(cfg Config, enq Enqueuer, log logger.Logger) (*MQTTTrigger, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if enq == nil {
		return nil, fmt.Errorf("trigger: enqueuer is required")
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &MQTTTrigger{cfg: cfg, enq: enq, log: log}, nil
}

// Start connects to the broker, subscribes and blocks until ctx is cancelled.
func (t *MQTTTrigger) Start(ctx context.Context) error {
	opts := paho.NewClientOptions().AddBroker(t.cfg.Broker).SetClientID(t.cfg.ClientID)
	opts.AutoReconnect = true
	if t.cfg.Username != "" {
		opts.SetUsername(t.cfg.Username)
	}
	if t.cfg.Password != "" {
		opts.SetPassword(t.cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		t.log.Infof("MQTT connected, subscribing to %s", t.cfg.Topic)
		if token := c.Subscribe(t.cfg.Topic, t.cfg.QoS, t.onMessage); token.Wait() && token.Error() != nil {
			t.log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		t.log.Errorf("connection lost: %v", err)
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	t.cli = cli

	<-ctx.Done()
	if t.cli.IsConnected() {
		t.cli.Disconnect(250)
	}
	return nil
}

func (t *MQTTTrigger) onMessage(_ paho.Client, msg paho.Message) {
	var m message
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		t.log.Errorf("decode trigger on %s: %v", msg.Topic(), err)
		return
	}
	req, err := toRequest(m)
	if err != nil {
		t.log.Warnf("invalid trigger on %s: %v", msg.Topic(), err)
		return
	}
	if err := t.enq.EnqueueDispatch(req); err != nil {
		t.log.Errorf("enqueue trigger for %s: %v", m.BusinessID, err)
		return
	}
	t.log.Debugf("trigger enqueued for %s/%s", m.BusinessID, m.PlanDate)
}

// toRequest validates and converts a wire message. Mode defaults to event,
// actor to "mqtt".
func toRequest(m message) (dispatch.Request, error) {
	if m.BusinessID == "" {
		return dispatch.Request{}, fmt.Errorf("business_id is required")
	}
	date, err := time.Parse(model.PlanDateLayout, m.PlanDate)
	if err != nil {
		return dispatch.Request{}, fmt.Errorf("plan_date: %w", err)
	}
	mode := model.Mode(m.Mode)
	if m.Mode == "" {
		mode = model.ModeEvent
	}
	actor := m.Actor
	if actor == "" {
		actor = "mqtt"
	}
	return dispatch.Request{
		BusinessID: m.BusinessID,
		PlanDate:   date,
		Mode:       mode,
		Actor:      actor,
	}, nil
}
