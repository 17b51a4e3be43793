package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/mqtt"
)

// Subscriber is the part of the MQTT client the ingestor needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MQTTIngestor appends evidence envelopes published on
// graylogic/profiler/evidence/{domain}. The last topic level is used as
// the default source domain.
type MQTTIngestor struct {
	sub     Subscriber
	adapter *Adapter
	store   Appender
	qos     byte
	timeout time.Duration
	logger  Logger
}

// NewMQTTIngestor creates an ingestor. It does not subscribe until Start.
func NewMQTTIngestor(sub Subscriber, adapter *Adapter, store Appender, qos byte) *MQTTIngestor {
	return &MQTTIngestor{
		sub:     sub,
		adapter: adapter,
		store:   store,
		qos:     qos,
		timeout: 10 * time.Second,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for ingestion warnings.
func (i *MQTTIngestor) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	i.logger = logger
}

// Start subscribes to the evidence topic.
func (i *MQTTIngestor) Start() error {
	if err := i.sub.Subscribe(mqtt.Topics{}.AllEvidence(), i.qos, i.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to evidence: %w", err)
	}
	return nil
}

// Stop unsubscribes.
func (i *MQTTIngestor) Stop() error {
	return i.sub.Unsubscribe(mqtt.Topics{}.AllEvidence())
}

// HandleMessage normalises and stores one payload. Rejected records are
// logged; the returned error covers unsupported payloads and store failures.
func (i *MQTTIngestor) HandleMessage(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	doc := Document{Name: topic, Content: payload, Format: "yaml"}
	if idx := strings.LastIndex(topic, "/"); idx >= 0 {
		doc.Domain = SourceDomain(topic[idx+1:])
	}

	res, err := i.adapter.Ingest(ctx, doc, i.store)
	for _, rej := range res.Rejected {
		i.logger.Warn("evidence rejected", "topic", topic, "reason", rej.Error())
	}
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", topic, err)
	}
	if len(res.Stored) > 0 {
		i.logger.Debug("evidence ingested", "topic", topic, "count", len(res.Stored))
	}
	return nil
}
