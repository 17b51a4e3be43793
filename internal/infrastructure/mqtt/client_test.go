package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "graylogic-profiler-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// disconnected returns a client that never reached the broker.
func disconnected() *Client {
	return &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Profile without firmware", Topics{}.Profile("_TZE284_aao6qtcs", "TS0601", ""), "graylogic/profiler/profile/_TZE284_aao6qtcs/TS0601"},
		{"Profile with firmware", Topics{}.Profile("_TZE284_aao6qtcs", "TS0601", "1.0.3"), "graylogic/profiler/profile/_TZE284_aao6qtcs/TS0601/1.0.3"},
		{"Profile escapes separators", Topics{}.Profile("acme/eu", "lamp+", "#2"), "graylogic/profiler/profile/acme_eu/lamp_/_2"},
		{"Evidence", Topics{}.Evidence("local_event_log"), "graylogic/profiler/evidence/local_event_log"},
		{"Run", Topics{}.Run("run-1"), "graylogic/profiler/run/run-1"},
		{"SystemStatus", Topics{}.SystemStatus(), "graylogic/profiler/status"},
		{"AllEvidence", Topics{}.AllEvidence(), "graylogic/profiler/evidence/+"},
		{"AllProfiles", Topics{}.AllProfiles(), "graylogic/profiler/profile/#"},
		{"AllTopics", Topics{}.AllTopics(), "graylogic/profiler/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := disconnected()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "graylogic/profiler/x", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "graylogic/profiler/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "graylogic/profiler/x", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := disconnected()
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, handler, ErrInvalidTopic},
		{"bad qos", Topics{}.AllEvidence(), 3, handler, ErrInvalidQoS},
		{"nil handler", Topics{}.AllEvidence(), 1, nil, ErrSubscribeFailed},
		{"not connected", Topics{}.AllEvidence(), 1, handler, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0 after failed subscribes", client.SubscriptionCount())
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := disconnected()

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe(Topics{}.AllEvidence()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "profiler"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want ssl://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != cfg.Broker.ClientID {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, cfg.Broker.ClientID)
	}
	if opts.Username != "profiler" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "graylogic-profiler")

	if !opts.WillEnabled || opts.WillTopic != (Topics{}).SystemStatus() || !opts.WillRetained {
		t.Errorf("LWT = enabled %v topic %q retained %v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	var payload map[string]string
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("LWT payload is not JSON: %v", err)
	}
	if payload["status"] != "offline" || payload["reason"] != "unexpected_disconnect" {
		t.Errorf("LWT payload = %v", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	for _, p := range []string{buildOnlinePayload("c1"), buildOfflinePayload("c1")} {
		var m map[string]string
		if err := json.Unmarshal([]byte(p), &m); err != nil {
			t.Fatalf("payload %q is not JSON: %v", p, err)
		}
		if m["client_id"] != "c1" || m["timestamp"] == "" {
			t.Errorf("payload = %v", m)
		}
	}
	if !strings.Contains(buildOfflinePayload("c1"), "graceful_shutdown") {
		t.Error("offline payload should mark a graceful shutdown")
	}
}

// stuckToken never completes unless done is set.
type stuckToken struct {
	pahomqtt.Token
	done bool
	err  error
}

func (s stuckToken) WaitTimeout(time.Duration) bool { return s.done }
func (s stuckToken) Error() error                   { return s.err }

func TestWait(t *testing.T) {
	brokerErr := errors.New("not authorised")
	tests := []struct {
		name    string
		token   stuckToken
		wantErr error
	}{
		{"acknowledged", stuckToken{done: true}, nil},
		{"broker error", stuckToken{done: true, err: brokerErr}, brokerErr},
		{"no acknowledgement", stuckToken{}, ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wait(tt.token, time.Millisecond)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("wait() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("wait() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
