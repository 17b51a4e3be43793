// Package mqtt provides MQTT client connectivity for the profiler.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained publication of resolved device profiles
//   - Subscription to evidence published by local collectors
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	graylogic/profiler/profile/{vendor}/{product}[/{firmware}]  retained profile JSON
//	graylogic/profiler/evidence/{source_domain}                 evidence envelopes in
//	graylogic/profiler/run/{run_id}                             batch run summaries
//	graylogic/profiler/status                                   online/offline + LWT
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllEvidence(), 1,
//	    func(topic string, payload []byte) error {
//	        return ingest(topic, payload)
//	    })
//
// Tests that need a broker are behind the integration build tag.
package mqtt
