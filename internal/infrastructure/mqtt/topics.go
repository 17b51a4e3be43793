package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the profiler. Everything lives under graylogic/profiler
// so the broker ACL can grant the service a single subtree.
const (
	// TopicPrefix is the base for all profiler topics.
	TopicPrefix = "graylogic/profiler"

	// TopicPrefixEvidence is where local logs and collectors publish evidence.
	TopicPrefixEvidence = TopicPrefix + "/evidence"

	// TopicPrefixProfile is where resolved profiles are retained.
	TopicPrefixProfile = TopicPrefix + "/profile"

	// TopicPrefixRun is where batch run summaries are published.
	TopicPrefixRun = TopicPrefix + "/run"
)

// Topics provides builders for profiler MQTT topics.
//
//	topics := mqtt.Topics{}
//	t := topics.Profile("_TZE284_aao6qtcs", "TS0601", "")
//	// Returns: "graylogic/profiler/profile/_TZE284_aao6qtcs/TS0601"
type Topics struct{}

// topicSegment makes an arbitrary device string safe as one topic level.
// Level separators and wildcards become underscores.
func topicSegment(s string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(strings.TrimSpace(s))
}

// Profile returns the retained topic for a device profile. The firmware
// level is omitted when firmware is unknown.
//
// Example: graylogic/profiler/profile/_TZE284_aao6qtcs/TS0601/1.0.3
func (Topics) Profile(vendor, product, firmware string) string {
	t := fmt.Sprintf("%s/%s/%s", TopicPrefixProfile, topicSegment(vendor), topicSegment(product))
	if firmware != "" {
		t += "/" + topicSegment(firmware)
	}
	return t
}

// Evidence returns the topic collectors publish to for a source domain.
//
// Example: graylogic/profiler/evidence/local_event_log
func (Topics) Evidence(domain string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvidence, topicSegment(domain))
}

// Run returns the topic for a batch run summary.
//
// Example: graylogic/profiler/run/3f0c...
func (Topics) Run(runID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixRun, topicSegment(runID))
}

// SystemStatus returns the service status topic used for online/offline
// and the Last Will.
//
// Example: graylogic/profiler/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/status"
}

// AllEvidence matches every evidence topic.
//
// Pattern: graylogic/profiler/evidence/+
func (Topics) AllEvidence() string {
	return TopicPrefixEvidence + "/+"
}

// AllProfiles matches every retained profile, with or without firmware.
//
// Pattern: graylogic/profiler/profile/#
func (Topics) AllProfiles() string {
	return TopicPrefixProfile + "/#"
}

// AllTopics matches every profiler topic.
//
// Pattern: graylogic/profiler/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
