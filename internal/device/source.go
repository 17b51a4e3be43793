package device

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// SourceKind distinguishes Tuya datapoints from standard Zigbee clusters.
type SourceKind string

// Source kinds.
const (
	SourceDatapoint SourceKind = "dp"
	SourceCluster   SourceKind = "zcl"
)

// SourceRef points at the protocol primitive a capability is read from.
// Exactly one of Datapoint or Cluster is meaningful, depending on Kind.
type SourceRef struct {
	Kind      SourceKind
	Datapoint int
	Cluster   string
}

// DatapointRef returns a reference to Tuya datapoint dp.
func DatapointRef(dp int) SourceRef {
	return SourceRef{Kind: SourceDatapoint, Datapoint: dp}
}

// ClusterRef returns a reference to a canonical cluster name.
func ClusterRef(name string) SourceRef {
	return SourceRef{Kind: SourceCluster, Cluster: name}
}

// String renders "dp:4" or "zcl:genOnOff".
func (r SourceRef) String() string {
	if r.Kind == SourceCluster {
		return "zcl:" + r.Cluster
	}
	return "dp:" + strconv.Itoa(r.Datapoint)
}

// Less orders datapoints before clusters, then by index or name.
func (r SourceRef) Less(other SourceRef) bool {
	if r.Kind != other.Kind {
		return r.Kind == SourceDatapoint
	}
	if r.Kind == SourceDatapoint {
		return r.Datapoint < other.Datapoint
	}
	return r.Cluster < other.Cluster
}

// MarshalText encodes the String form, so refs work as JSON map keys.
func (r SourceRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses the String form.
func (r *SourceRef) UnmarshalText(text []byte) error {
	parsed, err := ParseSourceRef(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseSourceRef parses "dp:4" or "zcl:genOnOff". Cluster references are
// canonicalised through LookupCluster.
func ParseSourceRef(s string) (SourceRef, error) {
	kind, value, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || value == "" {
		return SourceRef{}, fmt.Errorf("%w: %q", ErrInvalidSourceRef, s)
	}
	switch SourceKind(strings.ToLower(kind)) {
	case SourceDatapoint:
		dp, err := ParseDatapoint(value)
		if err != nil {
			return SourceRef{}, err
		}
		return DatapointRef(dp), nil
	case SourceCluster:
		c, ok := LookupCluster(value)
		if !ok {
			return SourceRef{}, fmt.Errorf("%w: %q", ErrUnknownCluster, value)
		}
		return ClusterRef(c.Name), nil
	default:
		return SourceRef{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidSourceRef, kind)
	}
}

// ParseDatapoint parses a Tuya datapoint index. Valid indices are 1..255.
func ParseDatapoint(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDatapoint, s)
	}
	return CheckDatapoint(n)
}

// CheckDatapoint validates an already-numeric datapoint index.
func CheckDatapoint(n int) (int, error) {
	dp, err := safecast.Conv[uint8](n)
	if err != nil || dp == 0 {
		return 0, fmt.Errorf("%w: %d is outside 1..255", ErrInvalidDatapoint, n)
	}
	return int(dp), nil
}
