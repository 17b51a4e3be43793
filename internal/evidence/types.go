package evidence

import (
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// SourceDomain classifies where an observation came from. Each domain has
// its own trust weight in scoring.
type SourceDomain string

// Source domains.
const (
	DomainOfficialManufacturer SourceDomain = "official_manufacturer"
	DomainOfficialPlatform     SourceDomain = "official_platform"
	DomainUpstreamRepo         SourceDomain = "upstream_repo"
	DomainReputableForum       SourceDomain = "reputable_forum"
	DomainLocalPairingLog      SourceDomain = "local_pairing_log"
	DomainLocalEventLog        SourceDomain = "local_event_log"
	DomainRetailer             SourceDomain = "retailer"
	DomainBlogVideo            SourceDomain = "blog_video"
)

// AllDomains returns every source domain in declaration order.
func AllDomains() []SourceDomain {
	return []SourceDomain{
		DomainOfficialManufacturer, DomainOfficialPlatform, DomainUpstreamRepo,
		DomainReputableForum, DomainLocalPairingLog, DomainLocalEventLog,
		DomainRetailer, DomainBlogVideo,
	}
}

// Valid reports whether d is a known domain.
func (d SourceDomain) Valid() bool {
	for _, known := range AllDomains() {
		if d == known {
			return true
		}
	}
	return false
}

// IsOfficial reports manufacturer or platform documentation.
func (d SourceDomain) IsOfficial() bool {
	return d == DomainOfficialManufacturer || d == DomainOfficialPlatform
}

// IsLocal reports logs observed on the local installation.
func (d SourceDomain) IsLocal() bool {
	return d == DomainLocalPairingLog || d == DomainLocalEventLog
}

// IsAuthoritative reports domains whose structured claims override text inference.
func (d SourceDomain) IsAuthoritative() bool {
	return d.IsOfficial() || d.IsLocal()
}

// SortDomains sorts in place by name and returns the slice.
func SortDomains(domains []SourceDomain) []SourceDomain {
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return domains
}

// Mapping assigns a capability (and optionally its value parser) to a
// protocol primitive.
type Mapping struct {
	Capability device.Capability  `json:"capability" yaml:"capability"`
	Parser     device.ValueParser `json:"parser,omitempty" yaml:"parser,omitempty"`
}

// Claim is an explicit datapoint/cluster mapping stated by a source.
// Cluster keys are canonical cluster names.
type Claim struct {
	Datapoints map[int]Mapping    `json:"datapoints,omitempty"`
	Clusters   map[string]Mapping `json:"clusters,omitempty"`
}

// Empty reports whether the claim asserts nothing.
func (c *Claim) Empty() bool {
	return c == nil || (len(c.Datapoints) == 0 && len(c.Clusters) == 0)
}

// Mappings flattens the claim into source references.
func (c *Claim) Mappings() map[device.SourceRef]Mapping {
	out := make(map[device.SourceRef]Mapping)
	if c == nil {
		return out
	}
	for dp, m := range c.Datapoints {
		out[device.DatapointRef(dp)] = m
	}
	for name, m := range c.Clusters {
		out[device.ClusterRef(name)] = m
	}
	return out
}

// Evidence is one observation about a device.
type Evidence struct {
	ID         string          `json:"id"`
	Device     device.Identity `json:"device"`
	Domain     SourceDomain    `json:"sourceDomain"`
	Origin     string          `json:"origin,omitempty"`
	ObservedAt time.Time       `json:"observedAt"`
	RawText    string          `json:"rawText,omitempty"`
	Claim      *Claim          `json:"structuredClaim,omitempty"`

	// decodeErr records a stored record that could not be decoded.
	decodeErr error
}

// HasText reports whether the record carries free text.
func (e Evidence) HasText() bool {
	return trimmedLen(e.RawText) > 0
}

// HasClaim reports whether the record carries a non-empty structured claim.
func (e Evidence) HasClaim() bool {
	return !e.Claim.Empty()
}

// OriginKey identifies the independent source behind a record. Records
// without an origin are treated as independent of each other.
func (e Evidence) OriginKey() string {
	if e.Origin != "" {
		return string(e.Domain) + "|" + e.Origin
	}
	return string(e.Domain) + "|#" + e.ID
}
