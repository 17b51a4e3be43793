package profile

import (
	"testing"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
	"github.com/nerrad567/gray-logic-profiler/internal/fingerprint"
)

func textAssertion(id string, d evidence.SourceDomain, w float64, dp int, c device.Capability) assertion {
	return assertion{
		capability: c,
		source:     device.DatapointRef(dp),
		origin:     OriginText,
		domain:     d,
		evidenceID: id,
		weight:     w,
		confidence: 0.35,
	}
}

func TestMerge_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		assertions []assertion
		delta      fingerprint.ProfileDelta
		want       map[device.Capability]device.SourceRef
		wantOrigin map[device.Capability]BindingOrigin
	}{
		{
			name: "authoritative beats text on the same datapoint",
			assertions: []assertion{
				textAssertion("f1", evidence.DomainReputableForum, 15, 4, device.CapDim),
				{capability: device.CapOnOff, source: device.DatapointRef(4), origin: OriginAuthoritative,
					domain: evidence.DomainOfficialManufacturer, evidenceID: "o1", weight: 40, confidence: 1},
			},
			want:       map[device.Capability]device.SourceRef{device.CapOnOff: device.DatapointRef(4)},
			wantOrigin: map[device.Capability]BindingOrigin{device.CapOnOff: OriginAuthoritative},
		},
		{
			name: "rule beats authoritative",
			assertions: []assertion{
				{capability: device.CapOnOff, source: device.DatapointRef(1), origin: OriginAuthoritative,
					domain: evidence.DomainOfficialManufacturer, evidenceID: "o1", weight: 40, confidence: 1},
			},
			delta: fingerprint.ProfileDelta{Capabilities: map[device.Capability]fingerprint.Binding{
				device.CapWindowCoveringsSet: {Source: "dp:1"},
			}},
			want:       map[device.Capability]device.SourceRef{device.CapWindowCoveringsSet: device.DatapointRef(1)},
			wantOrigin: map[device.Capability]BindingOrigin{device.CapWindowCoveringsSet: OriginRule},
		},
		{
			name: "structured beats text",
			assertions: []assertion{
				textAssertion("f1", evidence.DomainUpstreamRepo, 25, 2, device.CapDim),
				{capability: device.CapMeasureBattery, source: device.DatapointRef(2), origin: OriginStructured,
					domain: evidence.DomainRetailer, evidenceID: "r1", weight: 8, confidence: 1},
			},
			want:       map[device.Capability]device.SourceRef{device.CapMeasureBattery: device.DatapointRef(2)},
			wantOrigin: map[device.Capability]BindingOrigin{device.CapMeasureBattery: OriginStructured},
		},
		{
			name: "summed domain support wins among text",
			assertions: []assertion{
				textAssertion("r1", evidence.DomainRetailer, 8, 3, device.CapDim),
				textAssertion("b1", evidence.DomainBlogVideo, 5, 3, device.CapOnOff),
				textAssertion("f1", evidence.DomainReputableForum, 15, 3, device.CapOnOff),
			},
			want:       map[device.Capability]device.SourceRef{device.CapOnOff: device.DatapointRef(3)},
			wantOrigin: map[device.Capability]BindingOrigin{device.CapOnOff: OriginText},
		},
		{
			name: "same domain counts once",
			assertions: []assertion{
				textAssertion("f1", evidence.DomainUpstreamRepo, 25, 3, device.CapDim),
				textAssertion("b1", evidence.DomainReputableForum, 15, 3, device.CapOnOff),
				textAssertion("b2", evidence.DomainReputableForum, 15, 3, device.CapOnOff),
			},
			want:       map[device.Capability]device.SourceRef{device.CapDim: device.DatapointRef(3)},
			wantOrigin: map[device.Capability]BindingOrigin{device.CapDim: OriginText},
		},
		{
			name: "capability keeps its best source",
			assertions: []assertion{
				textAssertion("f1", evidence.DomainReputableForum, 15, 1, device.CapOnOff),
				textAssertion("u1", evidence.DomainUpstreamRepo, 25, 2, device.CapOnOff),
			},
			want:       map[device.Capability]device.SourceRef{device.CapOnOff: device.DatapointRef(2)},
			wantOrigin: map[device.Capability]BindingOrigin{device.CapOnOff: OriginText},
		},
		{
			name: "remove drops the capability",
			assertions: []assertion{
				textAssertion("f1", evidence.DomainReputableForum, 15, 15, device.CapMeasureBattery),
				textAssertion("f1", evidence.DomainReputableForum, 15, 1, device.CapOnOff),
			},
			delta:      fingerprint.ProfileDelta{Remove: []device.Capability{device.CapMeasureBattery}},
			want:       map[device.Capability]device.SourceRef{device.CapOnOff: device.DatapointRef(1)},
			wantOrigin: map[device.Capability]BindingOrigin{device.CapOnOff: OriginText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := merge(tt.assertions, tt.delta)
			if len(got) != len(tt.want) {
				t.Fatalf("merge() = %+v, want %d bindings", got, len(tt.want))
			}
			for c, ref := range tt.want {
				b, ok := got[c]
				if !ok {
					t.Fatalf("missing binding for %s in %+v", c, got)
				}
				if b.Source != ref {
					t.Errorf("%s source = %s, want %s", c, b.Source, ref)
				}
				if b.Origin != tt.wantOrigin[c] {
					t.Errorf("%s origin = %s, want %s", c, b.Origin, tt.wantOrigin[c])
				}
			}
		})
	}
}

func TestMerge_Parser(t *testing.T) {
	got := merge([]assertion{
		{capability: device.CapMeasureTemperature, source: device.DatapointRef(1), origin: OriginStructured,
			domain: evidence.DomainRetailer, weight: 8, parser: device.ParserDivideBy100, confidence: 1},
		{capability: device.CapMeasureTemperature, source: device.DatapointRef(1), origin: OriginStructured,
			domain: evidence.DomainUpstreamRepo, weight: 25, parser: device.ParserDivideBy10, confidence: 1},
		{capability: device.CapOnOff, source: device.ClusterRef("genOnOff"), origin: OriginText,
			domain: evidence.DomainReputableForum, weight: 15, confidence: 0.4},
	}, fingerprint.ProfileDelta{})

	if p := got[device.CapMeasureTemperature].Parser; p != device.ParserDivideBy10 {
		t.Errorf("temperature parser = %s, want the heavier domain's %s", p, device.ParserDivideBy10)
	}
	if p := got[device.CapOnOff].Parser; p != device.DefaultParser(device.CapOnOff, device.SourceCluster) {
		t.Errorf("onoff parser = %s, want the cluster default", p)
	}
	wantDomains := []evidence.SourceDomain{evidence.DomainRetailer, evidence.DomainUpstreamRepo}
	if d := got[device.CapMeasureTemperature].Domains; len(d) != 2 || d[0] != wantDomains[0] || d[1] != wantDomains[1] {
		t.Errorf("Domains = %v, want %v", d, wantDomains)
	}
}

func TestMerge_Empty(t *testing.T) {
	got := merge(nil, fingerprint.ProfileDelta{})
	if got == nil || len(got) != 0 {
		t.Errorf("merge(nil) = %v, want empty non-nil map", got)
	}
}
