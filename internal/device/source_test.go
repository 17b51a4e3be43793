package device

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"
)

func TestParseDatapoint(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 104 ", 104, false},
		{"255", 255, false},
		{"0", 0, true},
		{"256", 0, true},
		{"-3", 0, true},
		{"four", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDatapoint(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDatapoint) {
					t.Errorf("ParseDatapoint(%q) error = %v, want ErrInvalidDatapoint", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseDatapoint(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseSourceRef(t *testing.T) {
	tests := []struct {
		in      string
		want    SourceRef
		wantErr error
	}{
		{"dp:4", DatapointRef(4), nil},
		{"DP:1", DatapointRef(1), nil},
		{"zcl:genOnOff", ClusterRef("genOnOff"), nil},
		{"zcl:0x0402", ClusterRef("msTemperatureMeasurement"), nil},
		{"zcl:6", ClusterRef("genOnOff"), nil},
		{"zcl:0x1234", SourceRef{}, ErrUnknownCluster},
		{"dp:0", SourceRef{}, ErrInvalidDatapoint},
		{"attr:1", SourceRef{}, ErrInvalidSourceRef},
		{"dp", SourceRef{}, ErrInvalidSourceRef},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSourceRef(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseSourceRef(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseSourceRef(%q) = %+v, %v, want %+v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestSourceRef_MapKeyJSON(t *testing.T) {
	in := map[SourceRef]Capability{
		DatapointRef(1):        CapWindowCoveringsSet,
		ClusterRef("genOnOff"): CapOnOff,
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"dp:1":"windowcoverings_set","zcl:genOnOff":"onoff"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var out map[SourceRef]Capability
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out[DatapointRef(1)] != CapWindowCoveringsSet {
		t.Errorf("round trip lost dp:1, got %v", out)
	}
}

func TestSourceRef_Less(t *testing.T) {
	refs := []SourceRef{ClusterRef("genOnOff"), DatapointRef(10), ClusterRef("genLevelCtrl"), DatapointRef(2)}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })

	want := []string{"dp:2", "dp:10", "zcl:genLevelCtrl", "zcl:genOnOff"}
	for i, r := range refs {
		if r.String() != want[i] {
			t.Errorf("refs[%d] = %s, want %s", i, r, want[i])
		}
	}
}
