package fingerprint

import (
	"fmt"
	"path"
	"strings"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// Wildcard matches any vendor or product.
const Wildcard = "*"

// Rule is one overlay entry of a rule table.
type Rule struct {
	Name     string       `yaml:"name" msgpack:"name"`
	Vendor   string       `yaml:"vendor" msgpack:"vendor"`
	Product  string       `yaml:"product" msgpack:"product"`
	Firmware *string      `yaml:"firmware,omitempty" msgpack:"firmware,omitempty"`
	Exclude  string       `yaml:"exclude,omitempty" msgpack:"exclude,omitempty"`
	Delta    ProfileDelta `yaml:"delta" msgpack:"delta"`
}

// ProfileDelta is what a matching rule changes in the resolved profile.
type ProfileDelta struct {
	// Family hints the device class ("curtain", "light", ...) to the text
	// heuristics. It only breaks ties between textual candidates.
	Family string `yaml:"family,omitempty" msgpack:"family,omitempty"`

	// Capabilities are bound regardless of other evidence.
	Capabilities map[device.Capability]Binding `yaml:"capabilities,omitempty" msgpack:"capabilities,omitempty"`

	// Remove drops capabilities that evidence would otherwise produce.
	Remove []device.Capability `yaml:"remove,omitempty" msgpack:"remove,omitempty"`
}

// Binding is the source and parser a delta assigns to a capability.
// Source uses the "dp:4" / "zcl:genOnOff" notation.
type Binding struct {
	Source string             `yaml:"source" msgpack:"source"`
	Parser device.ValueParser `yaml:"parser,omitempty" msgpack:"parser,omitempty"`
}

// Ref parses Source. Bindings held by a Table are already validated.
func (b Binding) Ref() (device.SourceRef, error) {
	return device.ParseSourceRef(b.Source)
}

// Empty reports whether the delta changes nothing.
func (d ProfileDelta) Empty() bool {
	return d.Family == "" && len(d.Capabilities) == 0 && len(d.Remove) == 0
}

// FirmwareString returns the rule firmware or "" for any.
func (r Rule) FirmwareString() string {
	if r.Firmware == nil {
		return ""
	}
	return *r.Firmware
}

// String renders "name (vendor/product[/firmware])".
func (r Rule) String() string {
	s := r.Vendor + "/" + r.Product
	if r.Firmware != nil {
		s += "/" + *r.Firmware
	}
	return fmt.Sprintf("%s (%s)", r.Name, s)
}

// excludes reports whether the exclude glob matches id. Patterns containing
// "|" are matched against the full device key; others against the vendor
// and the product separately.
func (r Rule) excludes(id device.Identity) bool {
	if r.Exclude == "" {
		return false
	}
	if strings.Contains(r.Exclude, "|") {
		ok, _ := path.Match(r.Exclude, id.Key()) //nolint:errcheck // validated in NewTable
		return ok
	}
	for _, s := range []string{id.Vendor, id.Product} {
		if ok, _ := path.Match(r.Exclude, s); ok { //nolint:errcheck // validated in NewTable
			return true
		}
	}
	return false
}

// applies reports whether the rule's vendor, product and firmware match id.
func (r Rule) applies(id device.Identity) bool {
	if r.Vendor != Wildcard && r.Vendor != id.Vendor {
		return false
	}
	if r.Product != Wildcard && r.Product != id.Product {
		return false
	}
	if r.Firmware == nil {
		return true
	}
	return id.Firmware != nil && *id.Firmware == *r.Firmware
}

// specificity of the rule against an identity it applies to.
func (r Rule) specificity() Specificity {
	return Specificity{
		FirmwareMatched: r.Firmware != nil,
		VendorExact:     r.Vendor != Wildcard,
		ProductExact:    r.Product != Wildcard,
	}
}

// normalise trims fields and canonicalises binding sources.
func (r Rule) normalise() Rule {
	out := Rule{
		Name:    strings.TrimSpace(r.Name),
		Vendor:  strings.TrimSpace(r.Vendor),
		Product: strings.TrimSpace(r.Product),
		Exclude: strings.TrimSpace(r.Exclude),
		Delta: ProfileDelta{
			Family: strings.ToLower(strings.TrimSpace(r.Delta.Family)),
		},
	}
	if r.Firmware != nil {
		if fw := strings.TrimSpace(*r.Firmware); fw != "" && fw != Wildcard {
			out.Firmware = &fw
		}
	}
	if len(r.Delta.Capabilities) > 0 {
		out.Delta.Capabilities = make(map[device.Capability]Binding, len(r.Delta.Capabilities))
		for c, b := range r.Delta.Capabilities {
			b.Source = strings.TrimSpace(b.Source)
			if ref, err := b.Ref(); err == nil {
				b.Source = ref.String()
			}
			out.Delta.Capabilities[c] = b
		}
	}
	if len(r.Delta.Remove) > 0 {
		out.Delta.Remove = append([]device.Capability(nil), r.Delta.Remove...)
	}
	return out
}

// validate checks a normalised rule.
func (r Rule) validate() error {
	if r.Vendor == "" || r.Product == "" {
		return fmt.Errorf("%w: %s: vendor and product are required (use %q for any)", ErrInvalidRule, r.Name, Wildcard)
	}
	if r.Exclude != "" {
		if _, err := path.Match(r.Exclude, ""); err != nil {
			return fmt.Errorf("%w: %s: exclude %q: %w", ErrInvalidRule, r.Name, r.Exclude, err)
		}
	}
	for c, b := range r.Delta.Capabilities {
		if !c.Known() {
			return fmt.Errorf("%w: %s: unknown capability %q", ErrInvalidRule, r.Name, c)
		}
		if _, err := b.Ref(); err != nil {
			return fmt.Errorf("%w: %s: capability %s: %w", ErrInvalidRule, r.Name, c, err)
		}
		if b.Parser != "" && !b.Parser.Known() {
			return fmt.Errorf("%w: %s: capability %s: unknown parser %q", ErrInvalidRule, r.Name, c, b.Parser)
		}
	}
	for _, c := range r.Delta.Remove {
		if !c.Known() {
			return fmt.Errorf("%w: %s: cannot remove unknown capability %q", ErrInvalidRule, r.Name, c)
		}
	}
	return nil
}

// Specificity is the ranking key of an applicable rule.
type Specificity struct {
	FirmwareMatched bool `json:"firmwareMatched"`
	VendorExact     bool `json:"vendorExact"`
	ProductExact    bool `json:"productExact"`
}

// Rank folds the tuple into one comparable integer, firmware most significant.
func (s Specificity) Rank() int {
	rank := 0
	if s.FirmwareMatched {
		rank += 4
	}
	if s.VendorExact {
		rank += 2
	}
	if s.ProductExact {
		rank++
	}
	return rank
}
