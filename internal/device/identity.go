package device

import (
	"encoding/json"
	"fmt"
	"strings"
)

// keySeparator joins identity fields in Key. Tuya manufacturer names and
// model IDs never contain it.
const keySeparator = "|"

// Identity is the vendor/product/firmware triple reported by a device.
// Vendor is the Zigbee manufacturerName (e.g. "_TZE284_aao6qtcs") and
// Product the modelId (e.g. "TS0601"). A nil Firmware means unknown.
type Identity struct {
	Vendor   string  `json:"vendor"`
	Product  string  `json:"product"`
	Firmware *string `json:"firmware"`
}

// NewIdentity builds a normalised identity. An empty firmware string means unknown.
func NewIdentity(vendor, product, firmware string) Identity {
	id := Identity{Vendor: vendor, Product: product}
	if firmware != "" {
		fw := firmware
		id.Firmware = &fw
	}
	return id.Normalise()
}

// Normalise trims surrounding whitespace. Matching is otherwise exact and
// case-sensitive, so "_TZE284_abc" and "_tze284_abc" are distinct vendors.
func (id Identity) Normalise() Identity {
	out := Identity{
		Vendor:  strings.TrimSpace(id.Vendor),
		Product: strings.TrimSpace(id.Product),
	}
	if id.Firmware != nil {
		if fw := strings.TrimSpace(*id.Firmware); fw != "" {
			out.Firmware = &fw
		}
	}
	return out
}

// Validate reports ErrInvalidIdentity when vendor or product is empty or
// contains the key separator.
func (id Identity) Validate() error {
	switch {
	case id.Vendor == "":
		return fmt.Errorf("%w: vendor is required", ErrInvalidIdentity)
	case id.Product == "":
		return fmt.Errorf("%w: product is required", ErrInvalidIdentity)
	case strings.Contains(id.Vendor, keySeparator) || strings.Contains(id.Product, keySeparator):
		return fmt.Errorf("%w: %q is not allowed", ErrInvalidIdentity, keySeparator)
	case id.Firmware != nil && strings.Contains(*id.Firmware, keySeparator):
		return fmt.Errorf("%w: %q is not allowed in firmware", ErrInvalidIdentity, keySeparator)
	}
	return nil
}

// FirmwareString returns the firmware or "" when unknown.
func (id Identity) FirmwareString() string {
	if id.Firmware == nil {
		return ""
	}
	return *id.Firmware
}

// Key returns the canonical device key: "vendor|product" or
// "vendor|product|firmware".
func (id Identity) Key() string {
	if id.Firmware == nil {
		return id.Vendor + keySeparator + id.Product
	}
	return id.Vendor + keySeparator + id.Product + keySeparator + *id.Firmware
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return id.Key()
}

// Equal compares two identities field by field.
func (id Identity) Equal(other Identity) bool {
	return id.Key() == other.Key() && (id.Firmware == nil) == (other.Firmware == nil)
}

// Covers reports whether evidence recorded for id applies to target.
// Evidence without firmware applies to every firmware of the same product.
func (id Identity) Covers(target Identity) bool {
	if id.Vendor != target.Vendor || id.Product != target.Product {
		return false
	}
	return id.Firmware == nil || (target.Firmware != nil && *id.Firmware == *target.Firmware)
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (Identity, error) {
	parts := strings.Split(key, keySeparator)
	if len(parts) < 2 || len(parts) > 3 {
		return Identity{}, fmt.Errorf("%w: malformed key %q", ErrInvalidIdentity, key)
	}
	fw := ""
	if len(parts) == 3 {
		fw = parts[2]
	}
	id := NewIdentity(parts[0], parts[1], fw)
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// identityJSON has the same fields without the custom methods.
type identityJSON struct {
	Vendor   string  `json:"vendor"`
	Product  string  `json:"product"`
	Firmware *string `json:"firmware"`
}

// MarshalJSON always encodes the object form with an explicit null firmware.
func (id Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(identityJSON(id))
}

// UnmarshalJSON accepts the object form.
func (id *Identity) UnmarshalJSON(data []byte) error {
	var raw identityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*id = Identity(raw).Normalise()
	return nil
}
