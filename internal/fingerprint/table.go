package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// versionLen is the number of hex characters kept from the content hash.
const versionLen = 16

// Table is an immutable, ordered rule set. Declaration order is significant:
// it breaks specificity ties.
type Table struct {
	version string
	rules   []Rule
}

// NewTable validates and copies rules. Unnamed rules are named "rule-N"
// after their 1-based position. When version is empty it is derived from
// the rule content.
func NewTable(version string, rules []Rule) (*Table, error) {
	t := &Table{rules: make([]Rule, len(rules))}
	seen := make(map[string]int, len(rules))

	for i, r := range rules {
		r = r.normalise()
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule-%d", i+1)
		}
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if prev, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("%w: name %q used by rules %d and %d", ErrInvalidRule, r.Name, prev+1, i+1)
		}
		seen[r.Name] = i
		t.rules[i] = r
	}

	if version == "" {
		v, err := contentVersion(t.rules)
		if err != nil {
			return nil, err
		}
		version = v
	}
	t.version = version
	return t, nil
}

// Empty returns a table with no rules. Every identity resolves to no match.
func Empty() *Table {
	t, _ := NewTable("empty", nil) //nolint:errcheck // no rules to reject
	return t
}

// Version identifies the snapshot.
func (t *Table) Version() string {
	if t == nil {
		return ""
	}
	return t.version
}

// Len returns the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rules returns a deep copy of the rules in declaration order.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.normalise()
	}
	return out
}

// contentVersion hashes the msgpack encoding of the rules. Map keys are
// sorted so equal tables hash equally.
func contentVersion(rules []Rule) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(rules); err != nil {
		return "", fmt.Errorf("hashing rules: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])[:versionLen], nil
}
