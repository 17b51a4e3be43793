package fingerprint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout shared by every format.
type tableFile struct {
	Version string `yaml:"version" msgpack:"version"`
	Rules   []Rule `yaml:"rules" msgpack:"rules"`
}

// Supported formats.
const (
	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// FormatFromPath maps a file extension to a format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unsupported rule table extension %q", filepath.Ext(path))
	}
}

// LoadTable reads a rule table. Every failure wraps ErrRuleTableLoad.
func LoadTable(path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuleTableLoad, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuleTableLoad, err)
	}
	t, err := ParseTable(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes a rule table in the given format. Unknown YAML/JSON
// fields are rejected. Every failure wraps ErrRuleTableLoad.
func ParseTable(data []byte, format string) (*Table, error) {
	var file tableFile

	switch format {
	case FormatYAML, FormatJSON:
		// JSON is a subset of YAML.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: decoding %s: %w", ErrRuleTableLoad, format, err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: decoding snapshot: %w", ErrRuleTableLoad, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrRuleTableLoad, format)
	}

	t, err := NewTable(file.Version, file.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuleTableLoad, err)
	}
	return t, nil
}

// EncodeSnapshot encodes t as msgpack with its version pinned.
func EncodeSnapshot(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(tableFile{Version: t.Version(), Rules: t.Rules()}); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSnapshot writes t to path atomically via a temporary file.
func WriteSnapshot(path string, t *Table) error {
	data, err := EncodeSnapshot(t)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rules-*.tmp")
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write already failed
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("installing snapshot: %w", err)
	}
	return nil
}
