// Package store persists analysis documents (parsed records, chunks,
// summaries, graphs) as human-readable JSON or YAML.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store saves and loads named documents. Load reports false with a nil
// error when the document does not exist.
type Store interface {
	Save(ctx context.Context, name string, v any) error
	Load(ctx context.Context, name string, v any) (bool, error)
}

// Config selects and configures a Store.
type Config struct {
	Dir string
	S3  S3Config
}

// New returns an S3 store when a bucket is configured, else a filesystem
// store rooted at cfg.Dir.
func New(cfg Config) (Store, error) {
	if strings.TrimSpace(cfg.S3.Bucket) != "" {
		return NewS3(cfg.S3)
	}
	return NewFS(cfg.Dir)
}

func isYAML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// encode renders v by the document name's extension: YAML for .yaml/.yml,
// indented JSON without HTML escaping otherwise.
func encode(name string, v any) ([]byte, error) {
	if isYAML(name) {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func decode(name string, data []byte, v any) error {
	var err error
	if isYAML(name) {
		err = yaml.Unmarshal(data, v)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}
