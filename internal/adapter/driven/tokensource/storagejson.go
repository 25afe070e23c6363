// Package tokensource implements the token fallback strategies over the
// editor's on-disk state: storage.json, the state database and the session logs.
package tokensource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// minTokenLength is the length a value under a "token" key must exceed to be
// taken as a token when scanning.
const minTokenLength = 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Compile-time interface satisfaction check.
var _ driven.TokenSource = (*StorageJSON)(nil)

// StorageJSON reads the access token from the editor's storage.json.
type StorageJSON struct {
	path string
}

// NewStorageJSON creates a StorageJSON source for the file at path.
func NewStorageJSON(path string) *StorageJSON {
	return &StorageJSON{path: path}
}

// Name returns the source name used in logs.
func (s *StorageJSON) Name() string { return "storage.json" }

// Token returns the cached access token when present and non-empty. Otherwise
// it returns the first top-level string value longer than 20 characters whose
// key contains "token", in document order. A missing file yields "".
func (s *StorageJSON) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.path, err)
	}

	fields, err := decodeOrderedObject(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", s.path, err)
	}

	for _, f := range fields {
		if f.key == model.KeyAccessToken {
			if tok, ok := f.stringValue(); ok && tok != "" {
				return tok, nil
			}
			break
		}
	}

	for _, f := range fields {
		if !strings.Contains(strings.ToLower(f.key), "token") {
			continue
		}
		if tok, ok := f.stringValue(); ok && utf8.RuneCountInString(tok) > minTokenLength {
			return tok, nil
		}
	}

	return "", nil
}

type jsonField struct {
	key   string
	value json.RawMessage
}

func (f jsonField) stringValue() (string, bool) {
	var s string
	if err := json.Unmarshal(f.value, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeOrderedObject decodes a JSON object into its top-level fields, keeping
// document order. The whole document must be valid.
func decodeOrderedObject(data []byte) ([]jsonField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var fields []jsonField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		fields = append(fields, jsonField{key: key, value: raw})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err == nil {
		return nil, errors.New("trailing data after JSON object")
	}
	return fields, nil
}
