package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Recognized credential keys. They are shared verbatim between the editor's
// storage.json, its state database and the raw_data block of saved records.
const (
	KeyCachedEmail    = "cursorAuth/cachedEmail"
	KeyAccessToken    = "cursorAuth/accessToken"
	KeyRefreshToken   = "cursorAuth/refreshToken"
	KeySignUpType     = "cursorAuth/cachedSignUpType"
	KeyMembershipType = "cursorAuth/stripeMembershipType"
)

// RecognizedKeys returns the fixed set of credential keys read from the store.
func RecognizedKeys() []string {
	return []string{
		KeyCachedEmail,
		KeyRefreshToken,
		KeyAccessToken,
		KeySignUpType,
		KeyMembershipType,
	}
}

// AuthKeys returns the keys removed on logout.
func AuthKeys() []string {
	return RecognizedKeys()
}

// IsRecognizedKey reports whether key belongs to the recognized key set.
func IsRecognizedKey(key string) bool {
	for _, k := range RecognizedKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// CredentialEntry is a single key/value row of the editor's state store.
type CredentialEntry struct {
	Key   string
	Value string
}

// CredentialSet is the bundle of credential values for one identity, keyed by
// recognized key. Values are always text.
type CredentialSet map[string]string

// Email returns the cached email, or "" when absent.
func (s CredentialSet) Email() string {
	return s[KeyCachedEmail]
}

// SignUpType returns the cached sign-up type, or "" when absent.
func (s CredentialSet) SignUpType() string {
	return s[KeySignUpType]
}

// Token returns the access token, falling back to the refresh token.
func (s CredentialSet) Token() string {
	if t := s[KeyAccessToken]; t != "" {
		return t
	}
	return s[KeyRefreshToken]
}

// Recognized returns a copy of s restricted to the recognized key set.
func (s CredentialSet) Recognized() CredentialSet {
	out := make(CredentialSet, len(s))
	for k, v := range s {
		if IsRecognizedKey(k) {
			out[k] = v
		}
	}
	return out
}

// Entries returns the set as entries in recognized-key order, followed by any
// other keys in the order they sort.
func (s CredentialSet) Entries() []CredentialEntry {
	entries := make([]CredentialEntry, 0, len(s))
	for _, k := range RecognizedKeys() {
		if v, ok := s[k]; ok {
			entries = append(entries, CredentialEntry{Key: k, Value: v})
		}
	}
	var extra []string
	for k := range s {
		if !IsRecognizedKey(k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		entries = append(entries, CredentialEntry{Key: k, Value: s[k]})
	}
	return entries
}

// UnmarshalJSON accepts any JSON value per key. Strings are kept as-is, null
// values are dropped and every other value is stored as its compact JSON text.
func (s *CredentialSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(CredentialSet, len(raw))
	for k, v := range raw {
		trimmed := bytes.TrimSpace(v)
		switch {
		case bytes.Equal(trimmed, []byte("null")):
			continue
		case len(trimmed) > 0 && trimmed[0] == '"':
			var str string
			if err := json.Unmarshal(trimmed, &str); err != nil {
				return fmt.Errorf("decode %q: %w", k, err)
			}
			out[k] = str
		default:
			var buf bytes.Buffer
			if err := json.Compact(&buf, trimmed); err != nil {
				return fmt.Errorf("decode %q: %w", k, err)
			}
			out[k] = buf.String()
		}
	}

	*s = out
	return nil
}

// ManualCredentials is the user-supplied credential set for a manual login.
type ManualCredentials struct {
	Email        string
	AccessToken  string
	RefreshToken string
	SignUpType   string
}

// Sign-up types accepted for a manual login.
const (
	SignUpAuth0  = "Auth_0"
	SignUpGoogle = "Google"
	SignUpGitHub = "GitHub"
)

// Normalize trims whitespace and applies the default sign-up type.
func (m ManualCredentials) Normalize() ManualCredentials {
	m.Email = strings.TrimSpace(m.Email)
	m.AccessToken = strings.TrimSpace(m.AccessToken)
	m.RefreshToken = strings.TrimSpace(m.RefreshToken)
	m.SignUpType = strings.TrimSpace(m.SignUpType)
	if m.SignUpType == "" {
		m.SignUpType = SignUpAuth0
	}
	return m
}

// Validate reports the first missing or invalid field, or nil.
func (m ManualCredentials) Validate() error {
	if m.Email == "" {
		return fmt.Errorf("email is required")
	}
	if m.AccessToken == "" || m.RefreshToken == "" {
		return fmt.Errorf("both access token and refresh token are required")
	}
	switch m.SignUpType {
	case SignUpAuth0, SignUpGoogle, SignUpGitHub:
	default:
		return fmt.Errorf("unknown sign-up type %q", m.SignUpType)
	}
	return nil
}

// Masked returns a copy of s with the token values shortened by MaskToken.
func (s CredentialSet) Masked() CredentialSet {
	out := make(CredentialSet, len(s))
	for k, v := range s {
		switch k {
		case KeyAccessToken, KeyRefreshToken:
			out[k] = MaskToken(v)
		default:
			out[k] = v
		}
	}
	return out
}

// CredentialSet converts the manual input into the entries written to the store.
func (m ManualCredentials) CredentialSet() CredentialSet {
	return CredentialSet{
		KeyCachedEmail:  m.Email,
		KeyAccessToken:  m.AccessToken,
		KeyRefreshToken: m.RefreshToken,
		KeySignUpType:   m.SignUpType,
	}
}

// MaskToken shortens a token for display and logs.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "****"
	}
	return token[:6] + "..." + token[len(token)-4:]
}
