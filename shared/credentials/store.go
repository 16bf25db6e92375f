// Package credentials persists the two API keys the pipeline needs.
//
// Values are obfuscated with a reversible base64(query-escape) transform so
// they are not readable at a glance in the backing store. This is NOT
// encryption and not a security boundary: anyone with access to the store can
// recover the keys. Deployments that need real confidentiality should keep
// keys in an external secret manager and inject them through the environment.
package credentials

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/url"

	"retention-analyzer/shared/storage"
)

// Kind identifies which service a credential authenticates.
type Kind string

const (
	// KindMetadata is the YouTube Data API key. Required.
	KindMetadata Kind = "youtube"
	// KindAnalysis is the generative-text API key. Optional.
	KindAnalysis Kind = "analysis"
)

// DefaultPrefix namespaces credential keys inside a shared store.
const DefaultPrefix = "yt_analyzer_"

var (
	ErrEmptyCredential = errors.New("credential value is empty")
	ErrUnknownKind     = errors.New("unknown credential kind")
)

// Kinds lists every credential kind in display order.
func Kinds() []Kind {
	return []Kind{KindMetadata, KindAnalysis}
}

// ParseKind accepts the CLI spellings of a kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "youtube", "yt", "metadata":
		return KindMetadata, nil
	case "analysis", "gemini", "openai", "ai":
		return KindAnalysis, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) storageKey() (string, error) {
	switch k {
	case KindMetadata:
		return "yt_key", nil
	case KindAnalysis:
		return "gemini_key", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

// Required reports whether the pipeline refuses to run without this kind.
func (k Kind) Required() bool {
	return k == KindMetadata
}

type Store struct {
	kv     storage.KeyValueStore
	prefix string
}

// NewStore wraps kv. An empty prefix selects DefaultPrefix.
func NewStore(kv storage.KeyValueStore, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{kv: kv, prefix: prefix}
}

func (s *Store) key(kind Kind) (string, error) {
	k, err := kind.storageKey()
	if err != nil {
		return "", err
	}
	return s.prefix + k, nil
}

// Save obfuscates and stores value, replacing any previous value of kind.
func (s *Store) Save(ctx context.Context, kind Kind, value string) error {
	if value == "" {
		return ErrEmptyCredential
	}
	key, err := s.key(kind)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key, obfuscate(value)); err != nil {
		return fmt.Errorf("failed to save %s credential: %w", kind, err)
	}
	return nil
}

// Get returns the stored credential. Absent, undecodable and empty values all
// report ok=false; store errors are logged and treated as absent.
func (s *Store) Get(ctx context.Context, kind Kind) (string, bool) {
	key, err := s.key(kind)
	if err != nil {
		return "", false
	}

	stored, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		log.Printf("Warning: Failed to read %s credential: %v", kind, err)
		return "", false
	}
	if !ok || stored == "" {
		return "", false
	}

	value, err := deobfuscate(stored)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

// Has reports whether a usable credential of kind is stored.
func (s *Store) Has(ctx context.Context, kind Kind) bool {
	_, ok := s.Get(ctx, kind)
	return ok
}

// Clear removes both credentials. It cannot be undone; callers confirm first.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, kind := range Kinds() {
		key, _ := s.key(kind)
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear %s credential: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

// KindStatus describes one credential for the key status screen.
type KindStatus struct {
	Kind     Kind
	Present  bool
	Required bool
}

func (s *Store) Status(ctx context.Context) []KindStatus {
	statuses := make([]KindStatus, 0, len(Kinds()))
	for _, kind := range Kinds() {
		statuses = append(statuses, KindStatus{
			Kind:     kind,
			Present:  s.Has(ctx, kind),
			Required: kind.Required(),
		})
	}
	return statuses
}

func obfuscate(value string) string {
	return base64.StdEncoding.EncodeToString([]byte(url.QueryEscape(value)))
}

func deobfuscate(stored string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	return url.QueryUnescape(string(raw))
}
