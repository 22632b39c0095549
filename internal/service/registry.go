// Package service holds the closed catalogue of status-page providers that the
// relay knows how to query.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key is not part of the catalogue.
var ErrNotFound = errors.New("service not found")

// Descriptor describes one provider in the catalogue.
type Descriptor struct {
	// Key is the short lowercase identifier callers use, e.g. "github".
	Key string

	// DisplayName is the human-readable label shown in enum pickers.
	DisplayName string

	// ProviderHost is the host serving the provider's Statuspage v2 API.
	ProviderHost string
}

// ComponentsURL returns the components endpoint for this provider.
func (d Descriptor) ComponentsURL() string {
	return "https://" + d.ProviderHost + ComponentsPath
}

// ComponentsPath is the Statuspage v2 path listing page components.
const ComponentsPath = "/api/v2/components.json"

// Entry is a key/label pair rendered on the wire as a two-element array.
type Entry struct {
	Key   string
	Label string
}

// MarshalJSON encodes the entry as ["key","label"].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Key, e.Label})
}

// Registry is an immutable, ordered lookup table of descriptors.
// It is safe for concurrent use.
type Registry struct {
	descriptors []Descriptor
	index       map[string]int
	defaultKey  string
}

// NewRegistry builds a registry preserving the order of descriptors.
func NewRegistry(descriptors []Descriptor, defaultKey string) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		index:       make(map[string]int, len(descriptors)),
		defaultKey:  defaultKey,
	}

	for _, d := range descriptors {
		if d.Key == "" {
			return nil, errors.New("descriptor key must not be empty")
		}
		if d.ProviderHost == "" {
			return nil, fmt.Errorf("descriptor %q: provider host must not be empty", d.Key)
		}
		if _, dup := r.index[d.Key]; dup {
			return nil, fmt.Errorf("duplicate descriptor key %q", d.Key)
		}
		r.index[d.Key] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}

	if _, ok := r.index[defaultKey]; !ok {
		return nil, fmt.Errorf("default key %q is not in the catalogue", defaultKey)
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on an invalid catalogue.
func MustNewRegistry(descriptors []Descriptor, defaultKey string) *Registry {
	r, err := NewRegistry(descriptors, defaultKey)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor for key. Matching is exact and case-sensitive.
func (r *Registry) Lookup(key string) (Descriptor, error) {
	i, ok := r.index[key]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return r.descriptors[i], nil
}

// Entries returns key/label pairs in catalogue order.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.descriptors))
	for i, d := range r.descriptors {
		entries[i] = Entry{Key: d.Key, Label: d.DisplayName}
	}
	return entries
}

// Keys returns the service keys in catalogue order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		keys[i] = d.Key
	}
	return keys
}

// Descriptors returns a copy of the catalogue in order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// DefaultKey is the key used when a caller does not name a service.
func (r *Registry) DefaultKey() string {
	return r.defaultKey
}

// Len returns the number of services in the catalogue.
func (r *Registry) Len() int {
	return len(r.descriptors)
}
