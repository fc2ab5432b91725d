// Package storage provides the key-value persistence backend for Ivan Code.
// It is the stand-in for the original product's browser localStorage: a flat,
// string-keyed store of serialized values. Namespacing and serialization are
// handled one layer up, by the storage service.
package storage

// Backend is the persistence contract consumed by the storage service.
// Get returns the stored value and whether the key was present. Set either
// stores the value durably or returns an error; it must never panic.
type Backend interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}
