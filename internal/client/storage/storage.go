// Package storage provides the synchronous key/value backends the client
// keeps its session tokens in.
package storage

// Storage is a synchronous string key/value store. Implementations must be
// safe for concurrent use.
type Storage interface {
	// Get returns the value of key and whether it was present.
	Get(key string) (string, bool)
	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(keys ...string) error
}
