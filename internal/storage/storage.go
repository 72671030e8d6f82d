// Package storage defines the key-value persistence port and its backends.
// Implementations never propagate faults to callers: a failed load reads as
// absent and failed writes are logged and swallowed, so broken persistence
// degrades to "changes not saved" instead of crashing the app.
package storage

// Store is the persistence port. Values are opaque serialized strings.
type Store interface {
	Load(key string) (string, bool)
	Save(key, value string)
	Clear(key string)
}
