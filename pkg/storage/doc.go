/*
Package storage provides bbolt-backed persistence for container property
records and the daemon's certificate authority.

# Architecture

	┌──────────────── BOLTDB STORAGE ────────────────┐
	│  BoltStore                                      │
	│  - File: <dataDir>/portod.db                    │
	│                                                  │
	│  containers/                                    │
	│    <container-name>/     (nested bucket)        │
	│      <property-name> -> serialized value        │
	│                                                  │
	│  ca/                                            │
	│    "ca" -> CA cert+key blob                     │
	└──────────────────────────────────────────────────┘

Each container's properties live in their own nested bucket so that
DeleteContainer is a single bucket delete rather than a per-key scan, and
so containers can be listed without reading their properties.

# Usage

	store, err := storage.NewBoltStore("/var/lib/portod")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	err = store.SaveProperty("a/b", "memory_limit", []byte("1073741824"))
	props, err := store.LoadProperties("a/b")

On daemon restart, every persisted property is fed back through
property.Dispatcher.SetFromRestore (see pkg/property), which is how collab.Persist's
single Load/Save contract reconstructs ExplicitlySet.

# Security

The database file is not encrypted by default; callers that need
encryption at rest should run values through pkg/security's
SecretsManager before calling SaveProperty, as BoltPersist in pkg/storage
does when configured with an encryption key.
*/
package storage
