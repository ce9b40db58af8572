// Package storage implements the property engine's persistence
// collaborator: durable storage of {property-name, serialized-value}
// records per container, plus the certificate-authority blob pkg/security
// needs across restarts.
package storage

// Store is the narrow interface the daemon's persistence collaborator
// exposes. It backs collab.Persist (see pkg/collab) and the
// certificate-authority storage pkg/security consumes.
type Store interface {
	// SaveProperty durably records a single {name, value} pair for the
	// named container, creating the container's bucket on first use.
	SaveProperty(container, name string, value []byte) error

	// LoadProperties returns every persisted property of a container as
	// name → value. Missing containers return an empty map, not an error.
	LoadProperties(container string) (map[string][]byte, error)

	// DeleteProperty removes a single persisted property.
	DeleteProperty(container, name string) error

	// DeleteContainer removes every persisted property of a container.
	DeleteContainer(container string) error

	// ListContainers returns the names of every container with at least
	// one persisted property, in no particular order.
	ListContainers() ([]string, error)

	// Certificate Authority blob, consumed by pkg/security.
	SaveCA(data []byte) error
	GetCA() ([]byte, error)

	Close() error
}
