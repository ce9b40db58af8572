package storage

import (
	"github.com/cuemby/portod/pkg/security"
)

// BoltPersist adapts a Store to collab.Persist's string-valued contract,
// optionally encrypting every property value at rest with a
// security.SecretsManager. Values never touch disk as plaintext once a
// SecretsManager is installed; LoadProperties transparently decrypts.
type BoltPersist struct {
	store   Store
	secrets *security.SecretsManager
}

// NewBoltPersist wraps store. secrets may be nil, in which case property
// values are stored as plain UTF-8 bytes.
func NewBoltPersist(store Store, secrets *security.SecretsManager) *BoltPersist {
	return &BoltPersist{store: store, secrets: secrets}
}

func (p *BoltPersist) encode(value string) ([]byte, error) {
	if p.secrets == nil || value == "" {
		return []byte(value), nil
	}
	return p.secrets.EncryptSecret([]byte(value))
}

func (p *BoltPersist) decode(raw []byte) (string, error) {
	if p.secrets == nil || len(raw) == 0 {
		return string(raw), nil
	}
	plain, err := p.secrets.DecryptSecret(raw)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (p *BoltPersist) SaveProperty(container, name, value string) error {
	raw, err := p.encode(value)
	if err != nil {
		return err
	}
	return p.store.SaveProperty(container, name, raw)
}

func (p *BoltPersist) LoadProperties(container string) (map[string]string, error) {
	raw, err := p.store.LoadProperties(container)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for name, v := range raw {
		value, err := p.decode(v)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

func (p *BoltPersist) DeleteProperty(container, name string) error {
	return p.store.DeleteProperty(container, name)
}

func (p *BoltPersist) DeleteContainer(container string) error {
	return p.store.DeleteContainer(container)
}

func (p *BoltPersist) ListContainers() ([]string, error) {
	return p.store.ListContainers()
}

// Close releases the underlying Store.
func (p *BoltPersist) Close() error {
	return p.store.Close()
}
