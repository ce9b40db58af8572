package storage

import (
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketCA         = []byte("ca")
	bucketContainers = []byte("containers")
)

// BoltStore implements Store on top of a single bbolt file. Each container
// gets its own nested bucket under "containers", keyed by property name.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) the daemon's bbolt database
// under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "portod.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCA, bucketContainers} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) SaveProperty(container, name string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		containers := tx.Bucket(bucketContainers)
		b, err := containers.CreateBucketIfNotExists([]byte(container))
		if err != nil {
			return err
		}
		return b.Put([]byte(name), value)
	})
}

func (s *BoltStore) LoadProperties(container string) (map[string][]byte, error) {
	props := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		containers := tx.Bucket(bucketContainers)
		b := containers.Bucket([]byte(container))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			val := make([]byte, len(v))
			copy(val, v)
			props[string(k)] = val
			return nil
		})
	})
	return props, err
}

func (s *BoltStore) DeleteProperty(container, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		containers := tx.Bucket(bucketContainers)
		b := containers.Bucket([]byte(container))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(name))
	})
}

func (s *BoltStore) DeleteContainer(container string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		containers := tx.Bucket(bucketContainers)
		if containers.Bucket([]byte(container)) == nil {
			return nil
		}
		return containers.DeleteBucket([]byte(container))
	})
}

func (s *BoltStore) ListContainers() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		containers := tx.Bucket(bucketContainers)
		return containers.ForEach(func(k, v []byte) error {
			if v == nil { // nested bucket, not a plain key
				names = append(names, string(k))
			}
			return nil
		})
	})
	return names, err
}

func (s *BoltStore) SaveCA(data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCA)
		return b.Put([]byte("ca"), data)
	})
}

func (s *BoltStore) GetCA() ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCA)
		v := b.Get([]byte("ca"))
		if v == nil {
			return fmt.Errorf("CA not found")
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	return data, err
}
