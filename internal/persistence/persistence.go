package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fanforge/fanforged/internal/control"
	"github.com/fanforge/fanforged/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketControl = "control"

	keyActiveConfig = "activeConfig"
)

type Persistence interface {
	Init() error

	LoadControlConfig() (control.ConfigDocument, error)
	SaveControlConfig(doc control.ConfigDocument) (err error)
	DeleteControlConfig() (err error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveControlConfig saves the last applied control config to persistence,
// so the daemon can restore it across restarts.
func (p persistence) SaveControlConfig(doc control.ConfigDocument) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketControl))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		err = b.Put([]byte(keyActiveConfig), data)
		return err
	})
}

// LoadControlConfig loads the last applied control config from persistence.
func (p persistence) LoadControlConfig() (control.ConfigDocument, error) {
	db, err := p.openPersistence()
	if err != nil {
		return control.ConfigDocument{}, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var doc control.ConfigDocument
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketControl))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(keyActiveConfig))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &doc)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved control config: %v", err)
			err := b.Delete([]byte(keyActiveConfig))
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", keyActiveConfig, err)
			}
			return os.ErrNotExist
		}

		return err
	})

	return doc, err
}

func (p persistence) DeleteControlConfig() error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketControl))
		if b == nil {
			// no control bucket yet
			return nil
		}
		v := b.Get([]byte(keyActiveConfig))
		if v == nil {
			// no data for given key
			return nil
		}

		return b.Delete([]byte(keyActiveConfig))
	})
}
