package scan

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	scanBucketName  = "scans"
	priceBucketName = "prices"
)

// DB defines the persistence boundary for scans and price observations
type DB interface {
	// SaveScan saves a scan record
	SaveScan(record *Record) error

	// GetScan retrieves a scan by ID
	GetScan(id string) (*Record, error)

	// ListScans returns all scans
	ListScans() ([]*Record, error)

	// DeleteScan removes a scan and its price rows
	DeleteScan(id string) error

	// SavePriceRows saves the price observations for a scan
	SavePriceRows(scanID string, rows []PriceRow) error

	// GetPriceRows retrieves the price observations for a scan
	GetPriceRows(scanID string) ([]PriceRow, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens (or creates) the database file
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(scanBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(priceBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveScan saves a scan record
func (b *BoltDB) SaveScan(record *Record) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling scan: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetScan retrieves a scan by ID
func (b *BoltDB) GetScan(id string) (*Record, error) {
	var record *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("scan not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListScans returns all scans
func (b *BoltDB) ListScans() ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling scan: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteScan removes a scan and its price rows
func (b *BoltDB) DeleteScan(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(scanBucketName)).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket([]byte(priceBucketName)).Delete([]byte(id))
	})
}

// SavePriceRows saves the price observations for a scan, keyed by scan ID
func (b *BoltDB) SavePriceRows(scanID string, rows []PriceRow) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(priceBucketName))
		data, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("marshaling price rows: %w", err)
		}
		return bucket.Put([]byte(scanID), data)
	})
}

// GetPriceRows retrieves the price observations for a scan
func (b *BoltDB) GetPriceRows(scanID string) ([]PriceRow, error) {
	rows := make([]PriceRow, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(priceBucketName))
		data := bucket.Get([]byte(scanID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
