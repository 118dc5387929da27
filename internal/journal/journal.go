// Package journal records checkouts that are in flight so a crash between the stock
// write and the transaction append leaves a marker an operator can reconcile.
package journal

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var bucketPending = []byte("pending_checkouts")

// Stage how far a checkout got before its marker was last written
type Stage string

const (
	StagePending        Stage = "pending"
	StageStockCommitted Stage = "stock_committed"
)

// Entry one checkout marker
type Entry struct {
	ID        string            `json:"id"`
	Stage     Stage             `json:"stage"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Cashier   string            `json:"cashier"`
	Items     []domain.LineItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	Error     string            `json:"error,omitempty"`
}

// Journal a bbolt file of pending checkout markers
type Journal struct {
	db *bolt.DB
}

// Open opens or creates the journal file
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create journal dir")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPending)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init journal bucket")
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Path() string {
	return j.db.Path()
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin stores a new pending marker and returns its id
func (j *Journal) Begin(cashier string, items []domain.LineItem, total decimal.Decimal) (string, error) {
	var id string
	err := j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		now := time.Now()
		entry := Entry{
			ID:        strconv.FormatUint(seq, 10),
			Stage:     StagePending,
			CreatedAt: now,
			UpdatedAt: now,
			Cashier:   cashier,
			Items:     items,
			Total:     total,
		}
		id = entry.ID
		return put(b, seq, entry)
	})
	if err != nil {
		return "", errors.Wrap(err, "journal begin")
	}
	return id, nil
}

// Advance moves a marker to stage and records the error that stopped it, if any
func (j *Journal) Advance(id string, stage Stage, cause error) error {
	seq, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "journal marker id %q", id)
	}
	err = j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		data := b.Get(key(seq))
		if data == nil {
			return errors.Errorf("marker %s not found", id)
		}
		var entry Entry
		if err := jsoniter.Unmarshal(data, &entry); err != nil {
			return err
		}
		entry.Stage = stage
		entry.UpdatedAt = time.Now()
		if cause != nil {
			entry.Error = cause.Error()
		}
		return put(b, seq, entry)
	})
	return errors.Wrap(err, "journal advance")
}

// Commit removes a marker once its checkout is fully persisted, or abandoned before
// anything was written
func (j *Journal) Commit(id string) error {
	seq, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "journal marker id %q", id)
	}
	err = j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPending).Delete(key(seq))
	})
	return errors.Wrap(err, "journal commit")
}

// Pending lists surviving markers, oldest first
func (j *Journal) Pending() ([]Entry, error) {
	entries := make([]Entry, 0)
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPending).ForEach(func(_, v []byte) error {
			var entry Entry
			if err := jsoniter.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "journal pending")
	}
	return entries, nil
}

func put(b *bolt.Bucket, seq uint64, entry Entry) error {
	data, err := jsoniter.Marshal(entry)
	if err != nil {
		return err
	}
	return b.Put(key(seq), data)
}

// big-endian keys keep ForEach in creation order
func key(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
