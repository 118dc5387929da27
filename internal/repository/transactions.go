package repository

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/flatfile"
)

// TransactionHeader column layout of the transactions file
var TransactionHeader = []string{"id", "timestamp", "items_json", "total", "cashier"}

var (
	itemCodec     = jsoniter.ConfigCompatibleWithStandardLibrary
	transactionID = regexp.MustCompile(`^` + domain.TransactionIDPrefix + `(\d+)$`)
)

type transactionRecord struct {
	ID        string `csv:"id"`
	Timestamp string `csv:"timestamp"`
	ItemsJSON string `csv:"items_json"`
	Total     string `csv:"total"`
	Cashier   string `csv:"cashier"`
}

// itemJSON is the on-disk shape of a line item inside items_json.
// Amounts are kept as JSON numbers.
type itemJSON struct {
	ProductID int64       `json:"product_id"`
	Nama      string      `json:"nama"`
	Qty       int         `json:"qty"`
	Harga     json.Number `json:"harga"`
	Subtotal  json.Number `json:"subtotal"`
}

func encodeItems(items []domain.LineItem) (string, error) {
	rows := make([]itemJSON, 0, len(items))
	for _, it := range items {
		rows = append(rows, itemJSON{
			ProductID: it.ProductID,
			Nama:      it.Name,
			Qty:       it.Qty,
			Harga:     json.Number(it.UnitPrice.String()),
			Subtotal:  json.Number(it.Subtotal.String()),
		})
	}
	data, err := itemCodec.Marshal(rows)
	if err != nil {
		return "", errors.Wrap(err, "encode items")
	}
	return string(data), nil
}

func decodeItems(s string) ([]domain.LineItem, error) {
	var rows []itemJSON
	if err := itemCodec.UnmarshalFromString(s, &rows); err != nil {
		return nil, errors.Wrap(err, "decode items")
	}
	items := make([]domain.LineItem, 0, len(rows))
	for i, row := range rows {
		price, err := decimal.NewFromString(row.Harga.String())
		if err != nil {
			return nil, errors.Errorf("item %d: invalid harga %q", i+1, row.Harga)
		}
		subtotal, err := decimal.NewFromString(row.Subtotal.String())
		if err != nil {
			return nil, errors.Errorf("item %d: invalid subtotal %q", i+1, row.Subtotal)
		}
		items = append(items, domain.LineItem{
			ProductID: row.ProductID,
			Name:      row.Nama,
			Qty:       row.Qty,
			UnitPrice: price,
			Subtotal:  subtotal,
		})
	}
	return items, nil
}

func (r transactionRecord) toTransaction(line int) (domain.Transaction, error) {
	if !transactionID.MatchString(r.ID) {
		return domain.Transaction{}, errors.Errorf("record %d: invalid id %q", line, r.ID)
	}
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return domain.Transaction{}, errors.Wrapf(err, "record %d", line)
	}
	items, err := decodeItems(r.ItemsJSON)
	if err != nil {
		return domain.Transaction{}, errors.Wrapf(err, "record %d", line)
	}
	total, err := decimal.NewFromString(strings.TrimSpace(r.Total))
	if err != nil {
		return domain.Transaction{}, errors.Errorf("record %d: invalid total %q", line, r.Total)
	}
	return domain.Transaction{
		ID:        r.ID,
		Timestamp: ts,
		Items:     items,
		Total:     total,
		Cashier:   r.Cashier,
	}, nil
}

func newTransactionRecord(t domain.Transaction) (transactionRecord, error) {
	items, err := encodeItems(t.Items)
	if err != nil {
		return transactionRecord{}, err
	}
	return transactionRecord{
		ID:        t.ID,
		Timestamp: formatTime(t.Timestamp),
		ItemsJSON: items,
		Total:     t.Total.String(),
		Cashier:   t.Cashier,
	}, nil
}

// FormatTransactionID renders the n-th transaction id, zero padded to three digits
func FormatTransactionID(n int) string {
	return fmt.Sprintf("%s%03d", domain.TransactionIDPrefix, n)
}

// TransactionRepository owns the transactions file. Records are append-only.
type TransactionRepository struct {
	store *flatfile.Store[transactionRecord]
}

func NewTransactionRepository(path string) *TransactionRepository {
	return &TransactionRepository{
		store: flatfile.New[transactionRecord](path, TransactionHeader...),
	}
}

func (r *TransactionRepository) Path() string {
	return r.store.Path()
}

func (r *TransactionRepository) EnsureFile() error {
	return r.store.EnsureFile()
}

// List returns transactions in file order
func (r *TransactionRepository) List() ([]domain.Transaction, error) {
	records, err := r.store.ReadAll()
	if err != nil {
		return nil, err
	}
	txs, _, err := r.decode(records)
	return txs, err
}

func (r *TransactionRepository) Get(id string) (domain.Transaction, error) {
	txs, err := r.List()
	if err != nil {
		return domain.Transaction{}, err
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Transaction{}, domain.NewNotFoundError("transaction", id)
}

// Create appends tx under the next sequential id and returns it. The id field of tx
// is ignored.
func (r *TransactionRepository) Create(tx domain.Transaction) (domain.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, err
	}

	err := r.store.Update(func(records []transactionRecord) ([]transactionRecord, error) {
		_, maxSeq, err := r.decode(records)
		if err != nil {
			return nil, err
		}
		tx.ID = FormatTransactionID(maxSeq + 1)
		rec, err := newTransactionRecord(tx)
		if err != nil {
			return nil, domain.NewStorageError("encode", r.store.Path(), err)
		}
		return append(records, rec), nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// decode parses every record and reports the highest id counter seen
func (r *TransactionRepository) decode(records []transactionRecord) ([]domain.Transaction, int, error) {
	txs := make([]domain.Transaction, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	maxSeq := 0
	for i, rec := range records {
		t, err := rec.toTransaction(i + 1)
		if err != nil {
			return nil, 0, domain.NewStorageError("parse", r.store.Path(), err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, 0, domain.NewStorageError("parse", r.store.Path(),
				errors.Errorf("record %d: duplicate id %s", i+1, t.ID))
		}
		seen[t.ID] = struct{}{}
		seq, err := strconv.Atoi(strings.TrimPrefix(t.ID, domain.TransactionIDPrefix))
		if err != nil {
			return nil, 0, domain.NewStorageError("parse", r.store.Path(),
				errors.Errorf("record %d: id counter out of range %s", i+1, t.ID))
		}
		if seq > maxSeq {
			maxSeq = seq
		}
		txs = append(txs, t)
	}
	return txs, maxSeq, nil
}
