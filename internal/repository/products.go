package repository

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/flatfile"
)

// ProductHeader column layout of the products file
var ProductHeader = []string{"id", "name", "price", "stock", "created_at"}

// legacyProductHeader is the Indonesian column layout of older stok.txt files
var legacyProductHeader = []string{"id", "nama", "harga", "stok", "created_at"}

type productRecord struct {
	ID        string `csv:"id"`
	Name      string `csv:"name"`
	Price     string `csv:"price"`
	Stock     string `csv:"stock"`
	CreatedAt string `csv:"created_at"`
}

func (r productRecord) toProduct(line int) (domain.Product, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
	if err != nil || id <= 0 {
		return domain.Product{}, errors.Errorf("record %d: invalid id %q", line, r.ID)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil || price.IsNegative() {
		return domain.Product{}, errors.Errorf("record %d: invalid price %q", line, r.Price)
	}
	stock, err := strconv.Atoi(strings.TrimSpace(r.Stock))
	if err != nil || stock < 0 {
		return domain.Product{}, errors.Errorf("record %d: invalid stock %q", line, r.Stock)
	}
	if err := domain.ValidateText("name", r.Name, true); err != nil {
		return domain.Product{}, errors.Wrapf(err, "record %d", line)
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Product{}, errors.Wrapf(err, "record %d", line)
	}
	return domain.Product{
		ID:        id,
		Name:      r.Name,
		Price:     price,
		Stock:     stock,
		CreatedAt: createdAt,
	}, nil
}

func newProductRecord(p domain.Product) productRecord {
	return productRecord{
		ID:        strconv.FormatInt(p.ID, 10),
		Name:      p.Name,
		Price:     p.Price.String(),
		Stock:     strconv.Itoa(p.Stock),
		CreatedAt: formatTime(p.CreatedAt),
	}
}

// ProductRepository owns the products file. Every operation reads the full file and
// mutations rewrite it whole.
type ProductRepository struct {
	store *flatfile.Store[productRecord]
	now   func() time.Time
}

func NewProductRepository(path string) *ProductRepository {
	return &ProductRepository{
		store: flatfile.New[productRecord](path, ProductHeader...).WithHeaderAlias(legacyProductHeader...),
		now:   time.Now,
	}
}

// WithClock replaces the clock used for created_at
func (r *ProductRepository) WithClock(now func() time.Time) *ProductRepository {
	r.now = now
	return r
}

func (r *ProductRepository) Path() string {
	return r.store.Path()
}

func (r *ProductRepository) EnsureFile() error {
	return r.store.EnsureFile()
}

// List returns products in file order
func (r *ProductRepository) List() ([]domain.Product, error) {
	records, err := r.store.ReadAll()
	if err != nil {
		return nil, err
	}
	return r.decode(records)
}

func (r *ProductRepository) Get(id int64) (domain.Product, error) {
	products, err := r.List()
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.NewNotFoundError("product", id)
}

// Create assigns id = max(existing ids) + 1 and stamps created_at
func (r *ProductRepository) Create(in domain.ProductCreate) (domain.Product, error) {
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	var created domain.Product
	err := r.mutate(func(products []domain.Product) ([]domain.Product, error) {
		var maxID int64
		for _, p := range products {
			if p.ID > maxID {
				maxID = p.ID
			}
		}
		created = domain.Product{
			ID:        maxID + 1,
			Name:      in.Name,
			Price:     in.Price,
			Stock:     in.Stock,
			CreatedAt: r.now(),
		}
		return append(products, created), nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return created, nil
}

// Update merges the present fields; created_at is left untouched
func (r *ProductRepository) Update(id int64, u domain.ProductUpdate) (domain.Product, error) {
	if err := u.Validate(); err != nil {
		return domain.Product{}, err
	}
	var updated domain.Product
	err := r.mutate(func(products []domain.Product) ([]domain.Product, error) {
		idx := indexOf(products, id)
		if idx < 0 {
			return nil, domain.NewNotFoundError("product", id)
		}
		u.Apply(&products[idx])
		updated = products[idx]
		return products, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return updated, nil
}

func (r *ProductRepository) Delete(id int64) error {
	return r.mutate(func(products []domain.Product) ([]domain.Product, error) {
		idx := indexOf(products, id)
		if idx < 0 {
			return nil, domain.NewNotFoundError("product", id)
		}
		return append(products[:idx], products[idx+1:]...), nil
	})
}

// DecrementStock subtracts the given quantities in one read-modify-write. Every
// quantity is checked against the stock read inside the cycle; if any product is
// missing or would go negative nothing is written. The affected products are
// returned with their new stock, in file order.
func (r *ProductRepository) DecrementStock(quantities map[int64]int) ([]domain.Product, error) {
	var changed []domain.Product
	err := r.mutate(func(products []domain.Product) ([]domain.Product, error) {
		for id, qty := range quantities {
			idx := indexOf(products, id)
			if idx < 0 {
				return nil, domain.NewNotFoundError("product", id)
			}
			if qty <= 0 {
				return nil, domain.NewValidationError("qty", "qty must be at least 1")
			}
			if p := products[idx]; qty > p.Stock {
				return nil, &domain.InsufficientStockError{
					ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: qty,
				}
			}
		}
		changed = changed[:0]
		for i := range products {
			if qty, ok := quantities[products[i].ID]; ok {
				products[i].Stock -= qty
				changed = append(changed, products[i])
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// AddStock restocks one product
func (r *ProductRepository) AddStock(id int64, qty int) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, domain.NewValidationError("qty", "qty must be at least 1")
	}
	var updated domain.Product
	err := r.mutate(func(products []domain.Product) ([]domain.Product, error) {
		idx := indexOf(products, id)
		if idx < 0 {
			return nil, domain.NewNotFoundError("product", id)
		}
		products[idx].Stock += qty
		updated = products[idx]
		return products, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return updated, nil
}

func (r *ProductRepository) mutate(fn func([]domain.Product) ([]domain.Product, error)) error {
	return r.store.Update(func(records []productRecord) ([]productRecord, error) {
		products, err := r.decode(records)
		if err != nil {
			return nil, err
		}
		products, err = fn(products)
		if err != nil {
			return nil, err
		}
		out := make([]productRecord, 0, len(products))
		for _, p := range products {
			out = append(out, newProductRecord(p))
		}
		return out, nil
	})
}

func (r *ProductRepository) decode(records []productRecord) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for i, rec := range records {
		p, err := rec.toProduct(i + 1)
		if err != nil {
			return nil, domain.NewStorageError("parse", r.store.Path(), err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, domain.NewStorageError("parse", r.store.Path(),
				errors.Errorf("record %d: duplicate id %d", i+1, p.ID))
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}
	return products, nil
}

func indexOf(products []domain.Product, id int64) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
