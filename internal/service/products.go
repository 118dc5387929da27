package service

import (
	"sort"
	"strings"
	"sync"

	"github.com/talkincode/toughpos/internal/domain"
	"go.uber.org/zap"
)

// ProductService validates catalog changes and serves the read views of the catalog
type ProductService struct {
	repo      ProductStore
	threshold int
	mu        sync.Mutex // serializes the duplicate-name check with the write
}

func NewProductService(repo ProductStore, lowStockThreshold int) *ProductService {
	return &ProductService{repo: repo, threshold: lowStockThreshold}
}

func (s *ProductService) Threshold() int {
	return s.threshold
}

// List returns all products ordered by name, case-insensitively
func (s *ProductService) List() ([]domain.Product, error) {
	products, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	sortByName(products)
	return products, nil
}

// Search returns products whose name contains q, ignoring case. An empty query lists all.
func (s *ProductService) Search(q string) ([]domain.Product, error) {
	products, err := s.List()
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return products, nil
	}
	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *ProductService) Get(id int64) (domain.Product, error) {
	return s.repo.Get(id)
}

func (s *ProductService) Create(in domain.ProductCreate) (domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkDuplicate(in.Name, 0); err != nil {
		return domain.Product{}, err
	}
	p, err := s.repo.Create(in)
	if err != nil {
		return domain.Product{}, err
	}
	zap.L().Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *ProductService) Update(id int64, u domain.ProductUpdate) (domain.Product, error) {
	if u.Empty() {
		return domain.Product{}, domain.NewValidationError("", "no fields to update")
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
	}
	if err := u.Validate(); err != nil {
		return domain.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Name != nil {
		if err := s.checkDuplicate(*u.Name, id); err != nil {
			return domain.Product{}, err
		}
	}
	p, err := s.repo.Update(id, u)
	if err != nil {
		return domain.Product{}, err
	}
	zap.L().Info("product updated", zap.Int64("id", p.ID))
	return p, nil
}

func (s *ProductService) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	zap.L().Info("product deleted", zap.Int64("id", id))
	return nil
}

// AddStock restocks a product
func (s *ProductService) AddStock(id int64, qty int) (domain.Product, error) {
	return s.repo.AddStock(id, qty)
}

// LowStock returns products below the threshold, lowest stock first
func (s *ProductService) LowStock() ([]domain.Product, error) {
	products, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	return filterLowStock(products, s.threshold), nil
}

func (s *ProductService) checkDuplicate(name string, exceptID int64) error {
	products, err := s.repo.List()
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.ID != exceptID && strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return domain.NewValidationError("name", "a product named \""+p.Name+"\" already exists")
		}
	}
	return nil
}

func filterLowStock(products []domain.Product, threshold int) []domain.Product {
	low := make([]domain.Product, 0)
	for _, p := range products {
		if p.IsLowStock(threshold) {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		if low[i].Stock != low[j].Stock {
			return low[i].Stock < low[j].Stock
		}
		return strings.ToLower(low[i].Name) < strings.ToLower(low[j].Name)
	})
	return low
}

func sortByName(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
		if a != b {
			return a < b
		}
		return products[i].ID < products[j].ID
	})
}
