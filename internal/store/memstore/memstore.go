// Package memstore is an in-memory record store with the same surface as
// the Postgres store. It backs tests and the memory:// development mode.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/safar/store-dashboard/internal/database"
	"github.com/safar/store-dashboard/internal/models"
	"github.com/safar/store-dashboard/internal/store"
)

type Store struct {
	mu          sync.Mutex
	products    map[int64]*models.Product
	orders      map[int64]*models.Order
	memberships map[int64]*models.Membership
	invoices    map[int64]string
	saveErrs    map[int64]error
	nextID      int64
	now         func() time.Time
}

func New() *Store {
	return &Store{
		products:    make(map[int64]*models.Product),
		orders:      make(map[int64]*models.Order),
		memberships: make(map[int64]*models.Membership),
		invoices:    make(map[int64]string),
		saveErrs:    make(map[int64]error),
		nextID:      1,
		now:         time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) allocID(id int64) int64 {
	if id == 0 {
		id = s.nextID
	}
	if id >= s.nextID {
		s.nextID = id + 1
	}
	return id
}

// AddProduct inserts p as-is, assigning an id when p.ID is zero.
func (s *Store) AddProduct(p models.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.allocID(p.ID)
	if p.Status == "" {
		p.Status = models.ProductStatusPublish
	}
	if p.StockStatus == "" {
		p.StockStatus = models.StockStatusInStock
	}
	if p.Version == 0 {
		p.Version = 1
	}
	s.products[p.ID] = p.Clone()
	return p.ID
}

// AddOrder inserts o with its items; item cost data is resolved from the
// product table on read.
func (s *Store) AddOrder(o models.Order) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.allocID(o.ID)
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	for i := range items {
		items[i].OrderID = o.ID
		items[i].ID = int64(i + 1)
		items[i].Product = nil
	}
	o.Items = items
	s.orders[o.ID] = &o
	return o.ID
}

func (s *Store) AddMembership(m models.Membership) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.allocID(m.ID)
	s.memberships[m.ID] = &m
	return m.ID
}

func (s *Store) SetInvoice(orderID int64, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[orderID] = url
}

// FailSaveOn makes every later SaveProduct for id return err.
func (s *Store) FailSaveOn(id int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErrs[id] = err
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, database.ErrProductNotFound
	}
	return p.Clone(), nil
}

func (s *Store) ListProducts(ctx context.Context, status string, page, perPage int) (*store.Page[models.Product], error) {
	all, err := s.ListAllProducts(ctx, status)
	if err != nil {
		return nil, err
	}
	return store.NewPage(slicePage(all, page, perPage), int64(len(all)), page, perPage), nil
}

func (s *Store) ListAllProducts(ctx context.Context, status string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var products []models.Product
	for _, p := range s.products {
		if p.Status == status {
			products = append(products, *p.Clone())
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return newerFirst(products[i].CreatedAt, products[i].ID, products[j].CreatedAt, products[j].ID)
	})
	return products, nil
}

func (s *Store) SaveProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveErrs[p.ID]; err != nil {
		return err
	}
	existing, ok := s.products[p.ID]
	if !ok {
		return database.ErrProductNotFound
	}
	p.Version = existing.Version + 1
	p.UpdatedAt = s.now()
	s.products[p.ID] = p.Clone()
	return nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.allocID(0)
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	p.Version = 1
	s.products[p.ID] = p.Clone()
	return nil
}

func (s *Store) ListOrders(ctx context.Context, page, perPage int) (*store.Page[models.Order], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.sortedOrders(func(*models.Order) bool { return true })
	for i := range orders {
		orders[i].Items = s.resolveItems(orders[i].Items)
	}
	return store.NewPage(slicePage(orders, page, perPage), int64(len(orders)), page, perPage), nil
}

func (s *Store) ListOrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.sortedOrders(func(o *models.Order) bool {
		return !o.CreatedAt.Before(from) && !o.CreatedAt.After(to)
	})
	for i := range orders {
		orders[i].Items = nil
	}
	return orders, nil
}

func (s *Store) sortedOrders(keep func(*models.Order) bool) []models.Order {
	var orders []models.Order
	for _, o := range s.orders {
		if keep(o) {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return newerFirst(orders[i].CreatedAt, orders[i].ID, orders[j].CreatedAt, orders[j].ID)
	})
	return orders
}

func (s *Store) resolveItems(items []models.OrderItem) []models.OrderItem {
	resolved := make([]models.OrderItem, len(items))
	for i, item := range items {
		if p, ok := s.products[item.ProductID]; ok {
			item.Product = &models.ProductCost{CogCost: p.CogCost, OpCost: p.OpCost}
		}
		resolved[i] = item
	}
	return resolved
}

// Memberships exposes the membership collaborator backed by this store.
func (s *Store) Memberships() *Memberships {
	return &Memberships{s: s}
}

// Invoices exposes the invoice collaborator backed by this store.
func (s *Store) Invoices() *Invoices {
	return &Invoices{s: s}
}

type Memberships struct {
	s *Store
}

func (m *Memberships) CountActiveMemberships(ctx context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var count int64
	for _, ms := range m.s.memberships {
		if ms.Status == models.MembershipStatusActive {
			count++
		}
	}
	return count, nil
}

func (m *Memberships) ListActiveMemberships(ctx context.Context, limit int) ([]models.Membership, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var active []models.Membership
	for _, ms := range m.s.memberships {
		if ms.Status == models.MembershipStatusActive {
			active = append(active, *ms)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return newerFirst(active[i].CreatedAt, active[i].ID, active[j].CreatedAt, active[j].ID)
	})
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	return active, nil
}

type Invoices struct {
	s *Store
}

func (i *Invoices) InvoiceURL(ctx context.Context, orderID int64) (string, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	return i.s.invoices[orderID], nil
}

func newerFirst(at time.Time, aID int64, bt time.Time, bID int64) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return aID > bID
}

func slicePage[T any](all []T, page, perPage int) []T {
	start := store.Offset(page, perPage)
	if start >= len(all) {
		return nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
