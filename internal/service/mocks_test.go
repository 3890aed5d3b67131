package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/mail"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.User, error) {
	users := []*domain.User{}
	for _, user := range m.users {
		if user.BelongsTo(storeID) {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	for email, existing := range m.users {
		if existing.ID == user.ID {
			delete(m.users, email)
			m.users[user.Email] = user
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) MarkEmailVerified(ctx context.Context, email string, at time.Time) error {
	user, exists := m.users[email]
	if !exists {
		return repository.ErrUserNotFound
	}
	user.EmailVerified = &at
	return nil
}

// verify marks a registered user verified so login succeeds
func (m *mockUserRepository) verify(email string) {
	now := time.Now()
	m.users[email].EmailVerified = &now
}

type mockRoleRepository struct {
	roles []*domain.Role
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{roles: []*domain.Role{
		{ID: uuid.New(), Name: domain.RoleAdministrator},
		{ID: uuid.New(), Name: domain.RoleAcctg},
		{ID: uuid.New(), Name: domain.RoleUser},
	}}
}

func (m *mockRoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	return m.roles, nil
}

func (m *mockRoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, repository.ErrRoleNotFound
}

func (m *mockRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	for _, r := range m.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrRoleNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

type mockEmailTokenRepository struct {
	tokens map[string]*domain.EmailToken
}

func newMockEmailTokenRepository() *mockEmailTokenRepository {
	return &mockEmailTokenRepository{tokens: make(map[string]*domain.EmailToken)}
}

func (m *mockEmailTokenRepository) Create(ctx context.Context, token *domain.EmailToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockEmailTokenRepository) FindByToken(ctx context.Context, token string) (*domain.EmailToken, error) {
	t, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrEmailTokenNotFound
	}
	return t, nil
}

func (m *mockEmailTokenRepository) DeleteByEmail(ctx context.Context, email string) error {
	for k, t := range m.tokens {
		if t.Email == email {
			delete(m.tokens, k)
		}
	}
	return nil
}

func (m *mockEmailTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for k, t := range m.tokens {
		if t.ID == id {
			delete(m.tokens, k)
			return nil
		}
	}
	return repository.ErrEmailTokenNotFound
}

// latest returns the token issued for email
func (m *mockEmailTokenRepository) latest(email string) *domain.EmailToken {
	for _, t := range m.tokens {
		if t.Email == email {
			return t
		}
	}
	return nil
}

type mockSessions struct {
	alive map[string]string
}

func newMockSessions() *mockSessions {
	return &mockSessions{alive: make(map[string]string)}
}

func (m *mockSessions) Start(ctx context.Context, sessionID, userID string) error {
	m.alive[sessionID] = userID
	return nil
}

func (m *mockSessions) Touch(ctx context.Context, sessionID string) (bool, error) {
	_, ok := m.alive[sessionID]
	return ok, nil
}

func (m *mockSessions) End(ctx context.Context, sessionID string) error {
	delete(m.alive, sessionID)
	return nil
}

type mockMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	fail error
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

type publishedEvent struct {
	subject string
	event   interface{}
}

type mockPublisher struct {
	events []publishedEvent
	fail   bool
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if m.fail {
		return errors.New("broker unavailable")
	}
	m.events = append(m.events, publishedEvent{subject, event})
	return nil
}

func (m *mockPublisher) Close() {}

func (m *mockPublisher) subjects() []string {
	out := []string{}
	for _, e := range m.events {
		out = append(out, e.subject)
	}
	return out
}

type mockStoreRepository struct {
	stores map[uuid.UUID]*domain.Store
}

func newMockStoreRepository() *mockStoreRepository {
	return &mockStoreRepository{stores: make(map[uuid.UUID]*domain.Store)}
}

func (m *mockStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	m.stores[store.ID] = store
	return nil
}

func (m *mockStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	store, ok := m.stores[id]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	return store, nil
}

func (m *mockStoreRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) (*domain.Store, error) {
	store, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	store.Name = name
	return store, nil
}

func (m *mockStoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	out := []*domain.Store{}
	for _, s := range m.stores {
		out = append(out, s)
	}
	return out, nil
}

// mockCatalogRepository stores any catalog entity keyed by id
type mockCatalogRepository[T domain.Scoped] struct {
	rows map[uuid.UUID]T
}

func newMockCatalogRepository[T domain.Scoped]() *mockCatalogRepository[T] {
	return &mockCatalogRepository[T]{rows: make(map[uuid.UUID]T)}
}

func (m *mockCatalogRepository[T]) Create(ctx context.Context, entity T) error {
	m.rows[entity.Record().ID] = entity
	return nil
}

func (m *mockCatalogRepository[T]) Update(ctx context.Context, entity T) error {
	rec := entity.Record()
	existing, ok := m.rows[rec.ID]
	if !ok || existing.Record().StoreID != rec.StoreID {
		return repository.ErrNotFound
	}
	rec.CreatedAt = existing.Record().CreatedAt
	m.rows[rec.ID] = entity
	return nil
}

func (m *mockCatalogRepository[T]) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	existing, ok := m.rows[id]
	if !ok || existing.Record().StoreID != storeID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockCatalogRepository[T]) FindByID(ctx context.Context, storeID, id uuid.UUID) (T, error) {
	existing, ok := m.rows[id]
	if !ok || existing.Record().StoreID != storeID {
		var zero T
		return zero, repository.ErrNotFound
	}
	return existing, nil
}

func (m *mockCatalogRepository[T]) ListByStore(ctx context.Context, storeID uuid.UUID) ([]T, error) {
	out := []T{}
	for _, row := range m.rows {
		if row.Record().StoreID == storeID {
			out = append(out, row)
		}
	}
	return out, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	failNext error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) add(p *domain.Product) *domain.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepository) owned(storeID, id uuid.UUID) (*domain.Product, bool) {
	p, ok := m.products[id]
	if !ok || p.StoreID != storeID {
		return nil, false
	}
	return p, true
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) CreateMany(ctx context.Context, products []*domain.Product) error {
	if m.failNext != nil {
		return m.failNext
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product, replaceImages bool) error {
	if _, ok := m.owned(product.StoreID, product.ID); !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	if _, ok := m.owned(storeID, id); !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.owned(storeID, id)
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, id := range ids {
		if p, ok := m.owned(storeID, id); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) List(ctx context.Context, storeID uuid.UUID, filter domain.ProductFilter) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range m.products {
		if p.StoreID == storeID && p.IsArchived == filter.Archived {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) Search(ctx context.Context, storeID uuid.UUID, query string, limit int) ([]*domain.Product, error) {
	return m.List(ctx, storeID, domain.ProductFilter{})
}

func (m *mockProductRepository) FindByBarcodes(ctx context.Context, storeID uuid.UUID, barcodes []string) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range m.products {
		for _, b := range barcodes {
			if p.StoreID == storeID && p.BarCode == b {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *mockProductRepository) ListStorefront(ctx context.Context, storeID uuid.UUID, sort domain.StorefrontSort) ([]*domain.Product, error) {
	return m.List(ctx, storeID, domain.ProductFilter{})
}

func (m *mockProductRepository) UpdatePrices(ctx context.Context, storeID uuid.UUID, updates []domain.PriceUpdate) (int, error) {
	for _, u := range updates {
		if _, ok := m.owned(storeID, u.ID); !ok {
			return 0, repository.ErrProductNotFound
		}
	}
	for _, u := range updates {
		m.products[u.ID].Price = u.Price
	}
	return len(updates), nil
}

func (m *mockProductRepository) UpdateFields(ctx context.Context, storeID uuid.UUID, updates []domain.ProductFieldUpdate) (int, error) {
	for _, u := range updates {
		if _, ok := m.owned(storeID, u.ID); !ok {
			return 0, repository.ErrProductNotFound
		}
	}
	for i := range updates {
		if err := applyFieldUpdate(m.products[updates[i].ID], &updates[i]); err != nil {
			return 0, err
		}
	}
	return len(updates), nil
}

func (m *mockProductRepository) Archive(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (int, error) {
	count := 0
	for _, id := range ids {
		if p, ok := m.owned(storeID, id); ok {
			p.IsArchived = true
			count++
		}
	}
	return count, nil
}

func (m *mockProductRepository) Count(ctx context.Context, storeID uuid.UUID, activeOnly bool) (int, error) {
	count := 0
	for _, p := range m.products {
		if p.StoreID == storeID && (!activeOnly || !p.IsArchived) {
			count++
		}
	}
	return count, nil
}

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.StoreID != storeID {
		return nil, repository.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (m *mockOrderRepository) filter(storeID uuid.UUID, keep func(*domain.Order) bool) []*domain.Order {
	out := []*domain.Order{}
	for _, o := range m.orders {
		if o.StoreID == storeID && keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func (m *mockOrderRepository) List(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error) {
	return m.filter(storeID, func(*domain.Order) bool { return true }), nil
}

func (m *mockOrderRepository) ListByClientEmail(ctx context.Context, storeID uuid.UUID, email string) ([]*domain.Order, error) {
	return m.filter(storeID, func(o *domain.Order) bool { return o.ClientEmail == email }), nil
}

func (m *mockOrderRepository) ListPaid(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error) {
	return m.filter(storeID, func(o *domain.Order) bool { return o.IsPaid }), nil
}

func (m *mockOrderRepository) ListPending(ctx context.Context, storeID uuid.UUID) ([]domain.PendingOrder, error) {
	out := []domain.PendingOrder{}
	for _, o := range m.filter(storeID, func(o *domain.Order) bool { return !o.IsPaid }) {
		out = append(out, domain.PendingOrder{ID: o.ID, ClientName: o.ClientName, ClientEmail: o.ClientEmail})
	}
	return out, nil
}

func (m *mockOrderRepository) Counts(ctx context.Context, storeID uuid.UUID) (domain.OrderCounts, error) {
	var c domain.OrderCounts
	for _, o := range m.filter(storeID, func(*domain.Order) bool { return true }) {
		if o.IsPaid {
			c.Paid++
		} else {
			c.Pending++
		}
		if o.OrderStatus {
			c.Delivered++
		}
	}
	return c, nil
}

func (m *mockOrderRepository) Patch(ctx context.Context, storeID, id uuid.UUID, patch domain.OrderPatch) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.StoreID != storeID {
		return nil, repository.ErrOrderNotFound
	}
	if patch.IsPaid != nil {
		o.IsPaid = *patch.IsPaid
	}
	if patch.AcctgRemarks != nil {
		o.AcctgRemarks = *patch.AcctgRemarks
	}
	if patch.AcctgAttachedURL != nil {
		o.AcctgAttachedURL = *patch.AcctgAttachedURL
	}
	if patch.OrderStatus != nil {
		o.OrderStatus = *patch.OrderStatus
	}
	if patch.StoreRemarks != nil {
		o.StoreRemarks = *patch.StoreRemarks
	}
	if patch.StoreAttachedURL != nil {
		o.StoreAttachedURL = *patch.StoreAttachedURL
	}
	copied := *o
	return &copied, nil
}
