package transport

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/spreadsheet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeProducts is an in-memory ProductService that records bulk calls
type fakeProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	filter   domain.ProductFilter
	sort     domain.StorefrontSort
	created  []service.ProductInput
	prices   []domain.PriceUpdate
	fields   []domain.ProductFieldUpdate
	patch    *service.ProductPatch
	imported string
	err      error
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: map[uuid.UUID]*domain.Product{}}
}

func (f *fakeProducts) add(storeID uuid.UUID, name string, price string) *domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &domain.Product{
		ID:        uuid.New(),
		StoreID:   storeID,
		Name:      name,
		BarCode:   "480" + name,
		Price:     decimal.RequireFromString(price),
		CreatedAt: time.Now(),
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeProducts) inStore(storeID uuid.UUID) []*domain.Product {
	var out []*domain.Product
	for _, p := range f.products {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *fakeProducts) Create(ctx context.Context, storeID uuid.UUID, in service.ProductInput) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	p := f.add(storeID, in.Name, in.Price.String())
	p.BarCode = in.BarCode
	return p, nil
}

func (f *fakeProducts) Update(ctx context.Context, storeID, id uuid.UUID, patch service.ProductPatch) (*domain.Product, error) {
	f.patch = &patch
	p, err := f.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	return p, nil
}

func (f *fakeProducts) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	if _, err := f.Get(ctx, storeID, id); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProducts) Get(ctx context.Context, storeID, id uuid.UUID) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.StoreID != storeID {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProducts) List(ctx context.Context, storeID uuid.UUID, filter domain.ProductFilter) ([]*domain.Product, error) {
	f.filter = filter
	return f.inStore(storeID), f.err
}

func (f *fakeProducts) Storefront(ctx context.Context, storeID uuid.UUID, sort domain.StorefrontSort) ([]*domain.Product, error) {
	f.sort = sort
	return f.inStore(storeID), f.err
}

func (f *fakeProducts) Search(ctx context.Context, storeID uuid.UUID, query string) ([]*domain.Product, error) {
	if query == "" {
		return nil, service.ErrInvalidInput
	}
	return f.inStore(storeID), nil
}

func (f *fakeProducts) LookupBarcodes(ctx context.Context, storeID uuid.UUID, barcodes []string) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range f.inStore(storeID) {
		for _, code := range barcodes {
			if p.BarCode == code {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeProducts) BulkCreate(ctx context.Context, storeID uuid.UUID, inputs []service.ProductInput) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, inputs...)
	return len(inputs), nil
}

func (f *fakeProducts) UpdatePrices(ctx context.Context, storeID uuid.UUID, updates []domain.PriceUpdate) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.prices = append(f.prices, updates...)
	return len(updates), nil
}

func (f *fakeProducts) UpdateFields(ctx context.Context, storeID uuid.UUID, updates []domain.ProductFieldUpdate) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.fields = append(f.fields, updates...)
	return len(updates), nil
}

func (f *fakeProducts) Deactivate(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, id := range ids {
		if p, ok := f.products[id]; ok && p.StoreID == storeID {
			p.IsArchived = true
			count++
		}
	}
	return count, nil
}

func (f *fakeProducts) Import(ctx context.Context, storeID uuid.UUID, format spreadsheet.Format, r io.Reader) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.imported = string(raw)
	return 2, nil
}

func (f *fakeProducts) Export(ctx context.Context, storeID uuid.UUID, format spreadsheet.Format, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "barCode,name\n4801,Hammer\n")
	return err
}

// fakeOrders serves a fixed set of orders and records patches
type fakeOrders struct {
	orders    map[uuid.UUID]*domain.Order
	patchRole string
	checkout  *service.CheckoutInput
	email     string
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[uuid.UUID]*domain.Order{}}
}

func (f *fakeOrders) add(storeID uuid.UUID, client string) *domain.Order {
	o := &domain.Order{ID: uuid.New(), StoreID: storeID, ClientName: client, CreatedAt: time.Now()}
	f.orders[o.ID] = o
	return o
}

func (f *fakeOrders) List(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range f.orders {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) Get(ctx context.Context, storeID, id uuid.UUID) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.StoreID != storeID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrders) Pending(ctx context.Context, storeID uuid.UUID) ([]domain.PendingOrder, error) {
	var out []domain.PendingOrder
	for _, o := range f.orders {
		if o.StoreID == storeID && !o.IsPaid {
			out = append(out, domain.PendingOrder{ID: o.ID, ClientName: o.ClientName})
		}
	}
	return out, nil
}

func (f *fakeOrders) Patch(ctx context.Context, storeID, id uuid.UUID, role string, patch domain.OrderPatch) (*domain.Order, error) {
	f.patchRole = role
	o, err := f.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if patch.TouchesAccounting() && !domain.CanSettleOrders(role) {
		return nil, service.ErrForbidden
	}
	if patch.IsPaid != nil {
		o.IsPaid = *patch.IsPaid
	}
	if patch.OrderStatus != nil {
		o.OrderStatus = *patch.OrderStatus
	}
	return o, nil
}

func (f *fakeOrders) Checkout(ctx context.Context, storeID uuid.UUID, in service.CheckoutInput) (*domain.Order, error) {
	f.checkout = &in
	o := f.add(storeID, in.ClientName)
	o.ClientEmail = in.ClientEmail
	return o, nil
}

func (f *fakeOrders) MyOrders(ctx context.Context, storeID uuid.UUID, email string) ([]*domain.Order, error) {
	f.email = email
	return []*domain.Order{}, nil
}

type fakeReports struct {
	dashboard *domain.Dashboard
	err       error
}

func (f *fakeReports) Dashboard(ctx context.Context, storeID uuid.UUID) (*domain.Dashboard, error) {
	return f.dashboard, f.err
}

func (f *fakeReports) Accounting(ctx context.Context, storeID uuid.UUID) (*domain.AccountingReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AccountingReport{TotalRevenue: f.dashboard.TotalRevenue, TotalOrders: f.dashboard.PaidOrders}, nil
}

// fakeAuth accepts one account and issues fixed tokens
type fakeAuth struct {
	user     *domain.User
	password string
}

func (f *fakeAuth) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	if f.user != nil && f.user.Email == email {
		return nil, service.ErrEmailInUse
	}
	f.user = &domain.User{ID: uuid.New(), Email: email, Name: name, RoleName: domain.RoleUser}
	f.password = password
	return f.user, nil
}

func (f *fakeAuth) VerifyEmail(ctx context.Context, token string) error {
	if token != "good" {
		return service.ErrInvalidToken
	}
	return nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (string, string, *domain.User, error) {
	if f.user == nil || f.user.Email != email || f.password != password {
		return "", "", nil, service.ErrInvalidCredentials
	}
	return "access-" + f.user.ID.String(), "refresh-" + f.user.ID.String(), f.user, nil
}

func (f *fakeAuth) Logout(ctx context.Context, refreshToken string) error {
	return nil
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if f.user == nil || refreshToken != "refresh-"+f.user.ID.String() {
		return "", service.ErrInvalidToken
	}
	return "access-refreshed", nil
}

func (f *fakeAuth) RequestPasswordReset(ctx context.Context, email string) error {
	if f.user == nil || f.user.Email != email {
		return service.ErrEmailNotFound
	}
	return nil
}

func (f *fakeAuth) ResetPassword(ctx context.Context, token, password string) error {
	return nil
}

func (f *fakeAuth) UpdateSettings(ctx context.Context, userID uuid.UUID, in service.SettingsInput) (*domain.User, error) {
	if in.Name != nil {
		f.user.Name = *in.Name
	}
	return f.user, nil
}

func (f *fakeAuth) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if f.user == nil || f.user.ID != userID {
		return nil, repository.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeAuth) ValidateToken(tokenString string) (*service.Claims, error) {
	return service.ParseAccessToken(testSecret, tokenString)
}

type fakeStores map[uuid.UUID]*domain.Store

func (f fakeStores) GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	s, ok := f[id]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	return s, nil
}
