package usecase

import (
	"context"
	"sync"

	"github.com/ddebuut/storefront-api/internal/entity"
)

// In-memory fakes for the storage and provider ports.

type fakeOrderStore struct {
	mu            sync.Mutex
	orders        map[string]*entity.Order
	markPaidCalls int
	markPaidErr   error
	createErr     error
	purchases     map[string]string // userID+"|"+productID -> orderID
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders:    map[string]*entity.Order{},
		purchases: map[string]string{},
	}
}

func (s *fakeOrderStore) Create(_ context.Context, o *entity.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, entity.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) ListByUser(_ context.Context, userID string) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) MarkPaid(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markPaidCalls++
	if s.markPaidErr != nil {
		return false, s.markPaidErr
	}
	o, ok := s.orders[id]
	if !ok || o.Paid {
		return false, nil
	}
	o.Paid = true
	if o.Status == entity.StatusPending {
		o.Status = entity.StatusProcessing
	}
	return true, nil
}

func (s *fakeOrderStore) UpdateStatus(_ context.Context, id string, to entity.FulfillmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return entity.ErrOrderNotFound
	}
	o.Status = to
	return nil
}

func (s *fakeOrderStore) FindPurchase(_ context.Context, userID, productID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.purchases[userID+"|"+productID]; ok {
		return id, nil
	}
	return "", entity.ErrOrderNotFound
}

type fakePaymentStore struct {
	mu        sync.Mutex
	bySession map[string]*entity.PaymentTransaction
	unsettled []entity.PaymentTransaction
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{bySession: map[string]*entity.PaymentTransaction{}}
}

func (s *fakePaymentStore) Create(_ context.Context, tx *entity.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tx
	s.bySession[tx.SessionID] = &cp
	return nil
}

func (s *fakePaymentStore) GetBySessionID(_ context.Context, sessionID string) (*entity.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.bySession[sessionID]
	if !ok {
		return nil, entity.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *fakePaymentStore) TransitionFromPending(_ context.Context, sessionID string, to entity.PaymentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.bySession[sessionID]
	if !ok || tx.Status != entity.PaymentPending {
		return false, nil
	}
	tx.Status = to
	return true, nil
}

func (s *fakePaymentStore) ListPaidUnsettled(_ context.Context, limit int) ([]entity.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.unsettled) > limit {
		return s.unsettled[:limit], nil
	}
	return s.unsettled, nil
}

type fakeReviewStore struct {
	mu        sync.Mutex
	reviews   []entity.Review
	createErr error
}

func (s *fakeReviewStore) Create(_ context.Context, r *entity.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, ex := range s.reviews {
		if ex.UserID == r.UserID && ex.ProductID == r.ProductID {
			return entity.ErrDuplicateReview
		}
	}
	s.reviews = append(s.reviews, *r)
	return nil
}

func (s *fakeReviewStore) ExistsForUserProduct(_ context.Context, userID, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.UserID == userID && r.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeReviewStore) ListByProduct(_ context.Context, productID string) ([]entity.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Review
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeProductDirectory struct {
	products map[string]*entity.Product // keyed by id and slug
}

func (d *fakeProductDirectory) Resolve(_ context.Context, ref string) (*entity.Product, error) {
	if p, ok := d.products[ref]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, entity.ErrProductNotFound
}

type fakeProvider struct {
	createInput *CreateSessionInput
	session     *ProviderSession
	err         error
}

func (p *fakeProvider) CreateSession(_ context.Context, in CreateSessionInput) (*ProviderSession, error) {
	p.createInput = &in
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func (p *fakeProvider) GetSession(_ context.Context, _ string) (*ProviderSession, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	created   []OrderCreatedEvent
	confirmed []PaymentConfirmedEvent
	err       error
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, ev OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.created = append(p.created, ev)
	return nil
}

func (p *fakePublisher) PublishPaymentConfirmed(_ context.Context, ev PaymentConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.confirmed = append(p.confirmed, ev)
	return nil
}

type fakeIdemStore struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{locks: map[string]bool{}, values: map[string]string{}}
}

func (s *fakeIdemStore) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + "|" + key
	if s.locks[k] {
		return false, nil
	}
	s.locks[k] = true
	return true, nil
}

func (s *fakeIdemStore) Unlock(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, scope+"|"+key)
	return nil
}

func (s *fakeIdemStore) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope+"|"+key] = value
	return nil
}

func (s *fakeIdemStore) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[scope+"|"+key]
	return v, ok, nil
}
