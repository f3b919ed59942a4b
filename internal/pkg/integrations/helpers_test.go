package integrations

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/AdPulseHQ/AdPulse/app/models"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/adplatform"
)

// memRepo is an in-memory IntegrationRepository. Reads return copies so
// tests observe persisted state, not shared pointers.
type memRepo struct {
	mu          sync.Mutex
	nextID      uint
	rows        map[uint]models.Integration
	updateCalls int32
}

func newMemRepo(seed ...models.Integration) *memRepo {
	r := &memRepo{rows: map[uint]models.Integration{}, nextID: 1}
	for _, row := range seed {
		if row.ID == 0 {
			row.ID = r.nextID
		}
		if row.ID >= r.nextID {
			r.nextID = row.ID + 1
		}
		r.rows[row.ID] = row
	}
	return r
}

func (r *memRepo) Create(integration *models.Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == integration.UserID && row.Platform == integration.Platform {
			return gorm.ErrDuplicatedKey
		}
	}
	integration.ID = r.nextID
	r.nextID++
	integration.CreatedAt = time.Now()
	r.rows[integration.ID] = *integration
	return nil
}

func (r *memRepo) GetByID(id uint) (*models.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := row
	return &cp, nil
}

func (r *memRepo) GetByIDAndUserID(id, userID uint) (*models.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := row
	return &cp, nil
}

func (r *memRepo) GetByUserID(userID uint) ([]models.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Integration
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memRepo) GetByUserIDAndPlatform(userID uint, platform string) (*models.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == userID && row.Platform == platform {
			cp := row
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) UpdateTokens(id uint, accessToken, refreshToken string, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	atomic.AddInt32(&r.updateCalls, 1)
	row, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.AccessToken = accessToken
	if refreshToken != "" {
		row.RefreshToken = refreshToken
	}
	row.ExpiresAt = expiresAt
	r.rows[id] = row
	return nil
}

func (r *memRepo) Update(integration *models.Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[integration.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.rows[integration.ID] = *integration
	return nil
}

func (r *memRepo) DeleteByIDAndUserID(id, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

func (r *memRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

// fakeClient is a counting adplatform.Client for the platform it claims.
type fakeClient struct {
	platform     string
	refreshCalls int32
	probeCalls   int32

	refreshFn func(refreshToken string) (*adplatform.Token, error)
	probeFn   func(accessToken string) ([]adplatform.Resource, error)
	exchange  func(code string) (*adplatform.Token, error)
}

func (f *fakeClient) Platform() string            { return f.platform }
func (f *fakeClient) AuthCodeURL(s string) string { return "https://consent.example.com/?state=" + s }

func (f *fakeClient) ExchangeCode(ctx context.Context, code string) (*adplatform.Token, error) {
	if f.exchange != nil {
		return f.exchange(code)
	}
	return &adplatform.Token{AccessToken: "exchanged-" + code, RefreshToken: "rt-" + code, ExpiresIn: 3600}, nil
}

func (f *fakeClient) Refresh(ctx context.Context, refreshToken string) (*adplatform.Token, error) {
	atomic.AddInt32(&f.refreshCalls, 1)
	if f.refreshFn != nil {
		return f.refreshFn(refreshToken)
	}
	return &adplatform.Token{AccessToken: "fresh-token", ExpiresIn: 3600}, nil
}

func (f *fakeClient) Probe(ctx context.Context, accessToken string) ([]adplatform.Resource, error) {
	atomic.AddInt32(&f.probeCalls, 1)
	if f.probeFn != nil {
		return f.probeFn(accessToken)
	}
	return []adplatform.Resource{{ID: "acc-1", Name: "Account One"}}, nil
}

// fakeNonceStore tracks consumed nonces in memory.
type fakeNonceStore struct {
	seen map[string]bool
}

func newFakeNonceStore() *fakeNonceStore {
	return &fakeNonceStore{seen: map[string]bool{}}
}

func (f *fakeNonceStore) Consume(nonce string, _ time.Duration) bool {
	if f.seen[nonce] {
		return false
	}
	f.seen[nonce] = true
	return true
}

// newTestTokenManager bypasses the redis lease so tests exercise the
// in-process path only.
func newTestTokenManager(repo *memRepo, registry *adplatform.Registry) *TokenManager {
	return &TokenManager{
		repo:     repo,
		registry: registry,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
