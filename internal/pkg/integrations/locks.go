package integrations

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/AdPulseHQ/AdPulse/internal/pkg/cache"
)

const refreshLeaseTTL = 30 * time.Second

// keyedMutex serializes work per integration id within this process. Two
// concurrent verifications of the same integration take the same mutex;
// different integrations never contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint]*sync.Mutex)}
}

// Lock acquires the mutex for the given key and returns its unlock func.
func (k *keyedMutex) Lock(key uint) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// refreshLeaser takes a short cross-process lease before a remote refresh
// so horizontally scaled instances do not hammer the token endpoint for the
// same integration at once. The lease is best-effort: the persistence-time
// re-read is what guarantees correctness.
type refreshLeaser interface {
	// Acquire returns a release func when the lease was taken, or false
	// when another holder owns it.
	Acquire(integrationID uint) (func(), bool)
}

// redisLeaser implements refreshLeaser on the shared cache.
type redisLeaser struct{}

func (redisLeaser) Acquire(integrationID uint) (func(), bool) {
	key := fmt.Sprintf("integration_refresh:%d", integrationID)
	nonce := uuid.NewString()

	ok, err := cache.SetNX(key, nonce, refreshLeaseTTL)
	if err != nil {
		// Cache down: fall back to in-process locking only.
		log.Warnf("[Integrations] refresh lease unavailable: %v", err)
		return func() {}, true
	}
	if !ok {
		return nil, false
	}
	return func() {
		// A release after the TTL must not drop a lease another instance
		// has taken in the meantime, so compare the stored nonce first.
		current, err := cache.Get(key)
		if !shouldReleaseLease(current, nonce, err) {
			return
		}
		if err := cache.Delete(key); err != nil {
			log.Warnf("[Integrations] releasing refresh lease failed: %v", err)
		}
	}, true
}

// shouldReleaseLease reports whether the stored lease still belongs to this
// holder. An expired lease reads as missing or as another holder's nonce;
// neither may be deleted.
func shouldReleaseLease(current, nonce string, err error) bool {
	return err == nil && current == nonce
}

// nonceStore marks one-time values as consumed. The OAuth state nonce goes
// through it so a captured callback URL can not be replayed within the
// state token's lifetime.
type nonceStore interface {
	// Consume records the nonce and reports whether this was its first use.
	Consume(nonce string, ttl time.Duration) bool
}

// redisNonceStore implements nonceStore on the shared cache.
type redisNonceStore struct{}

func (redisNonceStore) Consume(nonce string, ttl time.Duration) bool {
	ok, err := cache.SetNX("oauth_state_nonce:"+nonce, 1, ttl)
	if err != nil {
		// Cache down: accept rather than lock users out of connecting.
		log.Warnf("[Integrations] nonce store unavailable: %v", err)
		return true
	}
	return ok
}
