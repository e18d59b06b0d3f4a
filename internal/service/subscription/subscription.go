// Package subscription keeps the list of addresses that opted out of news
// mail. Opt-outs arrive through signed links so nobody can unsubscribe an
// address they do not own.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/usegalaxy-au/galaxy_web/pkg/crypto"
)

// SetKey is the Redis set holding unsubscribed addresses.
const SetKey = "galaxy:unsubscribed"

// Set is the subset of Redis set commands the service uses.
type Set interface {
	Add(ctx context.Context, member string) error
	Contains(ctx context.Context, member string) (bool, error)
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Unsubscribe records addr when token was issued for it.
	Unsubscribe(ctx context.Context, addr, token string) error
	IsUnsubscribed(ctx context.Context, addr string) (bool, error)
	// Link returns the absolute unsubscribe URL for addr.
	Link(scheme, hostname, addr string) string
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type subscriptionService struct {
	set    Set
	signer *crypto.Signer
	log    *slog.Logger
}

func New(set Set, signer *crypto.Signer, log *slog.Logger) Service {
	return &subscriptionService{set: set, signer: signer, log: log}
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, addr, token string) error {
	addr = normalise(addr)
	if addr == "" {
		return ErrNoEmail
	}
	if err := s.signer.Verify(addr, token); err != nil {
		if errors.Is(err, crypto.ErrInvalidToken) {
			return ErrInvalidLink
		}
		return err
	}
	if err := s.set.Add(ctx, addr); err != nil {
		return fmt.Errorf("record unsubscribe: %w", err)
	}
	s.log.InfoContext(ctx, "address unsubscribed", "email", addr)
	return nil
}

func (s *subscriptionService) IsUnsubscribed(ctx context.Context, addr string) (bool, error) {
	addr = normalise(addr)
	if addr == "" {
		return false, ErrNoEmail
	}
	return s.set.Contains(ctx, addr)
}

func (s *subscriptionService) Link(scheme, hostname, addr string) string {
	q := url.Values{}
	q.Set("email", normalise(addr))
	q.Set("token", s.signer.Sign(addr))
	u := url.URL{Scheme: scheme, Host: hostname, Path: "/unsubscribe", RawQuery: q.Encode()}
	return u.String()
}

func normalise(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// RedisSet stores members in one Redis set.
type RedisSet struct {
	rdb *goredis.Client
	key string
}

func NewRedisSet(rdb *goredis.Client, key string) *RedisSet {
	return &RedisSet{rdb: rdb, key: key}
}

func (r *RedisSet) Add(ctx context.Context, member string) error {
	return r.rdb.SAdd(ctx, r.key, member).Err()
}

func (r *RedisSet) Contains(ctx context.Context, member string) (bool, error) {
	return r.rdb.SIsMember(ctx, r.key, member).Result()
}

// MemorySet is a process-local Set for deployments without Redis.
type MemorySet struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

func NewMemorySet() *MemorySet {
	return &MemorySet{members: make(map[string]struct{})}
}

func (m *MemorySet) Add(_ context.Context, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[member] = struct{}{}
	return nil
}

func (m *MemorySet) Contains(_ context.Context, member string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[member]
	return ok, nil
}
