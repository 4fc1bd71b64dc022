package access

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"billbook/internal/cache"
	"billbook/internal/log"
)

// SessionGate memoizes positive validations of Gate for the cache TTL, so a
// key that validated once is trusted until the entry expires or is forgotten.
// Failures and invalid keys always go back to the store.
type SessionGate struct {
	gate     *Gate
	sessions cache.Cache[struct{}]
	logger   *log.Logger
}

// NewSessionGate wraps gate with sessions.
func NewSessionGate(gate *Gate, sessions cache.Cache[struct{}], logger *log.Logger) *SessionGate {
	return &SessionGate{
		gate:     gate,
		sessions: sessions,
		logger:   logger.WithComponent(log.ComponentAccess),
	}
}

// digest keeps raw keys out of process memory maps.
func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (s *SessionGate) cached(key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	_, _, ok := s.sessions.Get(digest(key))
	return ok
}

// Resolve consults the memo before the store.
func (s *SessionGate) Resolve(ctx context.Context, key string) Decision {
	if s.cached(key) {
		return Decision{UseSample: false, Reason: ReasonValidKey}
	}
	d := s.gate.Resolve(ctx, key)
	if !d.UseSample {
		s.sessions.Set(digest(key), struct{}{})
	}
	return d
}

// RequireWrite consults the memo before the store.
func (s *SessionGate) RequireWrite(ctx context.Context, key string) error {
	if s.cached(key) {
		return nil
	}
	if err := s.gate.RequireWrite(ctx, key); err != nil {
		return err
	}
	s.sessions.Set(digest(key), struct{}{})
	return nil
}

// Check validates key and reports when its session expires.
func (s *SessionGate) Check(ctx context.Context, key string) Session {
	if strings.TrimSpace(key) != "" {
		if _, exp, ok := s.sessions.Get(digest(key)); ok {
			return Session{Valid: true, ExpiresAt: &exp}
		}
	}
	if s.gate.Resolve(ctx, key).UseSample {
		return Session{Valid: false}
	}
	exp := s.sessions.Set(digest(key), struct{}{})
	s.logger.InfoContext(ctx, "Author session started", "expires_at", exp)
	return Session{Valid: true, ExpiresAt: &exp}
}

// Forget drops the memoized session of key.
func (s *SessionGate) Forget(key string) {
	s.sessions.Delete(digest(key))
}
