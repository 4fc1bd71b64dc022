// Package access decides, per request, whether the caller's author key
// unlocks the real transaction store.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billbook/internal/log"
)

// ErrAuthorKeyRequired is returned for writes without a valid author key.
var ErrAuthorKeyRequired = errors.New("valid author key required")

// KeyValidator checks an author key against the stored secret.
type KeyValidator interface {
	ValidateKey(ctx context.Context, key string) (bool, error)
}

// Reason explains a Decision.
type Reason string

const (
	ReasonNoKey           Reason = "no_key"
	ReasonValidationError Reason = "validation_error"
	ReasonInvalidKey      Reason = "invalid_key"
	ReasonValidKey        Reason = "valid_key"
)

// Decision tells a reader whether to serve sample data.
type Decision struct {
	UseSample bool
	Reason    Reason
}

// Session is the result of an explicit key check.
type Session struct {
	Valid bool
	// ExpiresAt is set when the positive result is memoized.
	ExpiresAt *time.Time
}

// Authorizer is implemented by Gate and SessionGate.
type Authorizer interface {
	Resolve(ctx context.Context, key string) Decision
	RequireWrite(ctx context.Context, key string) error
	Check(ctx context.Context, key string) Session
	Forget(key string)
}

// Gate validates the key on every call.
type Gate struct {
	validator KeyValidator
	logger    *log.Logger
}

// NewGate creates a Gate backed by validator.
func NewGate(validator KeyValidator, logger *log.Logger) *Gate {
	return &Gate{
		validator: validator,
		logger:    logger.WithComponent(log.ComponentAccess),
	}
}

// Resolve never fails: anything short of a confirmed key means sample data.
func (g *Gate) Resolve(ctx context.Context, key string) Decision {
	if strings.TrimSpace(key) == "" {
		return Decision{UseSample: true, Reason: ReasonNoKey}
	}
	ok, err := g.validator.ValidateKey(ctx, key)
	if err != nil {
		g.logger.WarnContext(ctx, "Author key validation failed",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		return Decision{UseSample: true, Reason: ReasonValidationError}
	}
	if !ok {
		return Decision{UseSample: true, Reason: ReasonInvalidKey}
	}
	return Decision{UseSample: false, Reason: ReasonValidKey}
}

// RequireWrite returns nil only for a confirmed key.
func (g *Gate) RequireWrite(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrAuthorKeyRequired
	}
	ok, err := g.validator.ValidateKey(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthorKeyRequired, err)
	}
	if !ok {
		return ErrAuthorKeyRequired
	}
	return nil
}

// Check reports whether key is valid. Nothing is memoized.
func (g *Gate) Check(ctx context.Context, key string) Session {
	return Session{Valid: !g.Resolve(ctx, key).UseSample}
}

// Forget is a no-op; Gate keeps no state.
func (g *Gate) Forget(string) {}
