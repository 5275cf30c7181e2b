package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned when an API key cannot be resolved to a
// principal.
var ErrUnauthorized = errors.New("unauthorized")

// Role distinguishes renting customers from bike sellers.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// Principal is the authenticated identity behind an API key. SubjectID is the
// customer or seller the key acts as; handlers receive it already resolved.
type Principal struct {
	ID        string
	KeyHash   string
	Name      string
	Role      Role
	SubjectID string
}

// Repository provides lookup of API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Principal, error)
}
