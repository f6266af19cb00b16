package identity

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoIdentity = errors.New("no buyer identity in context")

// Identity is the disjoint key every cart and checkout operation is scoped
// by: either an authenticated buyer id or an anonymous session token, never
// both. The zero value is invalid.
type Identity struct {
	buyerID uint
	token   string
}

// Buyer builds an identity for an authenticated buyer.
func Buyer(id uint) Identity {
	return Identity{buyerID: id}
}

// Anonymous builds an identity for a session-scoped guest.
func Anonymous(token string) Identity {
	return Identity{token: token}
}

func (i Identity) IsZero() bool {
	return i.buyerID == 0 && i.token == ""
}

func (i Identity) IsAuthenticated() bool {
	return i.buyerID != 0
}

func (i Identity) BuyerID() (uint, bool) {
	return i.buyerID, i.buyerID != 0
}

func (i Identity) SessionToken() (string, bool) {
	return i.token, i.buyerID == 0 && i.token != ""
}

// Predicate returns the column name and value repositories use to scope a
// query to this identity.
func (i Identity) Predicate() (column string, value any) {
	if i.buyerID != 0 {
		return "buyer_id", i.buyerID
	}
	return "session_token", i.token
}

// Key is a stable string form used for logging and rate-limit bucketing.
func (i Identity) Key() string {
	if i.buyerID != 0 {
		return fmt.Sprintf("buyer:%d", i.buyerID)
	}
	return "anon:" + i.token
}

type ctxKey struct{}

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext retrieves the request identity set by the middleware layer.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}
