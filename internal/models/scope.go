package models

import "fmt"

// ScopeKind tells which identity a cart is keyed by.
type ScopeKind int

const (
	ScopeNone ScopeKind = iota
	ScopeSession
	ScopeUser
)

// CartScope is resolved once per request and passed to every cart operation.
// It carries either an anonymous session token or an authenticated user id.
type CartScope struct {
	kind   ScopeKind
	token  string
	userID string
}

// SessionScope returns the scope of an anonymous visitor.
func SessionScope(token string) CartScope {
	return CartScope{kind: ScopeSession, token: token}
}

// UserScope returns the scope of a logged in user.
func UserScope(userID string) CartScope {
	return CartScope{kind: ScopeUser, userID: userID}
}

func (s CartScope) Kind() ScopeKind       { return s.kind }
func (s CartScope) IsAuthenticated() bool { return s.kind == ScopeUser }
func (s CartScope) SessionToken() string  { return s.token }
func (s CartScope) UserID() string        { return s.userID }

// Valid reports whether the scope names exactly one non-empty identity.
func (s CartScope) Valid() bool {
	switch s.kind {
	case ScopeSession:
		return s.token != "" && s.userID == ""
	case ScopeUser:
		return s.userID != "" && s.token == ""
	default:
		return false
	}
}

func (s CartScope) String() string {
	switch s.kind {
	case ScopeSession:
		return fmt.Sprintf("session:%s", s.token)
	case ScopeUser:
		return fmt.Sprintf("user:%s", s.userID)
	default:
		return "none"
	}
}
