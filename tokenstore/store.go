// Package tokenstore persists the credentials that survive process restarts:
// the access token, the refresh token and the active organization id. Values
// are opaque strings, the store never inspects them.
package tokenstore

// Kind identifies one of the three persisted credential slots.
type Kind string

const (
	KindAccessToken  Kind = "access_token"
	KindRefreshToken Kind = "refresh_token"
	KindOrganization Kind = "organization_id"
)

// Store is the durable key-value contract used by the session service and the
// request pipeline. Get returns errors.ErrKeyNotFound for an absent kind.
// Clear removes all three kinds atomically, a reader can never observe a
// partially cleared store.
type Store interface {
	Get(kind Kind) (string, error)
	Set(kind Kind, value string) error
	Clear() error
	Close() error
}

// Lookup is a convenience wrapper that folds the not-found error into a bool.
func Lookup(s Store, kind Kind) (string, bool) {
	value, err := s.Get(kind)
	if err != nil {
		return "", false
	}
	return value, value != ""
}
