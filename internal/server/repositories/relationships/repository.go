// Package relationships persists pending binding requests and bindings.
// A binding is stored once per pair in canonical (low, high) order, so the
// relation is symmetric by construction.
package relationships

import "context"

type Repository interface {
	// InsertRequest records from -> to; an existing one yields common.ErrAlreadyRequested.
	InsertRequest(ctx context.Context, from, to string) error
	// DeleteRequest removes from -> to and reports whether it existed.
	DeleteRequest(ctx context.Context, from, to string) (bool, error)
	RequestExists(ctx context.Context, from, to string) (bool, error)

	// InsertBinding binds a and b; an existing binding yields common.ErrAlreadyBound.
	InsertBinding(ctx context.Context, a, b string) error
	// DeleteBinding unbinds a and b and reports whether they were bound.
	DeleteBinding(ctx context.Context, a, b string) (bool, error)
	BindingExists(ctx context.Context, a, b string) (bool, error)

	// Sent, Received and Bound return sorted usernames.
	Sent(ctx context.Context, username string) ([]string, error)
	Received(ctx context.Context, username string) ([]string, error)
	Bound(ctx context.Context, username string) ([]string, error)
}
