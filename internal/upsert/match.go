package upsert

import (
	"context"
	"errors"

	"gitlab.com/dirk.krummacker/professionals-service/internal/model"
	"gitlab.com/dirk.krummacker/professionals-service/internal/store"
)

// Finder looks professionals up by their natural keys. Both methods return store.ErrNotFound
// when nothing matches.
type Finder interface {
	FindByEmail(ctx context.Context, email string) (*model.Professional, error)
	FindByPhone(ctx context.Context, phone string) (*model.Professional, error)
}

// Match returns the stored professional that n should update, or nil if n describes a new
// professional. The email is tried first; the phone is only consulted when there is no email
// or no record with that email. Errors other than store.ErrNotFound are returned.
func Match(ctx context.Context, finder Finder, n model.Normalized) (*model.Professional, error) {
	if n.Email != nil {
		p, err := finder.FindByEmail(ctx, *n.Email)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if n.Phone != nil {
		p, err := finder.FindByPhone(ctx, *n.Phone)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
