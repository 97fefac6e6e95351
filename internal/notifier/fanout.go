package notifier

import (
	"context"
	"errors"

	"github.com/metinatakli/seat-reservation/internal/domain"
)

// Fanout hands every batch of events to all of its publishers, even when
// some of them fail.
type Fanout []domain.EventPublisher

func (f Fanout) Publish(ctx context.Context, events ...domain.Event) error {
	var errs []error

	for _, p := range f {
		if err := p.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
