package mocks

import (
	"context"
	"sync"

	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// RecordingPublisher keeps every published event in order.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *RecordingPublisher) Publish(_ context.Context, events ...domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, events...)

	return nil
}

func (r *RecordingPublisher) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]domain.Event, len(r.events))
	copy(events, r.events)

	return events
}
