package aiusage

import "context"

// Service tracks how many model-fallback calls each session has spent.
type Service struct {
	store *Store
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Consume deducts one model call from the session's monthly allowance.
// If the session row does not exist yet it is initialised and the call is immediately counted.
// Returns ErrQuotaExhausted when the quota for the current month is spent.
func (s *Service) Consume(ctx context.Context, sessionID string) error {
	err := s.store.Consume(ctx, sessionID)
	if err != ErrQuotaExhausted {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureSession(ctx, sessionID); initErr != nil {
		return initErr
	}
	return s.store.Consume(ctx, sessionID)
}
