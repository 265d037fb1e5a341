package app

import (
	"context"
	"errors"

	"github.com/example/regent/internal/ports/primary"
	"github.com/example/regent/internal/ports/secondary"
)

// FocusServiceImpl implements the FocusService interface. The focus pointer is
// advisory state: it keeps an authority's free-text replies attributed to the
// right escalation, but the escalation record stays authoritative.
type FocusServiceImpl struct {
	focusRepo      secondary.FocusRepository
	escalationRepo secondary.EscalationRepository
}

// NewFocusService creates a new FocusService with injected dependencies.
func NewFocusService(focusRepo secondary.FocusRepository, escalationRepo secondary.EscalationRepository) *FocusServiceImpl {
	return &FocusServiceImpl{
		focusRepo:      focusRepo,
		escalationRepo: escalationRepo,
	}
}

// Lock points an authority at an escalation. Last lock wins; a conflicting
// lock is replaced without error.
func (s *FocusServiceImpl) Lock(ctx context.Context, authorityAddr, tenantID, escalationID string) error {
	// The escalation must exist within the tenant before it can be focused.
	if _, err := s.escalationRepo.GetByIDForTenant(ctx, escalationID, tenantID); err != nil {
		return err
	}
	return s.focusRepo.Lock(ctx, authorityAddr, tenantID, escalationID)
}

// Unlock clears the lock. Idempotent.
func (s *FocusServiceImpl) Unlock(ctx context.Context, authorityAddr string) error {
	return s.focusRepo.Unlock(ctx, authorityAddr)
}

// GetActive returns the locked escalation joined with its current record, or
// nil when the authority holds no lock.
func (s *FocusServiceImpl) GetActive(ctx context.Context, authorityAddr string) (*primary.ActiveFocus, error) {
	record, err := s.focusRepo.Get(ctx, authorityAddr)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if record.EscalationID == "" {
		return nil, nil
	}

	escalation, err := s.escalationRepo.GetByID(ctx, record.EscalationID)
	if errors.Is(err, secondary.ErrNotFound) {
		// Dangling lock; treat as no focus rather than failing the caller.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &primary.ActiveFocus{
		AuthorityAddr:     record.AuthorityAddr,
		TenantID:          record.TenantID,
		LastInteractionAt: record.LastInteractionAt,
		Escalation:        recordToEscalation(escalation),
	}, nil
}

// GetNextPending returns the highest-priority pending escalation for the
// tenant, excluding the given ID. Returns nil when nothing is pending.
func (s *FocusServiceImpl) GetNextPending(ctx context.Context, tenantID, excludeID string) (*primary.Escalation, error) {
	record, err := s.focusRepo.NextPending(ctx, tenantID, excludeID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return recordToEscalation(record), nil
}

// Ensure FocusServiceImpl implements the interface
var _ primary.FocusService = (*FocusServiceImpl)(nil)
