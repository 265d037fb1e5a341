package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/regent/internal/core/authz"
	"github.com/example/regent/internal/models"
	"github.com/example/regent/internal/ports/secondary"
)

// mockEscalationRepository implements secondary.EscalationRepository for testing.
// It honors the same contract as the SQLite adapter: terminal-state rejection,
// server-side round numbering, tenant-scoped reads.
type mockEscalationRepository struct {
	escalations map[string]*secondary.EscalationRecord
	rounds      map[string][]*secondary.RoundRecord
	createErr   error
}

func newMockEscalationRepository() *mockEscalationRepository {
	return &mockEscalationRepository{
		escalations: make(map[string]*secondary.EscalationRecord),
		rounds:      make(map[string][]*secondary.RoundRecord),
	}
}

func (m *mockEscalationRepository) Create(ctx context.Context, record *secondary.EscalationRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.escalations[record.ID] = record
	return nil
}

func (m *mockEscalationRepository) GetByID(ctx context.Context, id string) (*secondary.EscalationRecord, error) {
	if e, ok := m.escalations[id]; ok {
		e.RoundCount = len(m.rounds[id])
		return e, nil
	}
	return nil, fmt.Errorf("escalation %s: %w", id, secondary.ErrNotFound)
}

func (m *mockEscalationRepository) GetByIDForTenant(ctx context.Context, id, tenantID string) (*secondary.EscalationRecord, error) {
	if e, ok := m.escalations[id]; ok && e.TenantID == tenantID {
		e.RoundCount = len(m.rounds[id])
		return e, nil
	}
	return nil, fmt.Errorf("escalation %s: %w", id, secondary.ErrNotFound)
}

func (m *mockEscalationRepository) ListPending(ctx context.Context, tenantID string) ([]*secondary.EscalationRecord, error) {
	var result []*secondary.EscalationRecord
	for _, e := range m.escalations {
		if e.TenantID == tenantID && e.State.IsPending() {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority.Rank() != result[j].Priority.Rank() {
			return result[i].Priority.Rank() < result[j].Priority.Rank()
		}
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *mockEscalationRepository) AppendRound(ctx context.Context, ap secondary.RoundAppend) (int, error) {
	e, ok := m.escalations[ap.EscalationID]
	if !ok {
		return 0, fmt.Errorf("escalation %s: %w", ap.EscalationID, secondary.ErrNotFound)
	}
	if e.State.IsTerminal() {
		return 0, fmt.Errorf("escalation %s is %s: %w", ap.EscalationID, e.State, secondary.ErrTerminalState)
	}

	roundNumber := len(m.rounds[ap.EscalationID]) + 1
	m.rounds[ap.EscalationID] = append(m.rounds[ap.EscalationID], &secondary.RoundRecord{
		EscalationID: ap.EscalationID,
		RoundNumber:  roundNumber,
		Type:         ap.Type,
		RequestText:  ap.RequestText,
		ResponseText: ap.ResponseText,
	})

	e.State = ap.NewState
	if ap.NewState == models.StateResolved {
		e.Decision = ap.Decision
		e.Instruction = ap.Instruction
		e.ResolvedBy = ap.ResolvedBy
		e.ResolvedAt = "2026-01-01T12:00:00Z"
	}
	return roundNumber, nil
}

func (m *mockEscalationRepository) ListRounds(ctx context.Context, escalationID string) ([]*secondary.RoundRecord, error) {
	return m.rounds[escalationID], nil
}

func (m *mockEscalationRepository) MarkFailed(ctx context.Context, id, reason string) error {
	e, ok := m.escalations[id]
	if !ok {
		return fmt.Errorf("escalation %s: %w", id, secondary.ErrNotFound)
	}
	if e.State.IsTerminal() {
		return fmt.Errorf("escalation %s is %s: %w", id, e.State, secondary.ErrTerminalState)
	}
	e.State = models.StateFailed
	e.FailureReason = reason
	return nil
}

func (m *mockEscalationRepository) MarkResumed(ctx context.Context, id, marker string) error {
	e, ok := m.escalations[id]
	if !ok {
		return fmt.Errorf("escalation %s: %w", id, secondary.ErrNotFound)
	}
	e.ResumedAt = "2026-01-01T12:00:00Z"
	e.ResumeMarker = marker
	return nil
}

func (m *mockEscalationRepository) ExpireStale(ctx context.Context, tenantID, cutoff, reason string) ([]string, error) {
	var ids []string
	for _, e := range m.escalations {
		if e.TenantID == tenantID && e.State.IsPending() && e.CreatedAt < cutoff {
			e.State = models.StateFailed
			e.FailureReason = reason
			ids = append(ids, e.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// mockFocusRepository implements secondary.FocusRepository for testing.
type mockFocusRepository struct {
	locks          map[string]*secondary.FocusRecord
	escalationRepo *mockEscalationRepository
}

func newMockFocusRepository(escalationRepo *mockEscalationRepository) *mockFocusRepository {
	return &mockFocusRepository{
		locks:          make(map[string]*secondary.FocusRecord),
		escalationRepo: escalationRepo,
	}
}

func (m *mockFocusRepository) Lock(ctx context.Context, authorityAddr, tenantID, escalationID string) error {
	m.locks[authorityAddr] = &secondary.FocusRecord{
		AuthorityAddr:     authorityAddr,
		TenantID:          tenantID,
		EscalationID:      escalationID,
		LastInteractionAt: "2026-01-01T12:00:00Z",
	}
	return nil
}

func (m *mockFocusRepository) Unlock(ctx context.Context, authorityAddr string) error {
	if lock, ok := m.locks[authorityAddr]; ok {
		lock.EscalationID = ""
	}
	return nil
}

func (m *mockFocusRepository) Get(ctx context.Context, authorityAddr string) (*secondary.FocusRecord, error) {
	if lock, ok := m.locks[authorityAddr]; ok {
		return lock, nil
	}
	return nil, fmt.Errorf("focus for %s: %w", authorityAddr, secondary.ErrNotFound)
}

func (m *mockFocusRepository) NextPending(ctx context.Context, tenantID, excludeID string) (*secondary.EscalationRecord, error) {
	pending, err := m.escalationRepo.ListPending(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, e := range pending {
		if e.ID != excludeID {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no pending escalation: %w", secondary.ErrNotFound)
}

// mockAuditSink implements secondary.AuditSink for testing.
type mockAuditSink struct {
	events    []secondary.AuditEvent
	recordErr error
}

func (m *mockAuditSink) Record(ctx context.Context, event secondary.AuditEvent) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockAuditSink) ListByEscalation(ctx context.Context, escalationID string) ([]*secondary.AuditEvent, error) {
	var result []*secondary.AuditEvent
	for i := range m.events {
		if m.events[i].EscalationID == escalationID {
			result = append(result, &m.events[i])
		}
	}
	return result, nil
}

func (m *mockAuditSink) eventTypes() []string {
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.EventType
	}
	return types
}

// mockNotifier implements secondary.Notifier for testing.
type mockNotifier struct {
	notifications []string
}

func (m *mockNotifier) Notify(ctx context.Context, tenantID, address, text string) error {
	m.notifications = append(m.notifications, fmt.Sprintf("%s|%s|%s", tenantID, address, text))
	return nil
}

// mockExecutor implements secondary.ActionExecutor for testing.
type mockExecutor struct {
	invocations []secondary.ActionInvocation
	summary     string
	err         error
}

func (m *mockExecutor) Execute(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
	m.invocations = append(m.invocations, inv)
	if m.err != nil {
		return "", m.err
	}
	return m.summary, nil
}

// mockExecutorRegistry implements secondary.ExecutorRegistry for testing.
type mockExecutorRegistry struct {
	executors map[authz.ActionKind]secondary.ActionExecutor
}

func (m *mockExecutorRegistry) ExecutorFor(kind authz.ActionKind) (secondary.ActionExecutor, bool) {
	e, ok := m.executors[kind]
	return e, ok
}
