package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"virtual-patient/internal/domain"
)

func newTestSessionManager(store *MockSessionStore, completion *MockCompletionClient, maxInteractions int) *SessionManager {
	return NewSessionManager(store, NewCompletionService(completion, CompletionOptions{}), maxInteractions)
}

// TestGetOrCreate_CreatesSessionWithLabels tests creation of an unknown session
func TestGetOrCreate_CreatesSessionWithLabels(t *testing.T) {
	store := NewMockSessionStore()
	completion := &MockCompletionClient{}
	manager := newTestSessionManager(store, completion, 0)

	session, created, err := manager.GetOrCreate(context.Background(), "abc")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !created {
		t.Error("expected a new session")
	}
	if session.ID != "abc" {
		t.Errorf("expected client id to be reused, got %s", session.ID)
	}
	if session.Disease != "Appendicitis" || session.PatientName != "Jane Doe" {
		t.Errorf("unexpected labels %q / %q", session.Disease, session.PatientName)
	}
	if session.Interactions != 0 || len(session.History) != 0 || session.State != domain.SessionStateActive {
		t.Errorf("expected empty active session, got %+v", session)
	}
	if store.Stored("abc") == nil {
		t.Error("expected session to be persisted")
	}
	if completion.CallCount() != 2 {
		t.Errorf("expected 2 label calls, got %d", completion.CallCount())
	}
}

// TestGetOrCreate_ReusesActiveSession tests that an active session is returned without new labels
func TestGetOrCreate_ReusesActiveSession(t *testing.T) {
	store := NewMockSessionStore()
	completion := &MockCompletionClient{}
	manager := newTestSessionManager(store, completion, 0)

	existing := domain.NewPatientSession("abc", "Migraine", "Alex Carter")
	existing.Interactions = 5
	store.SaveSession(context.Background(), existing)

	session, created, err := manager.GetOrCreate(context.Background(), "abc")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created {
		t.Error("expected existing session to be reused")
	}
	if session.Disease != "Migraine" || session.Interactions != 5 {
		t.Errorf("unexpected session %+v", session)
	}
	if completion.CallCount() != 0 {
		t.Errorf("expected no label calls, got %d", completion.CallCount())
	}
}

// TestGetOrCreate_AllocatesIDWhenBlank tests id allocation
func TestGetOrCreate_AllocatesIDWhenBlank(t *testing.T) {
	manager := newTestSessionManager(NewMockSessionStore(), &MockCompletionClient{}, 0)
	manager.newID = func() string { return "generated-id" }

	session, created, err := manager.GetOrCreate(context.Background(), "   ")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !created || session.ID != "generated-id" {
		t.Errorf("expected new session generated-id, got %s (created=%t)", session.ID, created)
	}
}

// TestResolveID_GeneratesUUID tests default id allocation
func TestResolveID_GeneratesUUID(t *testing.T) {
	manager := newTestSessionManager(NewMockSessionStore(), &MockCompletionClient{}, 0)

	first := manager.ResolveID("")
	second := manager.ResolveID("")

	if len(first) != 36 || first == second {
		t.Errorf("expected distinct uuids, got %q and %q", first, second)
	}
	if got := manager.ResolveID(" keep-me "); got != "keep-me" {
		t.Errorf("expected trimmed client id, got %q", got)
	}
}

// TestGetOrCreate_LabelFallbacks tests default labels when generation fails
func TestGetOrCreate_LabelFallbacks(t *testing.T) {
	completion := &MockCompletionClient{
		ChatCompletionFunc: func(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
			return nil, domain.ErrCompletionUnavailable
		},
	}
	manager := newTestSessionManager(NewMockSessionStore(), completion, 0)

	session, _, err := manager.GetOrCreate(context.Background(), "abc")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.Disease != domain.DefaultDiseaseLabel || session.PatientName != domain.DefaultPatientNameLabel {
		t.Errorf("expected default labels, got %q / %q", session.Disease, session.PatientName)
	}
}

// TestGetOrCreate_StoreErrors tests propagation of storage failures
func TestGetOrCreate_StoreErrors(t *testing.T) {
	storeErr := errors.New("store down")

	loadFails := NewMockSessionStore()
	loadFails.GetSessionFunc = func(ctx context.Context, sessionID string) (*domain.PatientSession, error) {
		return nil, storeErr
	}
	if _, _, err := newTestSessionManager(loadFails, &MockCompletionClient{}, 0).GetOrCreate(context.Background(), "abc"); !errors.Is(err, storeErr) {
		t.Errorf("expected load error, got %v", err)
	}

	saveFails := NewMockSessionStore()
	saveFails.SaveSessionFunc = func(ctx context.Context, session *domain.PatientSession) error {
		return storeErr
	}
	if _, _, err := newTestSessionManager(saveFails, &MockCompletionClient{}, 0).GetOrCreate(context.Background(), "abc"); !errors.Is(err, storeErr) {
		t.Errorf("expected save error, got %v", err)
	}
}

// TestCompleteInteraction_PersistsBelowCeiling tests the counter increment
func TestCompleteInteraction_PersistsBelowCeiling(t *testing.T) {
	store := NewMockSessionStore()
	manager := newTestSessionManager(store, &MockCompletionClient{}, 3)
	session, _, _ := manager.GetOrCreate(context.Background(), "abc")

	manager.AppendDoctorTurn(session, "Hello")
	manager.RecordPatientReply(session, "Hi doctor")
	if err := manager.CompleteInteraction(context.Background(), session); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	stored := store.Stored("abc")
	if stored == nil || stored.Interactions != 1 || len(stored.History) != 1 {
		t.Fatalf("expected stored session with 1 interaction, got %+v", stored)
	}
	if stored.History[0] != (domain.Turn{Doctor: "Hello", Patient: "Hi doctor"}) {
		t.Errorf("unexpected turn %+v", stored.History[0])
	}
}

// TestCompleteInteraction_ExpiresAtCeiling tests deletion at the ceiling and silent recreation
func TestCompleteInteraction_ExpiresAtCeiling(t *testing.T) {
	store := NewMockSessionStore()
	manager := newTestSessionManager(store, &MockCompletionClient{}, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		session, _, err := manager.GetOrCreate(ctx, "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		manager.AppendDoctorTurn(session, "question")
		manager.RecordPatientReply(session, "answer")
		if err := manager.CompleteInteraction(ctx, session); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if i == 1 && session.State != domain.SessionStateExpired {
			t.Errorf("expected session to expire at the ceiling, got %s", session.State)
		}
	}

	if store.Stored("abc") != nil {
		t.Fatal("expected expired session to be deleted")
	}
	if len(store.DeleteCalls) != 1 || store.DeleteCalls[0] != "abc" {
		t.Errorf("expected one delete for abc, got %v", store.DeleteCalls)
	}

	fresh, created, err := manager.GetOrCreate(ctx, "abc")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !created || fresh.Interactions != 0 || len(fresh.History) != 0 {
		t.Errorf("expected fresh session under the same id, got %+v", fresh)
	}
}

// TestCompleteInteraction_DeleteError tests propagation of delete failures
func TestCompleteInteraction_DeleteError(t *testing.T) {
	store := NewMockSessionStore()
	store.DeleteSessionFunc = func(ctx context.Context, sessionID string) error {
		return errors.New("delete failed")
	}
	manager := newTestSessionManager(store, &MockCompletionClient{}, 1)
	session := domain.NewPatientSession("abc", "Migraine", "Alex Carter")

	if err := manager.CompleteInteraction(context.Background(), session); err == nil {
		t.Error("expected delete error to propagate")
	}
}

// TestNewSessionManager_DefaultCeiling tests the default ceiling
func TestNewSessionManager_DefaultCeiling(t *testing.T) {
	manager := newTestSessionManager(NewMockSessionStore(), &MockCompletionClient{}, -1)
	if manager.MaxInteractions() != DefaultMaxInteractions {
		t.Errorf("expected %d, got %d", DefaultMaxInteractions, manager.MaxInteractions())
	}
}

// TestKeyedMutex_SerializesSameKey tests mutual exclusion and cleanup
func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("abc")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("expected at most one holder, saw %d", maxSeen)
	}
	if locks.size() != 0 {
		t.Errorf("expected lock map to be empty, got %d", locks.size())
	}
}

// TestKeyedMutex_IndependentKeys tests that different keys do not block each other
func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locks := newKeyedMutex()
	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected lock on a different key not to block")
	}
	if locks.size() != 1 {
		t.Errorf("expected only key a to remain, got %d", locks.size())
	}
}
