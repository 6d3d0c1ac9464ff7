package progress

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

type fakeProgressStore struct {
	updates map[string]*store.Progress
	next    int
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{updates: make(map[string]*store.Progress)}
}

func (f *fakeProgressStore) Create(_ context.Context, p *store.Progress) error {
	f.next++
	p.ID = fmt.Sprintf("progress-%d", f.next)
	copied := *p
	f.updates[p.ID] = &copied
	return nil
}

func (f *fakeProgressStore) Save(_ context.Context, p *store.Progress) error {
	copied := *p
	f.updates[p.ID] = &copied
	return nil
}

func (f *fakeProgressStore) FindByID(_ context.Context, id string) (*store.Progress, error) {
	if p, ok := f.updates[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, apperr.NotFound("progress", id)
}

func (f *fakeProgressStore) ListByUser(_ context.Context, userID string) ([]store.Progress, error) {
	var out []store.Progress
	for _, p := range f.updates {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProgressStore) ListShared(_ context.Context, limit, _ int) ([]store.Progress, error) {
	var out []store.Progress
	for _, p := range f.updates {
		if p.Shared && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProgressStore) Delete(_ context.Context, id string) error {
	delete(f.updates, id)
	return nil
}

func newProgressService(t *testing.T) *Service {
	t.Helper()
	return NewService(newFakeProgressStore(), logger.NewDefault("progress-test"))
}

func progressRequest(shared bool) Request {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return Request{
		Title:     "Finished the Tour",
		Content:   "Completed the Go tour today.",
		Shared:    shared,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 7),
	}
}

func TestCreate_KeepsPlanAndPeriod(t *testing.T) {
	svc := newProgressService(t)

	planID := "11111111-2222-3333-4444-555555555555"
	req := progressRequest(true)
	req.PlanID = &planID

	p, err := svc.Create(context.Background(), "u1", req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.PlanID == nil || *p.PlanID != planID {
		t.Errorf("planId = %v", p.PlanID)
	}
	if !p.Shared {
		t.Error("shared flag dropped")
	}
	if !p.StartDate.Equal(req.StartDate) || !p.EndDate.Equal(req.EndDate) {
		t.Errorf("period = %v..%v", p.StartDate, p.EndDate)
	}
}

func TestCreate_RejectsInvertedPeriod(t *testing.T) {
	svc := newProgressService(t)

	req := progressRequest(false)
	req.StartDate, req.EndDate = req.EndDate, req.StartDate

	_, err := svc.Create(context.Background(), "u1", req)
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestUpdate_OnlyAuthor(t *testing.T) {
	svc := newProgressService(t)
	p, err := svc.Create(context.Background(), "u1", progressRequest(false))
	if err != nil {
		t.Fatal(err)
	}

	req := progressRequest(true)
	req.Title = "Week two"

	_, err = svc.Update(context.Background(), p.ID, "u2", req)
	if !apperr.IsCode(err, apperr.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}

	updated, err := svc.Update(context.Background(), p.ID, "u1", req)
	if err != nil {
		t.Fatalf("author update failed: %v", err)
	}
	if updated.Title != "Week two" || !updated.Shared {
		t.Errorf("update not applied: %+v", updated)
	}
}

func TestDelete_OnlyAuthor(t *testing.T) {
	svc := newProgressService(t)
	p, err := svc.Create(context.Background(), "u1", progressRequest(false))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), p.ID, "u2"); !apperr.IsCode(err, apperr.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}
	if err := svc.Delete(context.Background(), p.ID, "u1"); err != nil {
		t.Errorf("author delete failed: %v", err)
	}
}

func TestFeed_ListsOnlySharedUpdates(t *testing.T) {
	svc := newProgressService(t)
	if _, err := svc.Create(context.Background(), "u1", progressRequest(true)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), "u1", progressRequest(false)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), "u2", progressRequest(true)); err != nil {
		t.Fatal(err)
	}

	updates, err := svc.Feed(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(updates) != 2 {
		t.Errorf("got %d updates, want 2", len(updates))
	}
	for _, u := range updates {
		if !u.Shared {
			t.Error("private update leaked into feed")
		}
	}
}

func TestByUser_HidesPrivateFromOthers(t *testing.T) {
	svc := newProgressService(t)
	if _, err := svc.Create(context.Background(), "u1", progressRequest(true)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), "u1", progressRequest(false)); err != nil {
		t.Fatal(err)
	}

	own, err := svc.ByUser(context.Background(), "u1", "u1")
	if err != nil {
		t.Fatalf("byUser failed: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("author sees %d updates, want 2", len(own))
	}

	others, err := svc.ByUser(context.Background(), "u1", "u2")
	if err != nil {
		t.Fatalf("byUser failed: %v", err)
	}
	if len(others) != 1 || !others[0].Shared {
		t.Errorf("stranger sees %d updates: %+v", len(others), others)
	}
}
