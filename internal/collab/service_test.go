package collab

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

type fakeCollabStore struct {
	collabs map[string]*store.Collaboration
	next    int
}

func newFakeCollabStore() *fakeCollabStore {
	return &fakeCollabStore{collabs: make(map[string]*store.Collaboration)}
}

func (f *fakeCollabStore) Create(_ context.Context, c *store.Collaboration) error {
	f.next++
	c.ID = fmt.Sprintf("collab-%d", f.next)
	copied := *c
	f.collabs[c.ID] = &copied
	return nil
}

func (f *fakeCollabStore) Save(_ context.Context, c *store.Collaboration) error {
	copied := *c
	f.collabs[c.ID] = &copied
	return nil
}

func (f *fakeCollabStore) FindByID(_ context.Context, id string) (*store.Collaboration, error) {
	if c, ok := f.collabs[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, apperr.NotFound("collaboration", id)
}

func (f *fakeCollabStore) ListByParticipant(_ context.Context, userID string) ([]store.Collaboration, error) {
	var out []store.Collaboration
	for _, c := range f.collabs {
		if c.MentorID == userID || c.MenteeID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCollabStore) Delete(_ context.Context, id string) error {
	delete(f.collabs, id)
	return nil
}

type fakeUsers struct {
	known map[string]bool
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*store.User, error) {
	if f.known[id] {
		u := &store.User{Username: id}
		u.ID = id
		return u, nil
	}
	return nil, apperr.NotFound("user", id)
}

func mentee() *store.User {
	u := &store.User{Username: "mentee"}
	u.ID = "u-mentee"
	return u
}

func newCollabService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(
		newFakeCollabStore(),
		&fakeUsers{known: map[string]bool{"u-mentor": true}},
		logger.NewDefault("collab-test"),
	)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	return svc
}

func validRequest() CreateRequest {
	return CreateRequest{
		MentorID:        "u-mentor",
		Topic:           "Code review habits",
		ScheduledAt:     time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
	}
}

func TestCreate_StartsActive(t *testing.T) {
	svc := newCollabService(t)

	collab, err := svc.Create(context.Background(), mentee(), validRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if collab.Status != store.CollabStatusActive {
		t.Errorf("status = %s, want ACTIVE", collab.Status)
	}
}

func TestCreate_DurationBounds(t *testing.T) {
	svc := newCollabService(t)

	for _, minutes := range []int{29, 181, 0, -10} {
		req := validRequest()
		req.DurationMinutes = minutes
		_, err := svc.Create(context.Background(), mentee(), req)
		if !apperr.IsCode(err, apperr.CodeInvalidInput) {
			t.Errorf("duration %d accepted, err=%v", minutes, err)
		}
	}
	for _, minutes := range []int{30, 180, 90} {
		req := validRequest()
		req.DurationMinutes = minutes
		if _, err := svc.Create(context.Background(), mentee(), req); err != nil {
			t.Errorf("duration %d rejected: %v", minutes, err)
		}
	}
}

func TestCreate_MustBeFuture(t *testing.T) {
	svc := newCollabService(t)

	req := validRequest()
	req.ScheduledAt = time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), mentee(), req)
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("past schedule accepted, err=%v", err)
	}
}

func TestCreate_SelfMentorRejected(t *testing.T) {
	svc := newCollabService(t)

	req := validRequest()
	req.MentorID = "u-mentee"
	_, err := svc.Create(context.Background(), mentee(), req)
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("self-mentoring accepted, err=%v", err)
	}
}

func TestCreate_UnknownMentor(t *testing.T) {
	svc := newCollabService(t)

	req := validRequest()
	req.MentorID = "u-ghost"
	_, err := svc.Create(context.Background(), mentee(), req)
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc := newCollabService(t)
	collab, err := svc.Create(context.Background(), mentee(), validRequest())
	if err != nil {
		t.Fatal(err)
	}

	topic := "Interview prep"
	updated, err := svc.Update(context.Background(), collab.ID, "u-mentor", UpdateRequest{Topic: &topic})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Topic != "Interview prep" {
		t.Errorf("topic = %q", updated.Topic)
	}
	if !updated.ScheduledAt.Equal(collab.ScheduledAt) || updated.DurationMinutes != collab.DurationMinutes {
		t.Error("unset fields changed")
	}
}

func TestUpdate_RejectsPastReschedule(t *testing.T) {
	svc := newCollabService(t)
	collab, err := svc.Create(context.Background(), mentee(), validRequest())
	if err != nil {
		t.Fatal(err)
	}

	past := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	_, err = svc.Update(context.Background(), collab.ID, "u-mentee", UpdateRequest{ScheduledAt: &past})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("past reschedule accepted, err=%v", err)
	}

	minutes := 10
	_, err = svc.Update(context.Background(), collab.ID, "u-mentee", UpdateRequest{DurationMinutes: &minutes})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("short duration accepted, err=%v", err)
	}
}

func TestUpdate_OnlyParticipants(t *testing.T) {
	svc := newCollabService(t)
	collab, err := svc.Create(context.Background(), mentee(), validRequest())
	if err != nil {
		t.Fatal(err)
	}

	topic := "x"
	_, err = svc.Update(context.Background(), collab.ID, "u-stranger", UpdateRequest{Topic: &topic})
	if !apperr.IsCode(err, apperr.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}

	if _, err := svc.Cancel(context.Background(), collab.ID, "u-mentee"); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Update(context.Background(), collab.ID, "u-mentee", UpdateRequest{Topic: &topic})
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for cancelled session, got %v", err)
	}
}

func TestDelete_OnlyParticipants(t *testing.T) {
	svc := newCollabService(t)
	collab, err := svc.Create(context.Background(), mentee(), validRequest())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), collab.ID, "u-stranger"); !apperr.IsCode(err, apperr.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}
	if err := svc.Delete(context.Background(), collab.ID, "u-mentee"); err != nil {
		t.Fatalf("participant delete failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), collab.ID, "u-mentee"); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Errorf("session still readable after delete: %v", err)
	}
}

func TestComplete_OnlyParticipants(t *testing.T) {
	svc := newCollabService(t)
	collab, err := svc.Create(context.Background(), mentee(), validRequest())
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Complete(context.Background(), collab.ID, "u-stranger")
	if !apperr.IsCode(err, apperr.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}

	done, err := svc.Complete(context.Background(), collab.ID, "u-mentor")
	if err != nil {
		t.Fatalf("mentor complete failed: %v", err)
	}
	if done.Status != store.CollabStatusCompleted {
		t.Errorf("status = %s", done.Status)
	}
}

func TestTransition_OnlyFromActive(t *testing.T) {
	svc := newCollabService(t)
	collab, err := svc.Create(context.Background(), mentee(), validRequest())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Cancel(context.Background(), collab.ID, "u-mentee"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err = svc.Complete(context.Background(), collab.ID, "u-mentee")
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for cancelled session, got %v", err)
	}
}
