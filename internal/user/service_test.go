package user

import (
	"context"
	"strings"
	"testing"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

type fakeStore struct {
	users   map[string]*store.User
	follows map[string]bool // "follower/followed"
}

func newFakeStore(users ...*store.User) *fakeStore {
	f := &fakeStore{
		users:   make(map[string]*store.User),
		follows: make(map[string]bool),
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func edge(follower, followed string) string { return follower + "/" + followed }

func (f *fakeStore) FindByID(_ context.Context, id string) (*store.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user", id)
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*store.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (f *fakeStore) Save(_ context.Context, user *store.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) Search(_ context.Context, query string, limit int) ([]store.User, error) {
	var out []store.User
	for _, u := range f.users {
		if strings.Contains(u.Username, query) && len(out) < limit {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateFollow(_ context.Context, follow *store.Follow) error {
	key := edge(follow.FollowerID, follow.FollowedID)
	if f.follows[key] {
		return apperr.AlreadyExists("follow")
	}
	f.follows[key] = true
	return nil
}

func (f *fakeStore) DeleteFollow(_ context.Context, followerID, followedID string) error {
	key := edge(followerID, followedID)
	if !f.follows[key] {
		return apperr.NotFound("follow", followedID)
	}
	delete(f.follows, key)
	return nil
}

func (f *fakeStore) IsFollowing(_ context.Context, followerID, followedID string) (bool, error) {
	return f.follows[edge(followerID, followedID)], nil
}

func (f *fakeStore) Followers(_ context.Context, userID string) ([]store.User, error) {
	var out []store.User
	for key := range f.follows {
		parts := strings.SplitN(key, "/", 2)
		if parts[1] == userID {
			out = append(out, *f.users[parts[0]])
		}
	}
	return out, nil
}

func (f *fakeStore) Following(_ context.Context, userID string) ([]store.User, error) {
	var out []store.User
	for key := range f.follows {
		parts := strings.SplitN(key, "/", 2)
		if parts[0] == userID {
			out = append(out, *f.users[parts[1]])
		}
	}
	return out, nil
}

func (f *fakeStore) FollowCounts(_ context.Context, userID string) (int64, int64, error) {
	var followers, following int64
	for key := range f.follows {
		parts := strings.SplitN(key, "/", 2)
		if parts[1] == userID {
			followers++
		}
		if parts[0] == userID {
			following++
		}
	}
	return followers, following, nil
}

type recordingNotifier struct {
	calls []string
}

func (r *recordingNotifier) Notify(_ context.Context, recipientID string, actor *store.User, kind, _, _ string) error {
	r.calls = append(r.calls, recipientID+":"+kind+":"+actor.ID)
	return nil
}

func seed(id, username string) *store.User {
	u := &store.User{Username: username, Email: username + "@example.com", Enabled: true}
	u.ID = id
	return u
}

func TestFollow_NotifiesTarget(t *testing.T) {
	alice, bob := seed("u1", "alice"), seed("u2", "bob")
	st := newFakeStore(alice, bob)
	notifier := &recordingNotifier{}
	svc := NewService(st, notifier, logger.NewDefault("user-test"))

	if err := svc.Follow(context.Background(), alice, "u2"); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	if len(notifier.calls) != 1 || notifier.calls[0] != "u2:"+store.NotificationFollow+":u1" {
		t.Errorf("unexpected notifications: %v", notifier.calls)
	}
}

func TestFollow_SelfRejected(t *testing.T) {
	alice := seed("u1", "alice")
	svc := NewService(newFakeStore(alice), nil, logger.NewDefault("user-test"))

	err := svc.Follow(context.Background(), alice, "u1")
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for self-follow, got %v", err)
	}
}

func TestFollow_DuplicateRejected(t *testing.T) {
	alice, bob := seed("u1", "alice"), seed("u2", "bob")
	svc := NewService(newFakeStore(alice, bob), nil, logger.NewDefault("user-test"))

	if err := svc.Follow(context.Background(), alice, "u2"); err != nil {
		t.Fatalf("first follow failed: %v", err)
	}
	err := svc.Follow(context.Background(), alice, "u2")
	if !apperr.IsCode(err, apperr.CodeAlreadyExists) {
		t.Errorf("expected ALREADY_EXISTS for duplicate follow, got %v", err)
	}
}

func TestFollow_UnknownTarget(t *testing.T) {
	alice := seed("u1", "alice")
	svc := NewService(newFakeStore(alice), nil, logger.NewDefault("user-test"))

	err := svc.Follow(context.Background(), alice, "ghost")
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for unknown target, got %v", err)
	}
}

func TestUnfollow_MissingEdge(t *testing.T) {
	alice, bob := seed("u1", "alice"), seed("u2", "bob")
	svc := NewService(newFakeStore(alice, bob), nil, logger.NewDefault("user-test"))

	err := svc.Unfollow(context.Background(), "u1", "u2")
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for missing edge, got %v", err)
	}
}

func TestProfile_CountsAndIsFollowing(t *testing.T) {
	alice, bob, carol := seed("u1", "alice"), seed("u2", "bob"), seed("u3", "carol")
	st := newFakeStore(alice, bob, carol)
	svc := NewService(st, nil, logger.NewDefault("user-test"))

	if err := svc.Follow(context.Background(), alice, "u2"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Follow(context.Background(), carol, "u2"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Follow(context.Background(), bob, "u3"); err != nil {
		t.Fatal(err)
	}

	p, err := svc.Profile(context.Background(), "u2", "u1")
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if p.FollowerCount != 2 || p.FollowingCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", p.FollowerCount, p.FollowingCount)
	}
	if !p.IsFollowing {
		t.Error("viewer follows u2, IsFollowing should be true")
	}
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	alice := seed("u1", "alice")
	alice.Bio = "old bio"
	alice.FirstName = "Alice"
	svc := NewService(newFakeStore(alice), nil, logger.NewDefault("user-test"))

	newBio := "new bio"
	updated, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Bio: &newBio})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Bio != "new bio" {
		t.Errorf("bio not updated: %q", updated.Bio)
	}
	if updated.FirstName != "Alice" {
		t.Errorf("untouched field changed: %q", updated.FirstName)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewService(newFakeStore(), nil, logger.NewDefault("user-test"))

	_, err := svc.Search(context.Background(), "", 10)
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty query, got %v", err)
	}
}
