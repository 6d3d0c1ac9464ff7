package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/auth/password"
	"github.com/skillsenselab/skillloop/internal/auth/token"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*store.User // keyed by email
	next  int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*store.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return apperr.AlreadyExists("user")
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperr.AlreadyExists("user")
		}
	}
	f.next++
	user.ID = fmt.Sprintf("user-%03d", f.next)
	copied := *user
	f.users[user.Email] = &copied
	return nil
}

func (f *fakeUserStore) Save(_ context.Context, user *store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *user
	f.users[user.Email] = &copied
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperr.NotFound("user", email)
}

func (f *fakeUserStore) FindByEmailOrUsername(_ context.Context, login string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == login || u.Username == login {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("user", login)
}

func (f *fakeUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// fakeRevoker is an in-memory TokenRevoker.
type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]bool)}
}

func (f *fakeRevoker) Revoke(_ context.Context, tok string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tok] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tok string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[tok], nil
}

func newTestService(t *testing.T, rotate bool, revoker TokenRevoker) (*Service, *fakeUserStore) {
	t.Helper()
	tokens, err := token.New(token.Config{
		AccessSecret:  strings.Repeat("a", 64),
		RefreshSecret: strings.Repeat("r", 64),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	users := newFakeUserStore()
	hasher := password.NewBcryptHasher(password.WithCost(4))
	svc := NewService(users, tokens, hasher, revoker, rotate, logger.NewDefault("auth-test"))
	return svc, users
}

func registerAlice(t *testing.T, svc *Service) *AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return resp
}

func TestRegister_IssuesTokenPair(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	resp := registerAlice(t, svc)

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if resp.AccessToken == resp.RefreshToken {
		t.Error("access and refresh tokens must differ")
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("unexpected user email: %s", resp.User.Email)
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Error("expiry must be in the future")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice2",
		Email:    "Alice@Example.com",
		Password: "another-pass",
	})
	if !apperr.IsCode(err, apperr.CodeAlreadyExists) {
		t.Errorf("expected ALREADY_EXISTS for duplicate email, got %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "another-pass",
	})
	if !apperr.IsCode(err, apperr.CodeAlreadyExists) {
		t.Errorf("expected ALREADY_EXISTS for duplicate username, got %v", err)
	}
}

func TestLogin_ByEmailAndUsername(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	registerAlice(t, svc)

	for _, login := range []string{"alice@example.com", "alice"} {
		resp, err := svc.Login(context.Background(), LoginRequest{
			Login:    login,
			Password: "s3cret-pass",
		})
		if err != nil {
			t.Fatalf("login with %q failed: %v", login, err)
		}
		if resp.User.Username != "alice" {
			t.Errorf("unexpected user: %+v", resp.User)
		}
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	registerAlice(t, svc)

	_, errUnknown := svc.Login(context.Background(), LoginRequest{
		Login: "nobody@example.com", Password: "whatever",
	})
	_, errWrongPass := svc.Login(context.Background(), LoginRequest{
		Login: "alice@example.com", Password: "wrong-pass",
	})

	if errUnknown == nil || errWrongPass == nil {
		t.Fatal("expected both logins to fail")
	}
	if errUnknown.Error() != errWrongPass.Error() {
		t.Errorf("failure messages differ: %q vs %q", errUnknown, errWrongPass)
	}
	if !apperr.IsCode(errUnknown, apperr.CodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED, got %v", errUnknown)
	}
}

func TestLogin_OAuthAccountHasNoPassword(t *testing.T) {
	svc, users := newTestService(t, false, nil)
	if err := users.Create(context.Background(), &store.User{
		Username: "bob", Email: "bob@example.com", Provider: "google", Enabled: true,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginRequest{
		Login: "bob@example.com", Password: "anything",
	})
	if !apperr.IsCode(err, apperr.CodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED for passwordless account, got %v", err)
	}
}

func TestRefresh_WithoutRotationKeepsToken(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	first := registerAlice(t, svc)

	resp, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if resp.RefreshToken != first.RefreshToken {
		t.Error("refresh token must be unchanged when rotation is disabled")
	}
	if resp.AccessToken == "" {
		t.Error("expected a new access token")
	}

	// The same refresh token keeps working.
	if _, err := svc.Refresh(context.Background(), first.RefreshToken); err != nil {
		t.Errorf("second refresh failed: %v", err)
	}
}

func TestRefresh_WithRotationRevokesOldToken(t *testing.T) {
	revoker := newFakeRevoker()
	svc, _ := newTestService(t, true, revoker)
	first := registerAlice(t, svc)

	resp, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if resp.RefreshToken == first.RefreshToken {
		t.Error("expected a rotated refresh token")
	}

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	if !apperr.IsCode(err, apperr.CodeInvalidToken) {
		t.Errorf("expected INVALID_TOKEN for spent refresh token, got %v", err)
	}

	// The rotated token still works.
	if _, err := svc.Refresh(context.Background(), resp.RefreshToken); err != nil {
		t.Errorf("rotated token refresh failed: %v", err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	first := registerAlice(t, svc)

	_, err := svc.Refresh(context.Background(), first.AccessToken)
	if !apperr.IsCode(err, apperr.CodeInvalidToken) {
		t.Errorf("expected INVALID_TOKEN for access token, got %v", err)
	}
}

func TestRefresh_UnknownSubject(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	first := registerAlice(t, svc)

	// Simulate the account disappearing after the token was issued.
	freshSvc, _ := newTestService(t, false, nil)
	_, err := freshSvc.Refresh(context.Background(), first.RefreshToken)
	if !apperr.IsCode(err, apperr.CodeInvalidToken) {
		t.Errorf("expected INVALID_TOKEN for unknown subject, got %v", err)
	}
}

func TestRegisterOrGetOAuth2_CreatesThenReuses(t *testing.T) {
	svc, _ := newTestService(t, false, nil)

	first, err := svc.RegisterOrGetOAuth2(context.Background(),
		"google", "sub-123", "carol@example.com", "Carol Jones", "https://pic.example/c.png")
	if err != nil {
		t.Fatalf("oauth2 provisioning failed: %v", err)
	}
	if first.User.Username == "" {
		t.Error("expected a derived username")
	}
	if first.User.FirstName != "Carol" || first.User.LastName != "Jones" {
		t.Errorf("name not split: %+v", first.User)
	}

	second, err := svc.RegisterOrGetOAuth2(context.Background(),
		"google", "sub-123", "carol@example.com", "Carol Jones", "")
	if err != nil {
		t.Fatalf("second oauth2 call failed: %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("expected the same account, got %s and %s", first.User.ID, second.User.ID)
	}
}

func TestRegisterOrGetOAuth2_UsernameCollision(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	registerAlice(t, svc)

	resp, err := svc.RegisterOrGetOAuth2(context.Background(),
		"google", "sub-9", "alice@gmail.example", "", "")
	if err != nil {
		t.Fatalf("oauth2 provisioning failed: %v", err)
	}
	if resp.User.Username == "alice" {
		t.Error("expected a suffixed username for the collision")
	}
	if !strings.HasPrefix(resp.User.Username, "alice") {
		t.Errorf("unexpected username: %s", resp.User.Username)
	}
}

func TestRegisterOrGetOAuth2_NoEmail(t *testing.T) {
	svc, _ := newTestService(t, false, nil)

	_, err := svc.RegisterOrGetOAuth2(context.Background(), "google", "sub-1", "", "No Email", "")
	if !apperr.IsCode(err, apperr.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for missing email, got %v", err)
	}
}
