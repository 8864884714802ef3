package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

type stubAuthRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	err   error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.users[user.Username] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*domain.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, false, r.err
	}
	u, ok := r.users[username]
	return cloneUser(u), ok, nil
}

type stubRecorder struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *stubRecorder) Record(e domain.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *stubRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubDenylist struct {
	revoked map[string]time.Time
	err     error
}

func (d *stubDenylist) Revoke(_ context.Context, id string, until time.Time) error {
	if d.err != nil {
		return d.err
	}
	if d.revoked == nil {
		d.revoked = make(map[string]time.Time)
	}
	d.revoked[id] = until
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := d.revoked[id]
	return ok, d.err
}

type authFixture struct {
	repo     *stubAuthRepo
	store    *CredentialStore
	tokens   *TokenService
	recorder *stubRecorder
	svc      *AuthService
}

func newAuthFixture(t *testing.T, opts ...AuthOption) *authFixture {
	t.Helper()
	roles, err := domain.NewRoleSet("admin", "doctor", "nurse", "technician")
	if err != nil {
		t.Fatalf("role set: %v", err)
	}
	hasher := NewBcryptHasher(bcrypt.MinCost)
	repo := newStubAuthRepo()
	store, err := NewCredentialStore(repo, hasher, roles, domain.RoleNurse)
	if err != nil {
		t.Fatalf("credential store: %v", err)
	}
	tokens, err := NewTokenService([]byte("secret"), "meditrack")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	rec := &stubRecorder{}
	opts = append([]AuthOption{WithAuditRecorder(rec)}, opts...)
	svc, err := NewAuthService(store, hasher, tokens, time.Hour, opts...)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return &authFixture{repo: repo, store: store, tokens: tokens, recorder: rec, svc: svc}
}

func nurse(username, password string) domain.NewCredential {
	return domain.NewCredential{
		Username: username,
		Password: password,
		FullName: "Nurse One",
		Role:     domain.RoleNurse,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), nurse("nurse1", "p@ss1234"), ports.RequestMeta{IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if user.PasswordHash == "p@ss1234" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("p@ss1234")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleNurse {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("expected created_at")
	}
	if got := f.recorder.actions(); len(got) != 1 || got[0] != domain.ActionUserRegistered {
		t.Fatalf("unexpected audit actions: %v", got)
	}
}

func TestAuthService_Register_DefaultRole(t *testing.T) {
	f := newAuthFixture(t)

	in := nurse("tech", "pass")
	in.Role = ""
	user, err := f.svc.Register(context.Background(), in, ports.RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleNurse {
		t.Fatalf("expected default role nurse, got %s", user.Role)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)

	cases := []domain.NewCredential{
		{Username: "", Password: "pass", FullName: "X"},
		{Username: "bob", Password: "", FullName: "X"},
		{Username: "bob", Password: "pass", FullName: "  "},
		{Username: "bob", Password: "pass", FullName: "Bob", Role: "janitor"},
		{Username: "bob", Password: "pass", FullName: "Bob", Role: domain.RoleSuperAdmin},
		{Username: "bob", Password: strings.Repeat("é", 40), FullName: "Bob"},
	}
	for _, in := range cases {
		_, err := f.svc.Register(context.Background(), in, ports.RequestMeta{})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
	if len(f.repo.users) != 0 {
		t.Fatalf("no user should have been stored")
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Register(context.Background(), nurse("alice", "pass"), ports.RequestMeta{}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := f.svc.Register(context.Background(), nurse("alice", "other"), ports.RequestMeta{}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(f.repo.users) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(f.repo.users))
	}
	stored, _, _ := f.repo.FindByUsername(context.Background(), "alice")
	if !f.svc.hasher.Verify("pass", stored.PasswordHash) {
		t.Fatalf("original record must be kept")
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t)

	in := nurse("nurse1", "p@ss1234")
	in.Department = "ICU"
	if _, err := f.svc.Register(context.Background(), in, ports.RequestMeta{}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := f.svc.Login(context.Background(), "nurse1", "p@ss1234", ports.RequestMeta{UserAgent: "test"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.User == nil || res.User.Username != "nurse1" {
		t.Fatalf("unexpected user: %+v", res.User)
	}

	id, err := f.tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if id.Username != "nurse1" || id.Role != domain.RoleNurse || id.Department != "ICU" || id.ID != res.User.ID {
		t.Fatalf("token claims do not match record: %+v", id)
	}

	got := f.recorder.actions()
	if got[len(got)-1] != domain.ActionLogin {
		t.Fatalf("expected login audit entry, got %v", got)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.svc.Register(context.Background(), nurse("dave", "goodpass"), ports.RequestMeta{})

	_, errBadPass := f.svc.Login(context.Background(), "dave", "badpass", ports.RequestMeta{})
	_, errUnknown := f.svc.Login(context.Background(), "ghost", "goodpass", ports.RequestMeta{})
	_, errCase := f.svc.Login(context.Background(), "Dave", "goodpass", ports.RequestMeta{})
	_, errLong := f.svc.Login(context.Background(), "dave", strings.Repeat("x", 100), ports.RequestMeta{})

	for _, err := range []error{errBadPass, errUnknown, errCase, errLong} {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if err.Error() != "invalid username or password" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}

	failed := 0
	for _, a := range f.recorder.actions() {
		if a == domain.ActionLoginFailed {
			failed++
		}
	}
	if failed != 4 {
		t.Fatalf("expected 4 failed login entries, got %d", failed)
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.svc.Login(context.Background(), "", "x", ports.RequestMeta{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "x", "", ports.RequestMeta{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.err = errors.New("connection reset")

	_, err := f.svc.Login(context.Background(), "alice", "pass", ports.RequestMeta{})
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected an internal error, got %v", err)
	}
}

func TestAuthService_Logout_Advisory(t *testing.T) {
	f := newAuthFixture(t)
	id := &domain.Identity{ID: "u1", TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}

	if err := f.svc.Logout(context.Background(), id, ports.RequestMeta{}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := f.recorder.actions(); len(got) != 1 || got[0] != domain.ActionLogout {
		t.Fatalf("unexpected audit actions: %v", got)
	}
}

func TestAuthService_Logout_RevokesWithDenylist(t *testing.T) {
	dl := &stubDenylist{}
	f := newAuthFixture(t, WithDenylist(dl))
	exp := time.Now().Add(time.Hour)

	if err := f.svc.Logout(context.Background(), &domain.Identity{ID: "u1", TokenID: "jti-1", ExpiresAt: exp}, ports.RequestMeta{}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if until, ok := dl.revoked["jti-1"]; !ok || !until.Equal(exp) {
		t.Fatalf("expected jti-1 revoked until %s, got %v", exp, dl.revoked)
	}

	dl.err = errors.New("redis down")
	if err := f.svc.Logout(context.Background(), &domain.Identity{ID: "u1", TokenID: "jti-2"}, ports.RequestMeta{}); err == nil {
		t.Fatalf("expected denylist failure to surface")
	}
}

func TestAuthService_Logout_RequiresIdentity(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.svc.Logout(context.Background(), nil, ports.RequestMeta{}); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestNewCredentialStore_DefaultRoleMustBeInSet(t *testing.T) {
	roles, _ := domain.NewRoleSet("admin", "superadmin")
	if _, err := NewCredentialStore(newStubAuthRepo(), NewBcryptHasher(bcrypt.MinCost), roles, domain.RoleNurse); err == nil {
		t.Fatalf("expected error for default role outside the set")
	}
}
