package auth_test

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/keyline-labs/auth-service/internal/auth"
	"github.com/keyline-labs/auth-service/internal/storage"
	"github.com/keyline-labs/auth-service/internal/user"
	"github.com/keyline-labs/auth-service/internal/utils"
)

const validPassword = "Sup3rSecret"

func newTestStack(t *testing.T) (*auth.Manager, *storage.Memory, *auth.Signer) {
	t.Helper()
	secret := base64.StdEncoding.EncodeToString([]byte("manager-test-secret"))
	signer, err := auth.NewSigner(secret, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	mem := storage.NewMemory()
	hasher := &utils.BcryptHasher{Cost: bcrypt.MinCost}
	return auth.NewManager(mem, mem, hasher, signer), mem, signer
}

func register(t *testing.T, m *auth.Manager, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := m.Register(id, email, validPassword); err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return id
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	m, mem, _ := newTestStack(t)
	id := uuid.New()

	summary, err := m.Register(id, "alice@example.com", validPassword)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if summary.ID != id || summary.Email != "alice@example.com" || summary.Role != user.DefaultRole {
		t.Errorf("unexpected summary: %+v", summary)
	}

	stored, err := mem.FindByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if stored.PasswordHash == validPassword {
		t.Fatal("stored password must never equal the plaintext")
	}
	if stored.PasswordHash == "" {
		t.Fatal("password hash missing")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	m, _, _ := newTestStack(t)
	register(t, m, "bob@example.com")

	_, err := m.Register(uuid.New(), "bob@example.com", validPassword)
	if !errors.Is(err, auth.ErrAlreadyExists) {
		t.Fatalf("duplicate email: got %v, want ErrAlreadyExists", err)
	}
}

func TestRegisterDuplicateID(t *testing.T) {
	m, _, _ := newTestStack(t)
	id := register(t, m, "carol@example.com")

	_, err := m.Register(id, "carol2@example.com", validPassword)
	if !errors.Is(err, auth.ErrAlreadyExists) {
		t.Fatalf("duplicate id: got %v, want ErrAlreadyExists", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	m, _, _ := newTestStack(t)

	cases := []struct {
		name, email, password string
	}{
		{"bad email", "not-an-email", validPassword},
		{"empty email", "", validPassword},
		{"short password", "dave@example.com", "Ab1"},
		{"no uppercase", "dave@example.com", "alllower123"},
		{"no digit", "dave@example.com", "NoDigitsHere"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Register(uuid.New(), tc.email, tc.password)
			var ve *auth.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestLoginIssuesUsablePair(t *testing.T) {
	m, _, _ := newTestStack(t)
	register(t, m, "erin@example.com")

	pair, err := m.Login("erin@example.com", validPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !m.Validate(pair.AccessToken) {
		t.Error("access token should validate")
	}
	if m.Validate(pair.RefreshToken) {
		t.Error("refresh token must never validate as an access token")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	m, _, _ := newTestStack(t)
	register(t, m, "frank@example.com")

	_, errWrongPassword := m.Login("frank@example.com", "Wr0ngPassword")
	_, errUnknownEmail := m.Login("nobody@example.com", validPassword)

	if !errors.Is(errWrongPassword, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Error("failure content must not reveal which factor failed")
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	m, _, _ := newTestStack(t)
	register(t, m, "grace@example.com")

	pair, err := m.Login("grace@example.com", validPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := m.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !m.Validate(next.AccessToken) {
		t.Error("refreshed access token should validate")
	}

	// the presented token is not revoked on use; reuse stays permitted
	if _, err := m.Refresh(pair.RefreshToken); err != nil {
		t.Errorf("second refresh with the same token: %v", err)
	}
}

func TestRefreshRevokedToken(t *testing.T) {
	m, _, _ := newTestStack(t)
	register(t, m, "heidi@example.com")

	pair, err := m.Login("heidi@example.com", validPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.Logout(pair.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err = m.Refresh(pair.RefreshToken)
	if !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("revoked token: got %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshLedgerExpiredToken(t *testing.T) {
	m, mem, signer := newTestStack(t)
	id := register(t, m, "ivan@example.com")

	pair, err := m.Login("ivan@example.com", validPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// replace the ledger row with one whose expiry already passed while the
	// signature-embedded expiry is still far in the future
	hash := signer.HashToken(pair.RefreshToken)
	if _, err := mem.PurgeExpiredBefore(time.Now().Add(48 * time.Hour)); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := mem.Record(hash, id, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	_, err = m.Refresh(pair.RefreshToken)
	if !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("ledger-expired token: got %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshRejectsGarbageAndUnledgeredTokens(t *testing.T) {
	m, _, signer := newTestStack(t)

	if _, err := m.Refresh("garbage"); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("garbage: got %v, want ErrInvalidRefreshToken", err)
	}
	if m.Validate("garbage") {
		t.Error("garbage must not validate")
	}

	// well-signed but never recorded
	stray, err := signer.IssueRefreshToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if _, err := m.Refresh(stray); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("unledgered token: got %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLogoutIgnoresInvalidTokens(t *testing.T) {
	m, _, _ := newTestStack(t)
	if err := m.Logout("garbage"); err != nil {
		t.Fatalf("Logout of invalid token should be a no-op, got %v", err)
	}
}

// faultyUserStore simulates a credential-store outage on the lookup paths.
type faultyUserStore struct {
	*storage.Memory
	err error
}

func (f *faultyUserStore) FindByEmail(string) (*user.User, error) { return nil, f.err }
func (f *faultyUserStore) FindByID(uuid.UUID) (*user.User, error) { return nil, f.err }

func TestStorageFailureIsNotAuthFailure(t *testing.T) {
	m, mem, signer := newTestStack(t)
	register(t, m, "olive@example.com")
	pair, err := m.Login("olive@example.com", validPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	faulty := &faultyUserStore{Memory: mem, err: errors.New("connection refused")}
	fm := auth.NewManager(faulty, mem, &utils.BcryptHasher{Cost: bcrypt.MinCost}, signer)

	// a store outage must surface as internal, never as bad credentials
	_, err = fm.Login("olive@example.com", validPassword)
	if err == nil || errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("login during outage: got %v, want an internal error", err)
	}

	// same on the refresh path: the ledger row resolves, the owner lookup fails
	_, err = fm.Refresh(pair.RefreshToken)
	if err == nil || errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("refresh during outage: got %v, want an internal error", err)
	}
}

// racyUserStore makes the uniqueness pre-checks pass so registration races
// into the store's own constraint.
type racyUserStore struct {
	*storage.Memory
}

func (r *racyUserStore) ExistsByEmail(string) (bool, error) { return false, nil }
func (r *racyUserStore) ExistsByID(uuid.UUID) (bool, error) { return false, nil }

func TestRegisterRaceMapsToAlreadyExists(t *testing.T) {
	_, mem, signer := newTestStack(t)
	racy := &racyUserStore{Memory: mem}
	m := auth.NewManager(racy, mem, &utils.BcryptHasher{Cost: bcrypt.MinCost}, signer)

	if _, err := m.Register(uuid.New(), "mallory@example.com", validPassword); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := m.Register(uuid.New(), "mallory@example.com", validPassword)
	if !errors.Is(err, auth.ErrAlreadyExists) {
		t.Fatalf("lost race: got %v, want ErrAlreadyExists", err)
	}
}

func TestDeleteUser(t *testing.T) {
	m, _, _ := newTestStack(t)
	id := register(t, m, "judy@example.com")

	pair, err := m.Login("judy@example.com", validPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	deleted, err := m.DeleteUser(id)
	if err != nil || !deleted {
		t.Fatalf("DeleteUser(existing) = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = m.DeleteUser(id)
	if err != nil || deleted {
		t.Fatalf("DeleteUser(missing) = (%v, %v), want (false, nil)", deleted, err)
	}

	// cascading cleanup makes the old refresh token unresolvable
	if _, err := m.Refresh(pair.RefreshToken); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("refresh after owner deletion: got %v, want ErrInvalidRefreshToken", err)
	}
}
