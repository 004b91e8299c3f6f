package auth

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/keyline-labs/auth-service/internal/user"
)

// UserStore is the credential-store capability the manager needs.
type UserStore interface {
	Create(u *user.User) error
	FindByEmail(email string) (*user.User, error)
	FindByID(id uuid.UUID) (*user.User, error)
	ExistsByEmail(email string) (bool, error)
	ExistsByID(id uuid.UUID) (bool, error)
	Delete(id uuid.UUID) (int64, error)
}

// PasswordHasher is an opaque one-way hash with constant-time verification.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserSummary is the redacted view returned by registration. It never carries
// the password hash.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Manager orchestrates credential registration, login, refresh, validation
// and user deletion over constructor-supplied collaborators.
type Manager struct {
	users  UserStore
	ledger Ledger
	hasher PasswordHasher
	signer TokenSigner
}

func NewManager(users UserStore, ledger Ledger, hasher PasswordHasher, signer TokenSigner) *Manager {
	return &Manager{users: users, ledger: ledger, hasher: hasher, signer: signer}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateCredentials(email, password string) error {
	if email == "" || len(email) > 255 || !emailPattern.MatchString(email) {
		return &ValidationError{Message: "email should be valid"}
	}
	if len(password) < 8 || len(password) > 255 {
		return &ValidationError{Message: "password must be between 8 and 255 characters long"}
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return &ValidationError{Message: "password must contain at least one lowercase letter, one uppercase letter, and one digit"}
	}
	return nil
}

// Register stores new credentials. Both the email and the supplied id must be
// free; a collision on either is rejected, never silently merged.
func (m *Manager) Register(id uuid.UUID, email, password string) (*UserSummary, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	if exists, err := m.users.ExistsByEmail(email); err != nil {
		return nil, fmt.Errorf("check email uniqueness: %w", err)
	} else if exists {
		return nil, ErrAlreadyExists
	}
	if exists, err := m.users.ExistsByID(id); err != nil {
		return nil, fmt.Errorf("check id uniqueness: %w", err)
	} else if exists {
		return nil, ErrAlreadyExists
	}

	digest, err := m.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           id,
		Email:        email,
		PasswordHash: digest,
		Role:         user.DefaultRole,
	}
	if err := m.users.Create(u); err != nil {
		// race between the uniqueness pre-check and the insert
		if errors.Is(err, ErrAlreadyExists) || isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	log.Printf("user %s registered", u.ID)
	return &UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}, nil
}

// Login verifies the password and mints a token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (m *Manager) Login(email, password string) (*TokenPair, error) {
	u, err := m.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !m.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return m.mintPair(u)
}

// Refresh validates a presented refresh token against both its signature and
// the ledger, then mints a fresh pair. The presented token is not revoked:
// it stays usable until its own expiry or an explicit revocation.
func (m *Manager) Refresh(rawToken string) (*TokenPair, error) {
	if !m.signer.Validate(rawToken) {
		return nil, ErrInvalidRefreshToken
	}

	rec, err := m.ledger.FindByHash(m.signer.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if rec.IsRevoked || !rec.ExpiresAt.After(time.Now()) {
		return nil, ErrInvalidRefreshToken
	}

	u, err := m.users.FindByID(rec.UserID)
	if err != nil {
		// orphaned row; the owner is gone, so the token must not resolve
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("resolve token owner: %w", err)
	}
	return m.mintPair(u)
}

// mintPair is the only path that writes to the ledger.
func (m *Manager) mintPair(u *user.User) (*TokenPair, error) {
	access, err := m.signer.IssueAccessToken(u.ID, map[string]string{claimRole: u.Role})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := m.signer.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	expiresAt, err := m.signer.ExpiresAt(refresh)
	if err != nil {
		return nil, fmt.Errorf("read refresh expiry: %w", err)
	}
	if _, err := m.ledger.Record(m.signer.HashToken(refresh), u.ID, expiresAt); err != nil {
		return nil, fmt.Errorf("record refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Validate reports whether a token is an acceptable access token. A
// structurally valid refresh token validates to false.
func (m *Manager) Validate(token string) bool {
	return m.signer.Validate(token) && m.signer.StringClaim(token, claimType) == TokenTypeAccess
}

// Logout revokes the presented refresh token's ledger row. Tokens that do not
// verify are ignored; revocation of an unknown hash is a no-op.
func (m *Manager) Logout(rawToken string) error {
	if !m.signer.Validate(rawToken) {
		return nil
	}
	if err := m.ledger.Revoke(m.signer.HashToken(rawToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// DeleteUser reports whether a user existed and was removed. A missing user
// is not an error; only unexpected storage failures are.
func (m *Manager) DeleteUser(id uuid.UUID) (bool, error) {
	n, err := m.users.Delete(id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	if n > 0 {
		log.Printf("user %s deleted", id)
	}
	return n > 0, nil
}
