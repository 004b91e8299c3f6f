package utils

import "golang.org/x/crypto/bcrypt"

// BcryptHasher wraps bcrypt behind the manager's PasswordHasher contract.
// Each hash carries its own salt; comparison is constant-time.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

// Hash returns the bcrypt digest of the plaintext password.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	return string(digest), err
}

// Verify reports whether the plaintext matches the stored digest.
func (h *BcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
