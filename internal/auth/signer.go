package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	claimRole = "role"
	claimType = "typ"

	// TokenTypeAccess and TokenTypeRefresh are the values of the "typ" claim.
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenSigner issues and verifies compact signed tokens and hashes raw
// refresh tokens for ledger storage.
type TokenSigner interface {
	IssueAccessToken(userID uuid.UUID, extra map[string]string) (string, error)
	IssueRefreshToken(userID uuid.UUID) (string, error)
	Validate(token string) bool
	Subject(token string) (uuid.UUID, error)
	ExpiresAt(token string) (time.Time, error)
	StringClaim(token, name string) string
	HashToken(token string) string
}

// Signer signs HS256 JWTs with a symmetric secret. The same secret keys the
// HMAC used to hash refresh tokens before they touch storage, so it must be
// identical across all replicas of the service.
type Signer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSigner decodes the base64-encoded secret and returns a ready signer.
func NewSigner(secretBase64 string, accessTTL, refreshTTL time.Duration) (*Signer, error) {
	key, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(key) == 0 {
		return nil, errors.New("signing secret is empty")
	}
	return &Signer{secret: key, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// IssueAccessToken embeds the subject, the extra claims (at minimum the role)
// and typ=access, expiring after the configured access TTL.
func (s *Signer) IssueAccessToken(userID uuid.UUID, extra map[string]string) (string, error) {
	return s.issue(userID, s.accessTTL, TokenTypeAccess, extra)
}

// IssueRefreshToken carries no extra claims and typ=refresh.
func (s *Signer) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return s.issue(userID, s.refreshTTL, TokenTypeRefresh, nil)
}

func (s *Signer) issue(userID uuid.UUID, ttl time.Duration, typ string, extra map[string]string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     userID.String(),
		"iat":     jwt.NewNumericDate(now),
		"exp":     jwt.NewNumericDate(now.Add(ttl)),
		claimType: typ,
	}
	for k, v := range extra {
		claims[k] = v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Signer) parse(tokenStr string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

// Validate checks signature integrity and expiry. The failure cause is logged
// for diagnostics only; callers get a single boolean.
func (s *Signer) Validate(tokenStr string) bool {
	if _, err := s.parse(tokenStr); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Printf("token rejected: expired")
		case errors.Is(err, jwt.ErrTokenMalformed):
			log.Printf("token rejected: malformed: %v", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Printf("token rejected: bad signature")
		default:
			log.Printf("token rejected: %v", err)
		}
		return false
	}
	return true
}

// Subject returns the user id embedded in a verified token.
func (s *Signer) Subject(tokenStr string) (uuid.UUID, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}

// ExpiresAt returns the expiry instant embedded in a verified token.
func (s *Signer) ExpiresAt(tokenStr string) (time.Time, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return exp.Time, nil
}

// StringClaim is a best-effort read: a malformed or unverifiable token
// behaves as "claim absent".
func (s *Signer) StringClaim(tokenStr, name string) string {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return ""
	}
	v, _ := claims[name].(string)
	return v
}

// HashToken returns the HMAC-SHA256 hex digest of a raw token, keyed with the
// signing secret. Only this digest is ever persisted.
func (s *Signer) HashToken(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
