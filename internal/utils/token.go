package utils // package utils provides helpers for session tokens, hashing and codes

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing of session tokens
	"encoding/hex"  // hex encoding of digests
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for signing session tokens
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid session token")

// SessionToken is the signed value handed to the client after login.
type SessionToken struct {
	Token string    // serialized JWT
	Exp   time.Time // UTC expiration time
}

// SessionClaims are the claims carried by a session token.  The token is
// only an envelope: the session id is looked up in the session store on
// every request, so logout takes effect immediately.
type SessionClaims struct {
	UserID    uint64
	SessionID string
	IssuedAt  time.Time
}

// NewSessionToken signs an HS256 JWT binding a session id to a user.  The
// claims are sub (user id as a decimal string), sid, iat and exp.
func NewSessionToken(secret string, userID uint64, sessionID string, issuedAt time.Time, ttl time.Duration) (SessionToken, error) {
	exp := issuedAt.UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"sid": sessionID,
		"iat": issuedAt.UTC().Unix(),
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and extracts
// its claims.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	return parseSessionToken(secret, raw)
}

// ParseSessionTokenAllowExpired verifies the signature only.  Logout uses it
// so that an expired token can still retire its session.
func ParseSessionTokenAllowExpired(secret, raw string) (SessionClaims, error) {
	return parseSessionToken(secret, raw, jwt.WithoutClaimsValidation())
}

func parseSessionToken(secret, raw string, opts ...jwt.ParserOption) (SessionClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return SessionClaims{}, ErrInvalidToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	var iat time.Time
	if d, err := claims.GetIssuedAt(); err == nil && d != nil {
		iat = d.Time
	}
	return SessionClaims{UserID: uid, SessionID: sid, IssuedAt: iat}, nil
}

// HashToken returns the SHA-256 hex digest of a raw token.  Only digests
// are persisted, so a leaked sessions table cannot be replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RandomDigits returns n decimal digits drawn from crypto/rand.
func RandomDigits(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
