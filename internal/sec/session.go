package sec

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "taskdeck_session"

// ErrInvalidSession is returned when a session token fails verification.
var ErrInvalidSession = errors.New("invalid session token")

type sessionClaims struct {
	jwt.RegisteredClaims
	// UserID is the principal's user ID, as a decimal string to survive
	// JSON number precision.
	UserID string `json:"uid"`
}

// IssueSessionToken mints a signed session token for the given user ID,
// valid for ttl.
func IssueSessionToken(userID uint64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: strconv.FormatUint(userID, 10),
	})
	return token.SignedString(secret)
}

// ParseSessionToken verifies a session token and returns the user ID it was
// issued for. Expired, malformed, or mis-signed tokens return
// [ErrInvalidSession].
func ParseSessionToken(tokenString string, secret []byte) (uint64, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if !token.Valid {
		return 0, ErrInvalidSession
	}
	userID, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad uid claim: %w", ErrInvalidSession, err)
	}
	return userID, nil
}
