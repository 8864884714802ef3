package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

var errEmptySigningKey = errors.New("token service: signing key must not be empty")

// tokenClaims is the signed payload of a session token. The registered
// claims are spelled out so iat and exp keep nanosecond digits; jwt.NumericDate
// decodes through a float64 and would move the expiry by up to a second.
type tokenClaims struct {
	UserID     string       `json:"id"`
	Username   string       `json:"username"`
	FullName   string       `json:"full_name"`
	Role       domain.Role  `json:"role"`
	Department string       `json:"department,omitempty"`
	TokenID    string       `json:"jti,omitempty"`
	Issuer     string       `json:"iss,omitempty"`
	Subject    string       `json:"sub,omitempty"`
	IssuedAt   *numericDate `json:"iat,omitempty"`
	ExpiresAt  *numericDate `json:"exp,omitempty"`
}

func (c *tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt.toJWT(), nil }

func (c *tokenClaims) GetIssuedAt() (*jwt.NumericDate, error) { return c.IssuedAt.toJWT(), nil }

func (c *tokenClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

func (c *tokenClaims) GetIssuer() (string, error) { return c.Issuer, nil }

func (c *tokenClaims) GetSubject() (string, error) { return c.Subject, nil }

func (c *tokenClaims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// numericDate is a JWT NumericDate written as seconds with nine fractional
// digits and parsed back without going through a float.
type numericDate struct {
	time.Time
}

func newNumericDate(t time.Time) *numericDate {
	return &numericDate{Time: t}
}

func (d *numericDate) toJWT() *jwt.NumericDate {
	if d == nil {
		return nil
	}
	return &jwt.NumericDate{Time: d.Time}
}

func (d numericDate) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d.%09d", d.Unix(), d.Nanosecond())), nil
}

func (d *numericDate) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("numeric date: %w", err)
	}

	if strings.ContainsAny(n.String(), "eE") {
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("numeric date: %w", err)
		}
		whole, frac := math.Modf(f)
		d.Time = time.Unix(int64(whole), int64(frac*1e9))
		return nil
	}

	whole, frac, _ := strings.Cut(n.String(), ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return fmt.Errorf("numeric date: %w", err)
	}

	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nsec, err = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return fmt.Errorf("numeric date: %w", err)
		}
		if strings.HasPrefix(whole, "-") {
			nsec = -nsec
		}
	}
	d.Time = time.Unix(sec, nsec)
	return nil
}

// TokenService issues and verifies HS256 session tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenService struct {
	key    []byte
	issuer string
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock overrides the time source used for iat/exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(ts *TokenService) { ts.now = now }
}

// NewTokenService fails when key is empty so that a misconfigured process
// never issues tokens signed with an empty secret.
func NewTokenService(key []byte, issuer string, opts ...TokenOption) (*TokenService, error) {
	if len(key) == 0 {
		return nil, errEmptySigningKey
	}
	ts := &TokenService{
		key:    append([]byte(nil), key...),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// Issue signs claims into a token that expires ttl from now.
func (ts *TokenService) Issue(claims domain.Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: ttl must be positive, got %s", ttl)
	}

	now := ts.now()
	tc := &tokenClaims{
		UserID:     claims.ID,
		Username:   claims.Username,
		FullName:   claims.FullName,
		Role:       claims.Role,
		Department: claims.Department,
		TokenID:    uuid.NewString(),
		Issuer:     ts.issuer,
		Subject:    claims.ID,
		IssuedAt:   newNumericDate(now),
		ExpiresAt:  newNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(ts.key)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry (no leeway).
func (ts *TokenService) Verify(token string) (*domain.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}

	tc := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, tc, func(*jwt.Token) (any, error) {
		return ts.key, nil
	}, opts...)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, domain.ErrTokenMalformed)
	}

	id := &domain.Identity{
		ID:         tc.UserID,
		Username:   tc.Username,
		FullName:   tc.FullName,
		Role:       tc.Role,
		Department: tc.Department,
		TokenID:    tc.TokenID,
	}
	if tc.IssuedAt != nil {
		id.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		id.ExpiresAt = tc.ExpiresAt.Time
	}
	return id, nil
}

func classifyTokenError(err error) error {
	var reason error
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		reason = domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		reason = domain.ErrTokenSignature
	default:
		reason = domain.ErrTokenMalformed
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidToken, reason)
}
