package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	errNilToken  = errors.New("auth: token is nil")
	errNoSubject = errors.New("auth: token has no subject")
)

// TokenValidator checks the registered claims of an already verified token.
// Empty Issuer, Audience or Role skip that check.
type TokenValidator struct {
	Issuer    string
	Audience  string
	Role      string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
}

// Subject validates tok as signed with algorithm at now and returns the user
// id it was issued for.
func (v TokenValidator) Subject(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) (string, error) {
	if tok == nil {
		return "", errNilToken
	}
	if v.Algorithm != "" && algorithm != v.Algorithm {
		return "", fmt.Errorf("auth: unexpected token algorithm %q", algorithm)
	}
	if err := jwt.Validate(tok, v.options(now)...); err != nil {
		return "", err
	}
	subject := strings.TrimSpace(tok.Subject())
	if subject == "" {
		return "", errNoSubject
	}
	return subject, nil
}

func (v TokenValidator) options(now time.Time) []jwt.ValidateOption {
	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(v.ClockSkew),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if v.Role != "" {
		opts = append(opts, jwt.WithClaimValue("role", v.Role))
	}
	return opts
}
