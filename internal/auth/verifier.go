// Package auth verifies bearer tokens issued by the identity provider and
// attaches the subject to the request context.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-lista/internal/common"
)

// Verifier checks HS256 access tokens signed with a shared secret.
type Verifier struct {
	secret    []byte
	validator TokenValidator
	now       func() time.Time
}

// NewVerifier builds a verifier. Audience defaults to "authenticated".
func NewVerifier(secret, issuer, audience string, clockSkew time.Duration) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if audience == "" {
		audience = "authenticated"
	}
	return &Verifier{
		secret: []byte(secret),
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		now: time.Now,
	}, nil
}

// ParseAccessToken validates token and returns its subject.
func (v *Verifier) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", invalidToken(errNoToken)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", invalidToken(err)
	}
	if algorithm != v.validator.Algorithm {
		return "", invalidToken(fmt.Errorf("auth: unexpected token algorithm %q", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, v.secret), jwt.WithValidate(false))
	if err != nil {
		return "", invalidToken(err)
	}
	subject, err := v.validator.Subject(parsed, algorithm, v.now())
	if err != nil {
		return "", invalidToken(err)
	}
	return subject, nil
}

func invalidToken(err error) *common.AppError {
	return common.NewAppError(common.CodeAuthRequired, "missing or invalid token", http.StatusUnauthorized, err)
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}
