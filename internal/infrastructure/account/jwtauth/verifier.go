// Package jwtauth verifies HS256 bearer tokens issued by the identity service.
package jwtauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

// Claims is the token body. org_ids lists the gyms the caller works for.
type Claims struct {
	Email           string   `json:"email,omitempty"`
	OrganizationIDs []string `json:"org_ids,omitempty"`
	Admin           bool     `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func NewVerifier(secret, issuer string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	issuer = strings.TrimSpace(issuer)
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(opts...),
	}, nil
}

func (v *Verifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrUnauthorized, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return user.Principal{}, fmt.Errorf("%w: token subject is empty", usecase.ErrUnauthorized)
	}

	return user.Principal{
		UserID:          claims.Subject,
		Email:           claims.Email,
		OrganizationIDs: claims.OrganizationIDs,
		IsAdmin:         claims.Admin,
	}, nil
}

// Sign issues a token for claims. Used by tests and local tooling; production
// tokens come from the identity service.
func (v *Verifier) Sign(claims Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
