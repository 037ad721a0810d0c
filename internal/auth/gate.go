package auth

import (
	"github.com/gviz-app/gviz-api/internal/domain"
)

// Gate validates tokens on every protected request: signature, expiry,
// then revocation. Any failure maps to an unauthorized response at the
// boundary; the gate never degrades silently.
type Gate struct {
	issuer      *Issuer
	revocations *Revocations
}

func NewGate(issuer *Issuer, revocations *Revocations) *Gate {
	return &Gate{
		issuer:      issuer,
		revocations: revocations,
	}
}

// Authenticate returns the subject of a valid token, or one of
// ErrTokenMalformed, ErrTokenExpired, ErrTokenRevoked.
func (g *Gate) Authenticate(raw string) (domain.UserID, error) {
	claims, err := g.issuer.Parse(raw)
	if err != nil {
		return "", err
	}

	if g.revocations.IsRevoked(claims.ID) {
		return "", ErrTokenRevoked
	}

	return domain.UserID(claims.Subject), nil
}

// Revoke invalidates a still-valid token. Expired or malformed tokens are
// rejected with the corresponding parse error.
func (g *Gate) Revoke(raw string) error {
	claims, err := g.issuer.Parse(raw)
	if err != nil {
		return err
	}

	g.revocations.Revoke(claims.ID, claims.ExpiresAt.Time)
	return nil
}
