// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and verifies player tokens. The subject is the player id; name travels as a
// claim so a reconnecting guest keeps its display name.
type Issuer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// expire of zero means tokens carry no exp claim.
	expire time.Duration
	now    func() time.Time
}

// NewIssuer generates a fresh ed25519 key pair. Tokens do not survive a restart.
func NewIssuer(expire time.Duration) (*Issuer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Issuer{privateKey: priv, publicKey: pub, expire: expire, now: time.Now}, nil
}

// NewIssuerFromPath reads an ed25519 key pair from raw key files.
func NewIssuerFromPath(privatePath, publicPath string, expire time.Duration) (*Issuer, error) {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("malformed ed25519 key files")
	}
	return &Issuer{
		privateKey: ed25519.PrivateKey(privateKeyData),
		publicKey:  ed25519.PublicKey(publicKeyData),
		expire:     expire,
		now:        time.Now,
	}, nil
}

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates a signed token for playerID.
func (i *Issuer) Issue(playerID uuid.UUID, name string) (string, error) {
	c := claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  playerID.String(),
			IssuedAt: jwt.NewNumericDate(i.now()),
		},
	}
	if i.expire > 0 {
		c.ExpiresAt = jwt.NewNumericDate(i.now().Add(i.expire))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c)
	return token.SignedString(i.privateKey)
}

// Guest issues a token for a brand new player id.
func (i *Issuer) Guest(name string) (uuid.UUID, string, error) {
	id := uuid.New()
	tok, err := i.Issue(id, name)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, tok, nil
}

// Authenticate verifies tokenString and returns the player id and name it carries.
func (i *Issuer) Authenticate(tokenString string) (uuid.UUID, string, error) {
	var c claims
	t, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.publicKey, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return uuid.Nil, "", ErrInvalidToken
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, c.Name, nil
}
