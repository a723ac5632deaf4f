// Package authsvc issues and verifies the signed JWTs that carry a user's
// identity between requests.
package authsvc

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

var ErrInvalidToken = core.NewForbiddenError(core.ReasonBadCredential)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type Verifier struct {
	secret []byte
	expiry time.Duration
	issuer string
}

var _ core.CredentialVerifier = (*Verifier)(nil)

func NewVerifier() *Verifier {
	return &Verifier{
		secret: []byte(core.Conf.GetString("secretKey")),
		expiry: core.Conf.GetDuration("jwtExpirationDelta"),
		issuer: core.Conf.GetString("appName"),
	}
}

// NewUserClaims builds the claims set for a freshly authenticated user.
func (v *Verifier) NewUserClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    v.issuer,
			Subject:   usr.ID,
			ExpiresAt: now.Add(v.expiry).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  usr.Name,
		Email: usr.Email,
		Role:  usr.Role,
	}
}

// Issue signs a token string for the user.
func (v *Verifier) Issue(usr user.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, v.NewUserClaims(usr))
	ss, err := token.SignedString(v.secret)
	return ss, errors.Wrap(err, "signing token")
}

// Verify parses and validates a token string, returning the identity it
// carries. Any malformed, mis-signed or expired token maps to ErrInvalidToken.
func (v *Verifier) Verify(tokenStr string) (core.Identity, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return core.Identity{}, ErrInvalidToken
	}
	return core.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
