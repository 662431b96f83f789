package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("jwt: empty secret")
	// ErrMissingIdentity el token es válido pero no acredita usuario o tenant.
	ErrMissingIdentity = errors.New("jwt: token without user_id or tenant_id")
)

// Identity actor que el token acredita. Todo movimiento de inventario se atribuye a UserID
// dentro de TenantID; Role decide qué rutas puede usar.
type Identity struct {
	UserID   string
	TenantID string
	Role     string // "admin" | "bodeguero" | "vendedor"
}

// Claims claims estándar más la identidad. El usuario viaja en user_id; sub se acepta como respaldo.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

func (c *Claims) identity() (Identity, error) {
	id := Identity{UserID: c.UserID, TenantID: c.TenantID, Role: c.Role}
	if id.UserID == "" {
		id.UserID = c.Subject
	}
	if id.UserID == "" || id.TenantID == "" {
		return Identity{}, ErrMissingIdentity
	}
	return id, nil
}

// Sign firma con HS256 un token para id emitido por issuer, válido durante ttl.
func Sign(secret, issuer string, id Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   id.UserID,
		TenantID: id.TenantID,
		Role:     id.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verifier valida tokens HS256 con expiración obligatoria. Con issuer no vacío exige ese emisor.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier crea un verificador para el secreto y emisor configurados.
func NewVerifier(secret, issuer string) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}
}

// Verify valida firma, expiración y emisor, y devuelve la identidad del token.
func (v *Verifier) Verify(token string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, ErrEmptySecret
	}
	var claims Claims
	if _, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}); err != nil {
		return Identity{}, fmt.Errorf("jwt: %w", err)
	}
	return claims.identity()
}
