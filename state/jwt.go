package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidPayload is returned when a protected blob fails verification
	// or does not carry a recognizable property bag.
	ErrInvalidPayload = errors.New("invalid state payload")
)

// DefaultStateTTL bounds how long a challenge stays redeemable.
const DefaultStateTTL = 10 * time.Minute

// JWTProtector protects properties as an HMAC-signed JWT with a short TTL.
// It is the default Protector: the blob is tamper-evident and expires on its
// own, so no server-side state is needed to invalidate stale challenges.
type JWTProtector struct {
	signingKey    []byte
	signingMethod jwt.SigningMethod
	issuer        string
	ttl           time.Duration
}

// JWTConfig configures a JWTProtector.
type JWTConfig struct {
	SigningKey    []byte            // Required.
	SigningMethod jwt.SigningMethod // Optional: defaults to HS256.
	Issuer        string            // Optional: stamped into and required from every blob.
	TTL           time.Duration     // Optional: defaults to DefaultStateTTL.
}

// NewJWTProtector creates a JWT-based state protector.
func NewJWTProtector(cfg JWTConfig) (*JWTProtector, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("signing key is required")
	}

	method := cfg.SigningMethod
	if method == nil {
		method = jwt.SigningMethodHS256
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultStateTTL
	}

	return &JWTProtector{
		signingKey:    cfg.SigningKey,
		signingMethod: method,
		issuer:        cfg.Issuer,
		ttl:           ttl,
	}, nil
}

type stateClaims struct {
	RedirectURI string            `json:"redirect_uri,omitempty"`
	Items       map[string]string `json:"items,omitempty"`
	jwt.RegisteredClaims
}

// Protect serializes the properties as a signed JWT.
func (p *JWTProtector) Protect(props *Properties) (string, error) {
	if props == nil {
		return "", ErrInvalidPayload
	}

	now := time.Now()
	claims := stateClaims{
		RedirectURI: props.RedirectURI,
		Items:       props.Items,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(p.signingMethod, claims).SignedString(p.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return token, nil
}

// Unprotect verifies the JWT and recovers the properties.
func (p *JWTProtector) Unprotect(value string) (*Properties, error) {
	var opts []jwt.ParserOption
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.ParseWithClaims(value, &stateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != p.signingMethod {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.signingKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidPayload
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok {
		return nil, ErrInvalidPayload
	}

	return &Properties{
		RedirectURI: claims.RedirectURI,
		Items:       claims.Items,
	}, nil
}
