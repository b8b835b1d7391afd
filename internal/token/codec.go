package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/project-portal/internal/domain"
)

// Issuer identifies tokens minted by this system.
const Issuer = "project-portal"

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour

	// TokenType is the scheme clients use when presenting access tokens.
	TokenType = "Bearer"
)

// Config configures a Codec.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Clock      domain.Clock
}

// Codec issues and verifies HS256 session tokens.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      domain.Clock
}

// NewCodec builds a codec. A blank secret is a startup error: the process
// must not issue tokens nobody can verify.
func NewCodec(cfg Config) (*Codec, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("%w: token signing secret", domain.ErrConfigMissing)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = domain.RealClock{}
	}
	return &Codec{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      cfg.Clock,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// Issue signs an access and a refresh token for the given identity.
func (c *Codec) Issue(in domain.ClaimInput) (domain.TokenPair, error) {
	if in.SubjectID == "" {
		return domain.TokenPair{}, fmt.Errorf("%w: subject id required", domain.ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return domain.TokenPair{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}

	now := c.clock.Now()
	access, accessExp, err := c.sign(in, domain.TokenKindAccess, now, c.accessTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := c.sign(in, domain.TokenKindRefresh, now, c.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        TokenType,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (c *Codec) sign(in domain.ClaimInput, kind domain.TokenKind, now time.Time, ttl time.Duration) (string, time.Time, error) {
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	claims := &Claims{
		SubjectID:     in.SubjectID,
		PrincipalName: in.PrincipalName,
		Role:          in.Role,
		Kind:          kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   in.SubjectID,
			Issuer:    Issuer,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
			ID:        uuid.NewString(),
		},
	}
	signed, err := c.signClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt.Time, nil
}

func (c *Codec) signClaims(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks an access token and returns its claim.
func (c *Codec) Verify(tokenStr string) (*domain.IdentityClaim, error) {
	return c.verify(tokenStr, domain.TokenKindAccess)
}

// VerifyRefresh checks a refresh token and returns its claim.
func (c *Codec) VerifyRefresh(tokenStr string) (*domain.IdentityClaim, error) {
	return c.verify(tokenStr, domain.TokenKindRefresh)
}

func (c *Codec) verify(tokenStr string, want domain.TokenKind) (*domain.IdentityClaim, error) {
	// Expiry is decided on the decoded payload before the signature, so an
	// expired token always reports ErrTokenExpired.
	unverified, err := decodeClaims(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	}
	if unverified.ExpiresAt != nil && !c.clock.Now().Before(unverified.ExpiresAt.Time) {
		return nil, domain.ErrTokenExpired
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock.Now),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(tokenStr, &claims, c.keyFunc); err != nil {
		return nil, classify(err)
	}

	if err := validateClaims(&claims, want); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	}
	return claims.Identity(), nil
}

func (c *Codec) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, errors.New("unexpected signing method")
	}
	return c.secret, nil
}

func validateClaims(claims *Claims, want domain.TokenKind) error {
	switch {
	case claims.SubjectID == "":
		return errors.New("missing subject")
	case !claims.Role.Valid():
		return fmt.Errorf("unknown role %q", claims.Role)
	case claims.Kind != want:
		return fmt.Errorf("expected %s token, got %q", want, claims.Kind)
	case claims.IssuedAt == nil || !claims.ExpiresAt.After(claims.IssuedAt.Time):
		return errors.New("expiry must follow issue time")
	}
	return nil
}

// classify maps jwt parser failures onto the three verification kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	}
}
