package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// notBeforeSkew backdates nbf so freshly issued tokens survive small clock drift between hosts.
const notBeforeSkew = 5 * time.Second

// ErrInvalidToken is returned for tokens that fail signature or claim validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the registered JWT claims carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	Access       Claims
	Refresh      Claims
}

// TokenManager signs and verifies access and refresh tokens with separate HS256 keys.
type TokenManager struct {
	cfg TokenConfig
}

func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenManager{cfg: cfg}, nil
}

// Issue creates a fresh access/refresh pair for the user.
func (m *TokenManager) Issue(userID string) (TokenPair, error) {
	now := m.cfg.Now().UTC()

	access := m.claims(userID, now, m.cfg.AccessTTL)
	accessToken, err := sign(access, m.cfg.AccessSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := m.claims(userID, now, m.cfg.RefreshTTL)
	refreshToken, err := sign(refresh, m.cfg.RefreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    m.cfg.AccessTTL,
		Access:       access,
		Refresh:      refresh,
	}, nil
}

func (m *TokenManager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, m.cfg.AccessSecret)
}

func (m *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, m.cfg.RefreshSecret)
}

func (m *TokenManager) claims(userID string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			NotBefore: jwt.NewNumericDate(now.Add(-notBeforeSkew)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

func (m *TokenManager) parse(token, secret string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.cfg.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func sign(claims Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
