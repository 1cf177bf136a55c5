package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionLifetime はセッショントークンのデフォルト有効期間（2週間）。
const DefaultSessionLifetime = 14 * 24 * time.Hour

var signingMethod = jwt.SigningMethodHS384

// SessionClaims はセッショントークンのクレーム。
// ペイロードは {"user_id": "...", "exp": <unix秒>} となる。
type SessionClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenCodec はHMAC-SHA384で署名されたセッショントークンを発行・検証する。
type TokenCodec struct {
	key      []byte
	lifetime time.Duration
	parser   *jwt.Parser
	now      func() time.Time
}

// NewTokenCodec はTokenCodecを生成する。
func NewTokenCodec(key []byte, lifetime time.Duration) (*TokenCodec, error) {
	if len(key) == 0 {
		return nil, errors.New("hmac key must not be empty")
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("session lifetime must be positive: %s", lifetime)
	}
	return &TokenCodec{
		key:      key,
		lifetime: lifetime,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
		now: time.Now,
	}, nil
}

// Issue はユーザーIDに対するトークンを発行する。有効期限は現在時刻+有効期間。
func (c *TokenCodec) Issue(userID uuid.UUID) (string, error) {
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(c.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Decode はトークンを検証し、クレームを返す。
// 署名をクレームの解釈より先に検証するため、改ざんされたペイロードは
// 内容に関わらず ErrBadSignature となる。
// 有効期限ちょうどのトークンは有効として扱う。
func (c *TokenCodec) Decode(token string) (*SessionClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, newAuthError(KindMalformed, errors.New("token must have three segments"))
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, newAuthError(KindBadSignature, fmt.Errorf("decode signature: %w", err))
	}
	if err := signingMethod.Verify(parts[0]+"."+parts[1], sig, c.key); err != nil {
		return nil, newAuthError(KindBadSignature, err)
	}

	claims := &SessionClaims{}
	if _, err := c.parser.ParseWithClaims(token, claims, c.keyFunc); err != nil {
		return nil, newAuthError(KindMalformed, err)
	}
	if claims.UserID == uuid.Nil || claims.ExpiresAt == nil {
		return nil, newAuthError(KindMalformed, errors.New("missing user_id or exp claim"))
	}

	if claims.ExpiresAt.Unix() < c.now().Unix() {
		return nil, newAuthError(KindExpired, fmt.Errorf("expired at %s", claims.ExpiresAt.UTC().Format(time.RFC3339)))
	}
	return claims, nil
}

func (c *TokenCodec) keyFunc(*jwt.Token) (any, error) {
	return c.key, nil
}
