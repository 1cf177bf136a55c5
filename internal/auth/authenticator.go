// Package auth はパスワードハッシュ、セッショントークン、リクエスト認証を提供する。
package auth

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SchemePrefix はAuthorizationヘッダーのスキーム接頭辞。
const SchemePrefix = "Token "

// Identity は認証済みの呼び出し元を表す。
type Identity struct {
	UserID uuid.UUID
}

// Authenticator はリクエストヘッダーから呼び出し元を特定する。
type Authenticator struct {
	codec *TokenCodec
}

// NewAuthenticator はAuthenticatorを生成する。
func NewAuthenticator(codec *TokenCodec) *Authenticator {
	return &Authenticator{codec: codec}
}

// Authenticate は "Authorization: Token <jwt>" ヘッダーを検証する。
// 失敗時は *AuthError を返す。
func (a *Authenticator) Authenticate(h http.Header) (Identity, error) {
	values := h.Values("Authorization")
	if len(values) == 0 {
		return Identity{}, newAuthError(KindMissingHeader, nil)
	}

	value := values[0]
	if !utf8.ValidString(value) {
		return Identity{}, newAuthError(KindMalformed, errors.New("authorization header is not valid UTF-8"))
	}
	if !strings.HasPrefix(value, SchemePrefix) {
		return Identity{}, newAuthError(KindWrongScheme, nil)
	}

	claims, err := a.codec.Decode(strings.TrimPrefix(value, SchemePrefix))
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID}, nil
}

// IssueFor は指定したIdentityのトークンを発行する。
func (a *Authenticator) IssueFor(id Identity) (string, error) {
	return a.codec.Issue(id.UserID)
}

// KindOf はエラーに含まれる認証失敗の種別を返す。該当しない場合は0。
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return 0
}
