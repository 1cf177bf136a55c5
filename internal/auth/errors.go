package auth

import "fmt"

// ErrorKind は認証失敗の内部的な分類を表す。
// 診断ログとメトリクスにのみ使用し、クライアントへの応答は区別しない。
type ErrorKind int

const (
	// KindMissingHeader はAuthorizationヘッダーが存在しないことを示す。
	KindMissingHeader ErrorKind = iota + 1
	// KindMalformed はヘッダーまたはトークンの構造が不正であることを示す。
	KindMalformed
	// KindWrongScheme はスキームが "Token " ではないことを示す。
	KindWrongScheme
	// KindBadSignature は署名の検証に失敗したことを示す。
	KindBadSignature
	// KindExpired はトークンの有効期限が切れていることを示す。
	KindExpired
)

// String はメトリクスラベルやログに使う名前を返す。
func (k ErrorKind) String() string {
	switch k {
	case KindMissingHeader:
		return "missing_header"
	case KindMalformed:
		return "malformed"
	case KindWrongScheme:
		return "wrong_scheme"
	case KindBadSignature:
		return "bad_signature"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// AuthError は認証失敗を表すエラー。
// errors.Is で ErrMissingHeader などの種別と比較できる。
type AuthError struct {
	Kind ErrorKind
	Err  error
}

// 種別比較用のセンチネル。
var (
	ErrMissingHeader = &AuthError{Kind: KindMissingHeader}
	ErrMalformed     = &AuthError{Kind: KindMalformed}
	ErrWrongScheme   = &AuthError{Kind: KindWrongScheme}
	ErrBadSignature  = &AuthError{Kind: KindBadSignature}
	ErrExpired       = &AuthError{Kind: KindExpired}
)

func newAuthError(kind ErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// Error はerrorインターフェースを実装する。
func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth: %s", e.Kind)
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

// Unwrap は原因となったエラーを返す。
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is は種別が一致する場合にtrueを返す。
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
