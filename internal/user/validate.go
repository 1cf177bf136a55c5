package user

import (
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/kiwi/internal/model"
	"github.com/hitoshi/kiwi/internal/security"
)

const (
	maxUsernameLength = 64
	maxEmailLength    = 254
	maxPasswordLength = 256
)

// validator はフィールドごとの検証エラーを収集する。
type validator struct {
	fields map[string][]string
}

func newValidator() *validator {
	return &validator{fields: map[string][]string{}}
}

func (v *validator) add(field, reason string) {
	v.fields[field] = append(v.fields[field], reason)
}

func (v *validator) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, "can't be blank")
		return false
	}
	return true
}

func (v *validator) username(username string) {
	if !v.required("username", username) {
		return
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		v.add("username", "is too long")
	}
}

func (v *validator) email(email string) {
	if !v.required("email", email) {
		return
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || len(email) > maxEmailLength {
		v.add("email", "is invalid")
	}
}

func (v *validator) password(password string) {
	if !v.required("password", password) {
		return
	}
	if utf8.RuneCountInString(password) > maxPasswordLength {
		v.add("password", "is too long")
	}
}

func (v *validator) image(image string) {
	if image == "" {
		return
	}
	if !security.IsSafeImageURL(image) {
		v.add("image", "is invalid")
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return model.NewUnprocessableEntityError(v.fields)
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
