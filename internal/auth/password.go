package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
)

// maxHashMemory はデコード時に受け付けるメモリコストの上限（KiB）。
const maxHashMemory = 1 << 20

// HashParams はArgon2idのパラメータ。
type HashParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams はデフォルトのArgon2idパラメータを返す。
// m=19456 KiB, t=2, p=1, 16バイトのソルト, 32バイトの出力。
func DefaultHashParams() HashParams {
	return HashParams{
		Memory:      19456,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// HashObserver はハッシュ計算の所要時間を受け取る。
type HashObserver interface {
	ObserveHashDuration(op string, d time.Duration)
}

// HasherOption はHasherの設定を変更する。
type HasherOption func(*Hasher)

// WithHashParams はArgon2idのパラメータを指定する。
func WithHashParams(p HashParams) HasherOption {
	return func(h *Hasher) {
		h.params = p
	}
}

// WithHashObserver は所要時間の記録先を指定する。
func WithHashObserver(o HashObserver) HasherOption {
	return func(h *Hasher) {
		h.observer = o
	}
}

// Hasher はパスワードのハッシュ化と検証を行う。
// 計算はCPU負荷が高いため、同時実行数を制限したワーカーで実行する。
// 呼び出し側は計算が完了するかコンテキストがキャンセルされるまで待機する。
type Hasher struct {
	params   HashParams
	sem      chan struct{}
	observer HashObserver
}

// NewHasher はHasherを生成する。
// maxConcurrentが0以下の場合はCPU数を使用する。
func NewHasher(maxConcurrent int, opts ...HasherOption) *Hasher {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}
	h := &Hasher{
		params: DefaultHashParams(),
		sem:    make(chan struct{}, maxConcurrent),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash は新しいソルトで平文をハッシュ化し、PHC形式の文字列を返す。
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	var (
		digest  string
		hashErr error
	)
	err := h.dispatch(ctx, "hash", func() {
		digest, hashErr = h.hash(plaintext)
	})
	if err != nil {
		return "", err
	}
	if hashErr != nil {
		return "", hashErr
	}
	return digest, nil
}

// Verify は平文がdigestと一致するかを定数時間で比較する。
// digestの形式が不正な場合は一致しないものとして扱う。
// エラーはコンテキストのキャンセル時のみ返す。
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	var ok bool
	err := h.dispatch(ctx, "verify", func() {
		ok = verifyHash(plaintext, digest)
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// dispatch はfnをワーカーで実行し、完了を待つ。
// 空きがない場合はコンテキストがキャンセルされるまで待機する。
func (h *Hasher) dispatch(ctx context.Context, op string, fn func()) error {
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		defer func() { <-h.sem }()
		defer close(done)

		start := time.Now()
		fn()
		if h.observer != nil {
			h.observer.ObserveHashDuration(op, time.Since(start))
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
	return encodeHash(h.params, salt, key), nil
}

func verifyHash(plaintext, digest string) bool {
	p, salt, key, err := decodeHash(digest)
	if err != nil {
		return false
	}

	other := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, other) == 1
}

func encodeHash(p HashParams, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

var errInvalidHash = errors.New("invalid argon2id hash")

func decodeHash(digest string) (HashParams, []byte, []byte, error) {
	var p HashParams

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errInvalidHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, errInvalidHash
	}
	if p.Memory == 0 || p.Memory > maxHashMemory || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, errInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errInvalidHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
