// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが投稿したテキスト（メッセージ本文、自己紹介）から
// HTMLを除去する。bluemondayのStrictPolicyを使用し、タグと属性をすべて取り除く。
// 出力はプレーンテキストとして保存・返却されるため、エスケープは表示側で行う。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize は全てのHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// script, styleは中身ごと除去される。
	// タグ以外の文字（' & < " など）はそのまま残す。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため共有して使用する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は全てのHTMLタグを除去したテキストを返す。
// StrictPolicyは残ったテキストをHTMLエスケープして返すため、元の文字に戻す。
func (s *textSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// IsSafeImageURL はプロフィール画像として受け付けるURLかを判定する。
// http/httpsの絶対URLのみ許可する。
func IsSafeImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return false
	}
	return u.Host != ""
}
