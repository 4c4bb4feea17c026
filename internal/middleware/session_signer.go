package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignSessionCookie はセッションIDからCookie値を生成する。
// 値は「<セッションID>.<HMAC-SHA256タグ>」の形式で、タグはSESSION_SECRETを
// 鍵としてセッションIDに対して計算する。
func SignSessionCookie(sessionID, secret string) string {
	return sessionID + "." + sessionCookieTag(sessionID, secret)
}

// ParseSessionCookie はCookie値の署名を検証し、セッションIDを取り出す。
// 形式不正または署名不一致の場合はfalseを返す。検証はDB参照の前に行うため、
// 偽造されたCookieはセッションストアに到達しない。
func ParseSessionCookie(value, secret string) (string, bool) {
	sessionID, tag, ok := strings.Cut(value, ".")
	if !ok || sessionID == "" {
		return "", false
	}
	if !hmac.Equal([]byte(tag), []byte(sessionCookieTag(sessionID, secret))) {
		return "", false
	}
	return sessionID, true
}

func sessionCookieTag(sessionID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}
