package model

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Taro@Example.COM ", "taro@example.com"},
		{"cast@example.com", "cast@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleCastMember, RoleAdmin, RoleParent, RoleEducator} {
		if !ValidRole(r) {
			t.Errorf("ValidRole(%q) = false, want true", r)
		}
	}
	for _, r := range []Role{"producer", "", "CAST_MEMBER"} {
		if ValidRole(r) {
			t.Errorf("ValidRole(%q) = true, want false", r)
		}
	}
}

func TestPasswordResetToken_Valid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token PasswordResetToken
		want  bool
	}{
		{
			name:  "未使用かつ期限内",
			token: PasswordResetToken{Used: false, ExpiresAt: now.Add(time.Hour)},
			want:  true,
		},
		{
			name:  "使用済み",
			token: PasswordResetToken{Used: true, ExpiresAt: now.Add(time.Hour)},
			want:  false,
		},
		{
			name:  "期限切れ",
			token: PasswordResetToken{Used: false, ExpiresAt: now.Add(-time.Minute)},
			want:  false,
		},
		{
			name:  "ちょうど期限時刻",
			token: PasswordResetToken{Used: false, ExpiresAt: now},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.Valid(now); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
