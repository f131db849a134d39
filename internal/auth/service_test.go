package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	svc := NewService(nil, nil, testSecret, "dev")

	hash, err := svc.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery" || !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q, want an argon2id encoding", hash)
	}

	match, err := svc.VerifyPassword(hash, "correct horse battery")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !match {
		t.Error("correct password did not verify")
	}

	match, err = svc.VerifyPassword(hash, "wrong password")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if match {
		t.Error("wrong password verified")
	}
}

func TestHashPasswordSalts(t *testing.T) {
	svc := NewService(nil, nil, testSecret, "dev")

	a, err := svc.HashPassword("same password")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.HashPassword("same password")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two hashes of the same password must differ")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"minimum length", "12345678", nil},
		{"maximum length", strings.Repeat("x", 64), nil},
		{"too short", "1234567", ErrPasswordTooShort},
		{"too long", strings.Repeat("x", 65), ErrPasswordTooLong},
		{"length counts runes not bytes", strings.Repeat("ç", 8), nil},
		{"multi-byte still too short", strings.Repeat("ç", 7), ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePassword(tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}
