package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("valid password", func(t *testing.T) {
		hash, err := HashPassword("password12345", bcrypt.MinCost)
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if hash == "password12345" || hash == "" {
			t.Error("password not hashed")
		}
	})

	t.Run("too short", func(t *testing.T) {
		_, err := HashPassword("short", bcrypt.MinCost)
		if !errors.Is(err, ErrPasswordTooShort) {
			t.Errorf("error = %v, want ErrPasswordTooShort", err)
		}
	})

	t.Run("too long", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("a", 73), bcrypt.MinCost)
		if !errors.Is(err, ErrPasswordTooLong) {
			t.Errorf("error = %v, want ErrPasswordTooLong", err)
		}
	})
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("password12345", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if err := CheckPassword("password12345", hash); err != nil {
		t.Errorf("CheckPassword failed for correct password: %v", err)
	}

	if err := CheckPassword("wrongpassword", hash); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("error = %v, want ErrInvalidPassword", err)
	}
}

func TestGenerateSessionSecret(t *testing.T) {
	s1, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("GenerateSessionSecret failed: %v", err)
	}
	s2, _ := GenerateSessionSecret()

	if len(s1) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(s1))
	}
	if s1 == s2 {
		t.Error("secrets should be random")
	}
}
