package jwt

import (
	"strings"
	"testing"
	"time"
)

func TestValidateToken(t *testing.T) {
	v := NewValidator(Config{SecretKey: "test-secret"})

	t.Run("valid token round trip", func(t *testing.T) {
		token, err := v.GenerateToken("user-42", "Alice", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken error: %v", err)
		}

		claims, err := v.ValidateToken(token)
		if err != nil {
			t.Fatalf("ValidateToken error: %v", err)
		}
		if claims.UserID != "user-42" {
			t.Errorf("UserID = %q, want %q", claims.UserID, "user-42")
		}
		if claims.Name != "Alice" {
			t.Errorf("Name = %q, want %q", claims.Name, "Alice")
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := v.GenerateToken("user-42", "Alice", -time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken error: %v", err)
		}
		if _, err := v.ValidateToken(token); err == nil {
			t.Error("ValidateToken should reject an expired token")
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := NewValidator(Config{SecretKey: "other-secret"})
		token, err := other.GenerateToken("user-42", "Alice", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken error: %v", err)
		}
		if _, err := v.ValidateToken(token); err == nil {
			t.Error("ValidateToken should reject a token signed with another secret")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := v.ValidateToken("not.a.token"); err == nil {
			t.Error("ValidateToken should reject garbage")
		}
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		token, err := v.GenerateToken("user-42", "Alice", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken error: %v", err)
		}
		parts := strings.Split(token, ".")
		tampered := parts[0] + "." + parts[1] + "." + "AAAA"
		if _, err := v.ValidateToken(tampered); err == nil {
			t.Error("ValidateToken should reject a tampered signature")
		}
	})
}

func TestExtractUserID(t *testing.T) {
	v := NewValidator(Config{SecretKey: "test-secret"})

	token, err := v.GenerateToken("user-42", "", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	userID, err := v.ExtractUserID(token)
	if err != nil {
		t.Fatalf("ExtractUserID error: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("ExtractUserID = %q, want %q", userID, "user-42")
	}
}
