package auth

import (
	"testing"
	"time"
)

func newTestAuth(t *testing.T) (*Service, string) {
	t.Helper()
	pw := NewPasswordManager(4, 8) // low cost for tests
	hash, err := pw.HashPassword("Operat0r!pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	jwt := NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	return NewService("operator", hash, jwt, pw), "Operat0r!pass"
}

func TestLoginSuccess(t *testing.T) {
	svc, password := newTestAuth(t)

	pair, err := svc.Login(LoginRequest{Username: "operator", Password: password})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("expected Bearer token type, got %s", pair.TokenType)
	}

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.Username != "operator" {
		t.Errorf("expected operator claims, got %+v", claims)
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	svc, password := newTestAuth(t)

	if _, err := svc.Login(LoginRequest{Username: "operator", Password: "wrong"}); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(LoginRequest{Username: "intruder", Password: password}); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, password := newTestAuth(t)

	pair, err := svc.Login(LoginRequest{Username: "operator", Password: password})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	next, err := svc.Refresh(RefreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("refresh token must rotate")
	}

	// The old token is now revoked
	if _, err := svc.Refresh(RefreshRequest{RefreshToken: pair.RefreshToken}); err != ErrSessionRevoked {
		t.Errorf("expected ErrSessionRevoked for rotated token, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, password := newTestAuth(t)

	pair, err := svc.Login(LoginRequest{Username: "operator", Password: password})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	svc.Logout(pair.RefreshToken)
	if _, err := svc.Refresh(RefreshRequest{RefreshToken: pair.RefreshToken}); err != ErrSessionRevoked {
		t.Errorf("expected ErrSessionRevoked after logout, got %v", err)
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuth(t)
	if _, err := svc.ValidateAccessToken("not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	pw := NewPasswordManager(4, 8)

	if err := pw.ValidatePasswordStrength("Operat0r!pass"); err != nil {
		t.Errorf("strong password rejected: %v", err)
	}
	if err := pw.ValidatePasswordStrength("short"); err == nil {
		t.Error("short password accepted")
	}
	if err := pw.ValidatePasswordStrength("alllowercase"); err == nil {
		t.Error("single-class password accepted")
	}
}
