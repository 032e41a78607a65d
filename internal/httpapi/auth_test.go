package httpapi

import (
	"context"
	"testing"
	"time"

	"dailypos/backend/internal/domain"
	"dailypos/backend/internal/store/memory"
)

func TestLoginAndParseToken(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	resp, err := auth.Login(context.Background(), domain.LoginRequest{
		Username: "  Admin  ",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.Role != domain.RoleAdmin {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	if _, err := auth.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "wrong",
	}); err == nil {
		t.Fatalf("expected login failure for wrong password")
	}
	if _, err := auth.Login(context.Background(), domain.LoginRequest{
		Username: "nobody",
		Password: "admin123",
	}); err == nil {
		t.Fatalf("expected login failure for unknown user")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	repo := memory.NewSeeded()
	signer := NewAuthManager("secret-one-that-is-long", time.Hour, repo)
	verifier := NewAuthManager("secret-two-that-is-long", time.Hour, repo)

	resp, err := signer.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("token signed with a different secret must not verify")
	}
}

func TestTokensCarryCompanyScope(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	resp, err := auth.Login(context.Background(), domain.LoginRequest{
		Username: "demo",
		Password: "user123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != domain.RoleUser || resp.CompanyID == "" {
		t.Fatalf("company user should carry a company id: %+v", resp)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.CompanyID != resp.CompanyID {
		t.Fatalf("company id lost in claims: %q vs %q", actor.CompanyID, resp.CompanyID)
	}
}

func TestChangePassword(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)
	ctx := context.Background()
	actor := domain.Actor{Username: "demo", Role: domain.RoleUser}

	if err := auth.ChangePassword(ctx, actor, domain.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "replacement",
	}); err == nil {
		t.Fatalf("wrong current password must fail")
	}
	if err := auth.ChangePassword(ctx, actor, domain.ChangePasswordRequest{
		CurrentPassword: "user123",
		NewPassword:     "short",
	}); err == nil {
		t.Fatalf("short new password must fail")
	}

	if err := auth.ChangePassword(ctx, actor, domain.ChangePasswordRequest{
		CurrentPassword: "user123",
		NewPassword:     "replacement",
	}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := auth.Login(ctx, domain.LoginRequest{Username: "demo", Password: "user123"}); err == nil {
		t.Fatalf("old password must stop working")
	}
	if _, err := auth.Login(ctx, domain.LoginRequest{Username: "demo", Password: "replacement"}); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}
