package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestRegisterAndLogin(t *testing.T) {
	mock := newMock(t)
	svc := NewService("test-secret", mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "alice@example.com", "alice", pgxmock.AnyArg(), "Alice").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	user, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter22",
		Name:     "Alice",
	})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if user.ID == "" || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("incomplete register response: %+v %+v", user, tokens)
	}
	if tokens.TokenType != "Bearer" {
		t.Fatalf("unexpected token type %q", tokens.TokenType)
	}

	mock.ExpectQuery(`SELECT id, email, username, password_hash`).
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "username", "password_hash", "name", "pfp", "description", "created_at", "updated_at",
		}).AddRow(user.ID, user.Email, user.Username, user.PasswordHash, "Alice", "", "", now, now))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	_, loginTokens, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if loginTokens.AccessToken == "" {
		t.Fatalf("missing access token")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	mock := newMock(t)
	svc := NewService("test-secret", mock)

	_, _, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.c"})
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	mock := newMock(t)
	svc := NewService("test-secret", mock)
	now := time.Now()

	// bcrypt hash of a different password
	mock.ExpectQuery(`SELECT id, email, username, password_hash`).
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "username", "password_hash", "name", "pfp", "description", "created_at", "updated_at",
		}).AddRow("user-1", "alice@example.com", "alice", "$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinval", "", "", "", now, now))

	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "wrong"})
	if err == nil {
		t.Fatalf("expected login failure")
	}
}

func TestValidateAccessToken(t *testing.T) {
	mock := newMock(t)
	svc := NewService("test-secret", mock)

	token, err := svc.signToken("user-42", time.Minute)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	userID, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("unexpected user id %q", userID)
	}

	if _, err := svc.ValidateAccessToken(token + "x"); err == nil {
		t.Fatalf("expected tampered token to fail")
	}

	other := NewService("other-secret", mock)
	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Fatalf("expected wrong-secret token to fail")
	}
}

func TestValidateRefreshToken(t *testing.T) {
	mock := newMock(t)
	svc := NewService("test-secret", mock)

	token, err := svc.signToken("user-7", time.Hour)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(token).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-7", time.Now().Add(time.Hour)))

	userID, err := svc.ValidateRefreshToken(context.Background(), token)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if userID != "user-7" {
		t.Fatalf("unexpected user id %q", userID)
	}
}

func TestValidateRefreshTokenExpiredRow(t *testing.T) {
	mock := newMock(t)
	svc := NewService("test-secret", mock)

	token, err := svc.signToken("user-7", time.Hour)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(token).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-7", time.Now().Add(-time.Minute)))

	if _, err := svc.ValidateRefreshToken(context.Background(), token); err == nil {
		t.Fatalf("expected expired refresh token to fail")
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	mock := newMock(t)
	svc := NewService("test-secret", mock)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at`).
		WithArgs("some-token").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := svc.RevokeRefreshToken(context.Background(), "some-token"); err != nil {
		t.Fatalf("revoke error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
