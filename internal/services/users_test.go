package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func validSignup() SignupInput {
	return SignupInput{
		FullName:   "Ana Lima",
		Email:      "Ana@Example.com",
		Password:   "secret1",
		ConfirmAge: true,
	}
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	ctx := context.Background()

	u, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.ID == 0 || u.Email != "ana@example.com" || u.Password == "secret1" {
		t.Fatalf("unexpected user %+v", u)
	}

	got, err := svc.Authenticate(ctx, " ANA@example.com ", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("unexpected user id: got %d want %d", got.ID, u.ID)
	}

	if _, err := svc.Authenticate(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignupFieldErrors(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.Signup(context.Background(), SignupInput{
		FullName: strings.Repeat("a", 151),
		Email:    "not-an-email",
		Password: "12345",
	})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	for _, field := range []string{"full_name", "email", "password", "confirm_age"} {
		if fe[field] == "" {
			t.Errorf("missing error for %s: %v", field, fe)
		}
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("FieldErrors should unwrap to ErrValidation")
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("signup: %v", err)
	}
	in := validSignup()
	in.Email = "ana@example.com"
	_, err := svc.Signup(ctx, in)
	var fe FieldErrors
	if !errors.As(err, &fe) || fe["email"] != "Email is already registered." {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestGetUser(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	ctx := context.Background()

	u, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	got, err := svc.GetUser(ctx, u.ID)
	if err != nil || got.FullName != "Ana Lima" {
		t.Fatalf("unexpected user %+v err=%v", got, err)
	}
	if _, err := svc.GetUser(ctx, u.ID+1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFieldErrorsMessageSorted(t *testing.T) {
	err := FieldErrors{"password": "short", "email": "bad"}
	if got := err.Error(); got != "invalid input: email: bad; password: short" {
		t.Fatalf("unexpected message %q", got)
	}
}
