package app

import (
	"errors"
	"testing"

	"photoshare/pkg/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})

	user, err := a.Register(" alice ", "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if user.Username != "alice" || user.Role != domain.RoleUser {
		t.Fatalf("Register() = %+v, want trimmed username with user role", user)
	}
	if user.PasswordHash == "correct horse" {
		t.Fatalf("Register() stored the plaintext password")
	}

	got, err := a.Login("alice", "correct horse")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("Login() returned user %d, want %d", got.ID, user.ID)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})

	if _, err := a.Register("alice", "alice@example.com", "long enough"); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if _, err := a.Register("alice", "other@example.com", "long enough"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username error = %v, want ErrUsernameTaken", err)
	}
	if _, err := a.Register("bob", "alice@example.com", "long enough"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email error = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})
	if _, err := a.Register("carol", "carol@example.com", "short"); err == nil {
		t.Fatalf("Register() accepted a 5 character password")
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})
	if _, err := a.Register("alice", "alice@example.com", "long enough"); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if _, err := a.Login("alice", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := a.Login("nobody", "long enough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}
