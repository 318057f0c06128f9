package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/factures-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(setupTestDB(t), bcrypt.MinCost)
}

func TestRegisterStoresHashedNormalizedUser(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	id, err := svc.Register(ctx, RegisterInput{Email: "  Alice@Example.com ", Password: "secret123", Name: "Alice", Organization: "ACME"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero id")
	}

	var u models.User
	if err := svc.db.First(&u, id).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.PasswordHash == "secret123" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) != nil {
		t.Fatalf("password not stored as bcrypt hash")
	}
	if u.Name != "Alice" || u.Organization != "ACME" {
		t.Fatalf("unexpected profile: %+v", u)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	if _, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "pw123456", Name: "Bob", Organization: "B"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "BOB@example.com", Password: "other", Name: "Bob2", Organization: "B2"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	var count int64
	svc.db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestDuplicateEmailInsertTranslated(t *testing.T) {
	svc := newUserService(t)

	// Register relies on this when a concurrent insert wins the race past the pre-check.
	if err := svc.db.Create(&models.User{Email: "race@example.com", PasswordHash: "x", Name: "R", Organization: "R"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := svc.db.Create(&models.User{Email: "race@example.com", PasswordHash: "y", Name: "R", Organization: "R"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	id, err := svc.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "right-password", Name: "Carol", Organization: "C"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Authenticate(ctx, "Carol@Example.com", "right-password")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got != id {
		t.Fatalf("expected id %d, got %d", id, got)
	}

	if _, err := svc.Authenticate(ctx, "carol@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "right-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	id, err := svc.Register(ctx, RegisterInput{Email: "dave@example.com", Password: "pw", Name: "Dave", Organization: "D"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !svc.Exists(ctx, id) {
		t.Fatalf("expected user %d to exist", id)
	}
	if svc.Exists(ctx, id+100) {
		t.Fatalf("unexpected user %d", id+100)
	}
	if svc.Exists(ctx, 0) {
		t.Fatalf("id 0 must not exist")
	}
}

func TestNewUserServiceClampsCost(t *testing.T) {
	svc := NewUserService(setupTestDB(t), 99)
	if svc.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", svc.cost)
	}
}
