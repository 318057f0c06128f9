package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/factures-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email_already_registered")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	Organization string
}

type UserService struct {
	db   *gorm.DB
	cost int
	// dummyHash is compared against when the email is unknown.
	dummyHash []byte
}

// NewUserService returns a credential store hashing with the given bcrypt cost
// (bcrypt.DefaultCost when out of range).
func NewUserService(db *gorm.DB, cost int) *UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("factures-dummy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("services: dummy hash: %v", err))
	}
	return &UserService{db: db, cost: cost, dummyHash: dummy}
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns its id.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (uint, error) {
	email := NormalizeEmail(in.Email)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Organization: strings.TrimSpace(in.Organization),
	}
	if err := db.Create(&u).Error; err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return u.ID, nil
}

// Authenticate returns the id of the user owning email/password.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (uint, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return u.ID, nil
}

// Exists reports whether a user with id is still present.
func (s *UserService) Exists(ctx context.Context, id uint) bool {
	if id == 0 {
		return false
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}
