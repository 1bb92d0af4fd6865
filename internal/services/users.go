package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"redvibe/internal/models"
	"redvibe/internal/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	maxFullNameLength = 150
	minPasswordLength = 6
)

type SignupInput struct {
	FullName   string
	Email      string
	Password   string
	ConfirmAge bool
}

type UserService struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, validate: validator.New()}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup 字段错误全部收集后一次返回
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)
	errs := FieldErrors{}

	switch n := utf8.RuneCountInString(fullName); {
	case n == 0:
		errs["full_name"] = "This field is required."
	case n > maxFullNameLength:
		errs["full_name"] = fmt.Sprintf("Ensure this value has at most %d characters.", maxFullNameLength)
	}

	if email == "" {
		errs["email"] = "This field is required."
	} else if err := s.validate.Var(email, "email"); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters.", minPasswordLength)
	}

	if !in.ConfirmAge {
		errs["confirm_age"] = "You must confirm you are of age."
	}

	if _, ok := errs["email"]; !ok {
		taken, err := s.emailTaken(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			errs["email"] = "Email is already registered."
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		FullName: fullName,
		Email:    email,
		Password: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// 并发注册同一邮箱时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, FieldErrors{"email": "Email is already registered."}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (s *UserService) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}
