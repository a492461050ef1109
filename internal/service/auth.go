package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/campuskart/campus_market/internal/hash"
	"github.com/campuskart/campus_market/internal/models"
	"github.com/campuskart/campus_market/internal/repo"
	"github.com/campuskart/campus_market/internal/token"
)

var (
	emailPattern = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,}$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

var validYears = map[string]bool{
	"1st Year": true,
	"2nd Year": true,
	"3rd Year": true,
	"4th Year": true,
}

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *token.Service
}

type RegisterInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Year       string `json:"year"`
}

type ProfilePatch struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Department   *string `json:"department"`
	Year         *string `json:"year"`
	ProfileImage *string `json:"profile_image"`
}

// Register creates the account and issues a session token. Admin accounts
// are not self-service: only student and faculty pass validation here.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if err := validateRegister(&in); err != nil {
		return nil, "", err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.Repo.GetUserByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("%w: email is already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: pwHash,
		Phone:        in.Phone,
		Role:         in.Role,
		Department:   strings.TrimSpace(in.Department),
	}
	if in.Role == models.RoleStudent {
		user.Year = in.Year
	}

	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", fmt.Errorf("%w: email is already registered", ErrConflict)
		}
		return nil, "", err
	}

	raw, err := s.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	return &user, raw, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
		}
		return nil, "", err
	}

	ok, err := hash.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, "", fmt.Errorf("stored credential corrupt: %w", err)
	}
	if !ok {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}

	raw, err := s.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	return user, raw, nil
}

// Logout revokes the presented token. Revoking twice is a no-op.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	return s.Tokens.Revoke(ctx, rawToken)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, patch ProfilePatch) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		if !phonePattern.MatchString(*patch.Phone) {
			return nil, fmt.Errorf("%w: phone must be 10 digits", ErrValidation)
		}
		user.Phone = *patch.Phone
	}
	if patch.Department != nil {
		if strings.TrimSpace(*patch.Department) == "" {
			return nil, fmt.Errorf("%w: department cannot be empty", ErrValidation)
		}
		user.Department = strings.TrimSpace(*patch.Department)
	}
	if patch.Year != nil && user.Role == models.RoleStudent {
		if !validYears[*patch.Year] {
			return nil, fmt.Errorf("%w: invalid year", ErrValidation)
		}
		user.Year = *patch.Year
	}
	if patch.ProfileImage != nil {
		user.ProfileImage = *patch.ProfileImage
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePassword verifies the current password, stores the new hash and
// revokes the presented token so the session has to be re-established.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uint, current, next, rawToken string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new passwords are required", ErrValidation)
	}
	if len(next) < 6 {
		return fmt.Errorf("%w: new password must be at least 6 characters", ErrValidation)
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := hash.CheckPassword(user.PasswordHash, current)
	if err != nil {
		return fmt.Errorf("stored credential corrupt: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: current password is incorrect", ErrUnauthenticated)
	}

	pwHash, err := hash.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = pwHash

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return err
	}

	return s.Tokens.Revoke(ctx, rawToken)
}

// SellingList returns one page of the products the user has listed.
func (s *AuthService) SellingList(ctx context.Context, userID uint, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, repo.ProductFilter{SellerID: &userID}, offset, limit)
}

func validateRegister(in *RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		return fmt.Errorf("%w: please include a valid email", ErrValidation)
	}
	if len(in.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	if !phonePattern.MatchString(in.Phone) {
		return fmt.Errorf("%w: phone must be 10 digits", ErrValidation)
	}

	in.Role = strings.ToLower(in.Role)
	if in.Role != models.RoleStudent && in.Role != models.RoleFaculty {
		return fmt.Errorf("%w: role must be either student or faculty", ErrValidation)
	}
	if strings.TrimSpace(in.Department) == "" {
		return fmt.Errorf("%w: department is required", ErrValidation)
	}
	if in.Role == models.RoleStudent && !validYears[in.Year] {
		return fmt.Errorf("%w: year is required for students", ErrValidation)
	}
	return nil
}
