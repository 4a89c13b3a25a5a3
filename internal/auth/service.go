package auth

import (
	"context"
	"errors"

	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
)

type Service struct {
	db  *gorm.DB
	jwt *JWTService
}

func NewService(db *gorm.DB, jwt *JWTService) *Service {
	return &Service{db: db, jwt: jwt}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	OrgName   string // Optional: create a personal org
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account. If the email already exists as an account
// shell (created by an invite before the user ever signed up), the shell is
// claimed instead of rejected: the password and name fill in the existing
// record and any invited memberships stay attached to it.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var existing models.User
	err = s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error
	switch {
	case err == nil && !existing.IsShell():
		return nil, ErrUserExists
	case err == nil:
		// Claim the invite-created shell.
		existing.PasswordHash = hash
		existing.FirstName = input.FirstName
		existing.LastName = input.LastName
		existing.IsActive = true
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		token, err := s.jwt.GenerateToken(existing.ID, existing.Email)
		if err != nil {
			return nil, err
		}
		return &AuthResponse{Token: token, User: &existing}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	orgName := input.OrgName
	if orgName == "" {
		orgName = input.FirstName + "'s Organization"
	}

	// Transaction: create user, org, and the owning membership together
	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user = models.User{
			Email:        input.Email,
			PasswordHash: hash,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		org := models.Organization{Name: orgName}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		membership := models.OrgMembership{
			UserID:         user.ID,
			OrganizationID: org.ID,
			Role:           models.RoleOrgAdmin,
			Status:         models.MembershipActive,
		}
		return tx.Create(&membership).Error
	})

	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", input.Email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Shell accounts have no password until claimed via Register.
	if user.IsShell() {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
