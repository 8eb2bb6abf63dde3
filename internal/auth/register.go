package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/internal/users"
	"github.com/khetihal/khetihal-backend/pkg/config"
	"github.com/khetihal/khetihal-backend/pkg/db"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
	"github.com/khetihal/khetihal-backend/pkg/logger"
	"github.com/khetihal/khetihal-backend/pkg/security"
)

// RegisterRequest contains the payload required for creating a customer account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterService handles the account creation transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username, email, and password are required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "user with that email or username already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if _, err := userRepo.FindByUsername(ctx, username); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "user with that email or username already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "user with that email or username already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// EnsureAdmin creates the bootstrap admin account when none exists. It is a
// no-op when an admin is already present or no admin password is configured.
func EnsureAdmin(ctx context.Context, client *db.Client, adminCfg config.AdminConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) error {
	if client == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if strings.TrimSpace(adminCfg.Password) == "" {
		return nil
	}

	repo := users.NewRepository(client.DB())
	count, err := repo.CountAdmins(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count admins")
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := security.HashPassword(adminCfg.Password, passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}

	user, err := repo.Create(ctx, users.CreateUserDTO{
		Username:     adminCfg.Username,
		Email:        strings.ToLower(strings.TrimSpace(adminCfg.Email)),
		PasswordHash: passwordHash,
		IsAdmin:      true,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin user")
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "email", user.Email), "bootstrap admin account created")
	}
	return nil
}
