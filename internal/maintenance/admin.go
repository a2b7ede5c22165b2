package maintenance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

var ErrWeakAdminCredentials = httperr.ErrBusiness("weak_admin_credentials")

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
}

// CreateAdmin stores an Admin account. Signup over HTTP never grants that
// role, so this is the only way one comes to exist.
func CreateAdmin(
	ctx context.Context,
	store UserStore,
	userName, password string,
	logger *zap.Logger,
) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if len(userName) < 3 || len(password) < 8 {
		return nil, ErrWeakAdminCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		UserName:     userName,
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		if httperr.IsUniqueViolation(err) {
			return nil, fmt.Errorf("username %q already exists", userName)
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	logger.Info("admin account created",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.UserName),
	)
	return user, nil
}
