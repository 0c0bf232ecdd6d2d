package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/tracing"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown so that
// both failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type AuthServiceImpl struct {
	userRepo     user.UserRepository
	employeeRepo employee.EmployeeRepository
	directory    employee.Directory
	jwtService   jwt.Service
	policy       access.Policy
	accessTTL    time.Duration
}

func NewAuthService(
	userRepo user.UserRepository,
	employeeRepo employee.EmployeeRepository,
	directory employee.Directory,
	jwtService jwt.Service,
	policy access.Policy,
	accessTTL time.Duration,
) auth.AuthService {
	return &AuthServiceImpl{
		userRepo:     userRepo,
		employeeRepo: employeeRepo,
		directory:    directory,
		jwtService:   jwtService,
		policy:       policy,
		accessTTL:    accessTTL,
	}
}

// HashPassword hashes a plain-text password with the default bcrypt cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (resp auth.TokenResponse, err error) {
	ctx, span := tracing.Start(ctx, "auth.Login")
	defer func() { tracing.End(span, err); metrics.ObserveError("auth.Login", err) }()

	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, apperror.InvalidInput(err)
	}

	userData, err := a.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	if userData.HasLegacyPassword() {
		slog.Warn("Login refused for unhashed password, run leavectl users rehash", "user_id", userData.ID)
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	emp, err := a.employeeRepo.GetByID(ctx, userData.EmployeeID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to get employee for user: %w", err)
	}
	if !emp.IsActive() {
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	token, expiresAt, err := a.jwtService.GenerateAccessToken(userData.ID, userData.EmployeeID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	slog.Info("User logged in", "user_id", userData.ID, "employee_id", userData.EmployeeID)
	return auth.TokenResponse{
		AccessToken:          token,
		AccessTokenExpiresIn: expiresAt,
		TokenType:            "Bearer",
	}, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	a.jwtService.RevokeToken(token, time.Now().Add(a.accessTTL))
	if p, err := access.PrincipalFrom(ctx); err == nil {
		slog.Info("User logged out", "user_id", p.UserID)
	}
	return nil
}

// Me implements auth.AuthService.
func (a *AuthServiceImpl) Me(ctx context.Context) (auth.MeResponse, error) {
	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return auth.MeResponse{}, err
	}

	userData, err := a.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		return auth.MeResponse{}, err
	}
	emp, err := a.directory.GetEmployee(ctx, p.EmployeeID)
	if err != nil {
		return auth.MeResponse{}, err
	}

	return auth.MeResponse{
		UserID:       userData.ID,
		EmployeeID:   emp.ID,
		Username:     userData.Username,
		FullName:     emp.FullName,
		Role:         emp.Role,
		Capabilities: a.directory.PermissionsFor(emp.Role),
	}, nil
}

// Register implements auth.AuthService.
func (a *AuthServiceImpl) Register(ctx context.Context, req auth.RegisterRequest) (resp auth.RegisterResponse, err error) {
	ctx, span := tracing.Start(ctx, "auth.Register")
	defer func() { tracing.End(span, err); metrics.ObserveError("auth.Register", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return auth.RegisterResponse{}, err
	}
	if err := access.Authorize(a.policy, p, access.ActionUserRegister, access.Target{}); err != nil {
		return auth.RegisterResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return auth.RegisterResponse{}, apperror.InvalidInput(err)
	}

	if _, err := a.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return auth.RegisterResponse{}, err
	}

	usernameTaken, employeeTaken, err := a.userRepo.ExistsByUsernameOrEmployee(ctx, req.Username, req.EmployeeID)
	if err != nil {
		return auth.RegisterResponse{}, fmt.Errorf("failed to check existing users: %w", err)
	}
	if usernameTaken {
		return auth.RegisterResponse{}, user.ErrUsernameExists
	}
	if employeeTaken {
		return auth.RegisterResponse{}, user.ErrEmployeeHasUser
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return auth.RegisterResponse{}, err
	}
	created, err := a.userRepo.Create(ctx, user.User{
		EmployeeID:   req.EmployeeID,
		Username:     req.Username,
		PasswordHash: hash,
	})
	if err != nil {
		return auth.RegisterResponse{}, err
	}

	slog.Info("Login registered", "user_id", created.ID, "employee_id", created.EmployeeID, "actor_id", p.EmployeeID)
	return auth.RegisterResponse{
		UserID:     created.ID,
		EmployeeID: created.EmployeeID,
		Username:   created.Username,
	}, nil
}

// IssueSSEToken implements auth.AuthService.
func (a *AuthServiceImpl) IssueSSEToken(ctx context.Context) (auth.SSETokenResponse, error) {
	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return auth.SSETokenResponse{}, err
	}
	token, expiresIn, err := a.jwtService.GenerateSSEToken(p.UserID, p.EmployeeID)
	if err != nil {
		return auth.SSETokenResponse{}, fmt.Errorf("failed to create sse token: %w", err)
	}
	return auth.SSETokenResponse{Token: token, ExpiresIn: expiresIn}, nil
}
