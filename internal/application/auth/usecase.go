package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// LockoutPolicy intentos fallidos permitidos y duración del bloqueo.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultLockoutPolicy cinco intentos, quince minutos.
var DefaultLockoutPolicy = LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute}

// AuthUseCase casos de uso de autenticación: login con bloqueo por intentos, sesión y logout.
type AuthUseCase struct {
	userRepo repository.UserRepository
	lockout  LockoutStore
	policy   LockoutPolicy
	jwtCfg   JWTConfig
	audit    audit.Recorder
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, lockout LockoutStore, policy LockoutPolicy, jwtCfg JWTConfig, rec audit.Recorder) *AuthUseCase {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultLockoutPolicy.MaxAttempts
	}
	if policy.Duration <= 0 {
		policy.Duration = DefaultLockoutPolicy.Duration
	}
	if lockout == nil {
		lockout = NewMemoryLockout(policy.Duration)
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	return &AuthUseCase{
		userRepo: userRepo,
		lockout:  lockout,
		policy:   policy,
		jwtCfg:   jwtCfg,
		audit:    rec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *AuthUseCase) WithClock(now func() time.Time) *AuthUseCase {
	uc.now = now
	return uc
}

// Login verifica email/password, genera JWT y retorna token + usuario.
//
// Retorna:
//   - *domain.LockedError       si el email acumula MaxAttempts fallos dentro de Duration.
//   - *domain.CredentialsError  si el email no existe o la contraseña no coincide.
//   - domain.ErrInactiveUser    si el usuario está INACTIVO.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, ip string) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, domain.Invalid("email", "es obligatorio")
	}
	if in.Password == "" {
		return nil, domain.Invalid("password", "es obligatoria")
	}
	now := uc.now()

	count, last, err := uc.lockout.Failures(ctx, email, now)
	if err != nil {
		return nil, fmt.Errorf("login: consultar intentos: %w", err)
	}
	if count >= uc.policy.MaxAttempts {
		until := last.Add(uc.policy.Duration)
		if now.Before(until) {
			return nil, &domain.LockedError{Until: until}
		}
		if err := uc.lockout.Reset(ctx, email); err != nil {
			return nil, fmt.Errorf("login: reiniciar intentos: %w", err)
		}
	}

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		n, err := uc.lockout.RecordFailure(ctx, email, now)
		if err != nil {
			return nil, fmt.Errorf("login: registrar intento: %w", err)
		}
		failed := entity.Actor{IP: ip}
		if user != nil {
			failed.UserID = user.ID
		}
		uc.audit.Record(ctx, failed, entity.AuditLoginFailed, "usuario", "Intento fallido para "+email)
		return nil, &domain.CredentialsError{Remaining: uc.policy.MaxAttempts - n}
	}
	if !user.Active() {
		return nil, domain.ErrInactiveUser
	}

	if err := uc.lockout.Reset(ctx, email); err != nil {
		return nil, fmt.Errorf("login: reiniciar intentos: %w", err)
	}
	if err := uc.userRepo.TouchLastAccess(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastAccess = &now

	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, entity.Actor{UserID: user.ID, Role: user.Role, IP: ip}, entity.AuditLogin, "usuario", "Inicio de sesión")
	return &dto.LoginResponse{
		Token: token,
		User:  dto.FromUser(user),
	}, nil
}

// Me usuario de la sesión.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.NotFoundError{Entity: "usuario", Msg: "Usuario no encontrado"}
	}
	out := dto.FromUser(user)
	return &out, nil
}

// Logout registra el cierre de sesión. El token JWT expira por sí solo.
func (uc *AuthUseCase) Logout(ctx context.Context, actor entity.Actor) {
	uc.audit.Record(ctx, actor, entity.AuditLogout, "usuario", "Cierre de sesión")
}
