package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessMinutes  int
	RefreshMinutes int
}

// AuthUseCase casos de uso de autenticación: login, refresh y validación de tokens.
// Cada token queda atado al namespace donde se emitió.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg}
}

// Login verifica username/password en el namespace y emite access + refresh.
// Credenciales inválidas o usuario inactivo devuelven ErrUnauthorized sin distinguir la causa.
func (uc *AuthUseCase) Login(ctx context.Context, ns tenant.Namespace, in dto.TokenRequest) (*dto.TokenResponse, error) {
	if in.Username == "" || in.Password == "" {
		verr := &domain.ValidationError{}
		if in.Username == "" {
			verr.Add("username", "este campo es obligatorio")
		}
		if in.Password == "" {
			verr.Add("password", "este campo es obligatorio")
		}
		return nil, verr
	}
	user, err := uc.userRepo.GetByUsername(ctx, ns, in.Username)
	if err != nil {
		return nil, fmt.Errorf("auth: buscar usuario: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}

	sub := subjectFor(ns, user)
	access, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, jwt.TokenAccess, sub, uc.jwtCfg.AccessMinutes)
	if err != nil {
		return nil, fmt.Errorf("auth: firmar access: %w", err)
	}
	refresh, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, jwt.TokenRefresh, sub, uc.jwtCfg.RefreshMinutes)
	if err != nil {
		return nil, fmt.Errorf("auth: firmar refresh: %w", err)
	}
	return &dto.TokenResponse{Access: access, Refresh: refresh}, nil
}

// Refresh emite un access nuevo a partir de un refresh válido del mismo namespace.
func (uc *AuthUseCase) Refresh(ctx context.Context, ns tenant.Namespace, in dto.RefreshRequest) (*dto.TokenResponse, error) {
	if in.Refresh == "" {
		return nil, domain.NewValidationError("refresh", "este campo es obligatorio")
	}
	user, _, err := uc.authenticate(ctx, ns, in.Refresh, jwt.TokenRefresh)
	if err != nil {
		return nil, err
	}
	access, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, jwt.TokenAccess, subjectFor(ns, user), uc.jwtCfg.AccessMinutes)
	if err != nil {
		return nil, fmt.Errorf("auth: firmar access: %w", err)
	}
	return &dto.TokenResponse{Access: access}, nil
}

// Authenticate valida un access token para el namespace y carga el usuario vigente.
func (uc *AuthUseCase) Authenticate(ctx context.Context, ns tenant.Namespace, token string) (*entity.User, *jwt.Claims, error) {
	return uc.authenticate(ctx, ns, token, jwt.TokenAccess)
}

func (uc *AuthUseCase) authenticate(ctx context.Context, ns tenant.Namespace, token, tokenType string) (*entity.User, *jwt.Claims, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, token, tokenType)
	if err != nil {
		if errors.Is(err, jwt.ErrWrongTokenType) {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		return nil, nil, fmt.Errorf("%w: token inválido o expirado", domain.ErrUnauthorized)
	}
	if claims.Schema != ns.String() {
		return nil, nil, fmt.Errorf("%w: token emitido para otro namespace", domain.ErrUnauthorized)
	}
	user, err := uc.userRepo.GetByID(ctx, ns, claims.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: cargar usuario: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, nil, domain.ErrUnauthorized
	}
	return user, claims, nil
}

func subjectFor(ns tenant.Namespace, u *entity.User) jwt.Subject {
	return jwt.Subject{
		UserID:      u.ID,
		Schema:      ns.String(),
		Role:        u.Role(),
		IsSuperuser: u.IsSuperuser,
	}
}
