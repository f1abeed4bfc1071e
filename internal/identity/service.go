package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boiler360/storefront-backend/pkg/auth"
	"github.com/boiler360/storefront-backend/pkg/config"
	"github.com/boiler360/storefront-backend/pkg/db"
	"github.com/boiler360/storefront-backend/pkg/db/models"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/boiler360/storefront-backend/pkg/oauth"
	"github.com/boiler360/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Credential failures all surface the same message so a caller cannot
// probe which usernames exist.
const badCredentialsMessage = "bad credentials"

const unusablePasswordLength = 24

// Service owns account lifecycle and credential checks.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Account, error)
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)
	AuthenticateExternal(ctx context.Context, code string) (*AuthResult, error)
	ResolveToken(ctx context.Context, token string) (*models.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) error
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
}

type service struct {
	repo     *Repository
	provider oauth.Provider
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	now      func() time.Time
}

// NewService builds the identity service. The provider may be nil when
// external login is not configured.
func NewService(repo *Repository, provider oauth.Provider, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		repo:     repo,
		provider: provider,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Account, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	digest, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	account := &models.Account{
		Username:     username,
		Email:        input.Email,
		PasswordHash: digest,
		Place:        input.Place,
	}
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if db.IsUniqueViolation(err) {
			field := "username"
			if strings.Contains(err.Error(), "email") {
				field = "email"
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, field+" already taken").
				WithDetails(map[string]any{"field": field})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
	}
	return created, nil
}

func (s *service) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	account, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, badCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	if !security.VerifyPassword(password, account.PasswordHash) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, badCredentialsMessage)
	}
	return s.issueToken(account)
}

// AuthenticateExternal completes the provider callback: exchange the code,
// read the profile, then find or create the account keyed by provider login.
func (s *service) AuthenticateExternal(ctx context.Context, code string) (*AuthResult, error) {
	if s.provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "external login is not configured")
	}

	accessToken, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.FindByLogin(ctx, profile.Login)
	if err == nil {
		return s.issueToken(account)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}

	account, err = s.createExternalAccount(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.issueToken(account)
}

func (s *service) createExternalAccount(ctx context.Context, profile *oauth.Profile) (*models.Account, error) {
	// The account never authenticates locally, so the stored credential is
	// random and discarded.
	placeholder, err := security.GenerateUnusablePassword(unusablePasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate placeholder credential")
	}
	digest, err := security.HashPassword(placeholder, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash placeholder credential")
	}

	login := profile.Login
	email := profile.Email
	if email == "" {
		email = login + "@users.noreply.github.com"
	}
	account := &models.Account{
		Login:        &login,
		Username:     login,
		Email:        &email,
		PasswordHash: digest,
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		account.Avatar = &avatar
	}

	created, err := s.repo.Create(ctx, account)
	if err == nil {
		return created, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
	}

	// A concurrent callback may have created the account first.
	existing, findErr := s.repo.FindByLogin(ctx, login)
	if findErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
	}
	return existing, nil
}

func (s *service) ResolveToken(ctx context.Context, token string) (*models.Account, error) {
	claims, err := auth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, badCredentialsMessage)
	}
	account, err := s.repo.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, badCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	return account, nil
}

func (s *service) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	return account, nil
}

func (s *service) UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if next == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if !security.VerifyPassword(current, account.PasswordHash) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, badCredentialsMessage)
	}
	digest, err := security.HashPassword(next, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, id, digest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}

func (s *service) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetAdmin(ctx, id, isAdmin); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set admin flag")
	}
	return nil
}

func (s *service) issueToken(account *models.Account) (*AuthResult, error) {
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		AccountID: account.ID,
		IsAdmin:   account.IsAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &AuthResult{Account: account, Token: token}, nil
}
