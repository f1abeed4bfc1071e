package identity

import (
	"context"
	"testing"

	"github.com/boiler360/storefront-backend/pkg/config"
	"github.com/boiler360/storefront-backend/pkg/db/models"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/boiler360/storefront-backend/pkg/oauth"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testJWTConfig = config.JWTConfig{
	Secret: "test-secret",
	Issuer: "storefront-test",
}

var testPasswordConfig = config.PasswordConfig{BcryptCost: 4}

type stubProvider struct {
	exchangeErr error
	profile     *oauth.Profile
	profileErr  error
	exchanges   int
}

func (p *stubProvider) ExchangeCode(_ context.Context, code string) (string, error) {
	p.exchanges++
	if p.exchangeErr != nil {
		return "", p.exchangeErr
	}
	return "token-for-" + code, nil
}

func (p *stubProvider) FetchProfile(_ context.Context, _ string) (*oauth.Profile, error) {
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	return p.profile, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:identity_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, provider oauth.Provider) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), provider, testJWTConfig, testPasswordConfig)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "hunter2"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.PasswordHash == "hunter2" {
		t.Fatal("password stored in plaintext")
	}

	result, err := svc.Authenticate(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}

	resolved, err := svc.ResolveToken(ctx, result.Token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if resolved.ID != account.ID {
		t.Fatalf("token resolved to wrong account: %s", resolved.ID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "bob", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Username: "bob", Password: "other"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterDuplicateEmailNamesField(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	ctx := context.Background()
	email := "shared@example.com"

	if _, err := svc.Register(ctx, RegisterInput{Username: "first", Password: "pw", Email: &email}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Username: "second", Password: "pw", Email: &email})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	typed := pkgerrors.As(err)
	if typed.Message() != "email already taken" {
		t.Fatalf("expected the email column to be named, got %q", typed.Message())
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: " ", Password: "pw"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank username, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: ""}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty password, got %v", err)
	}
}

func TestAuthenticateBadCredentialsUniform(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "dave", Password: "secret"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Unknown username and wrong password must be indistinguishable.
	_, unknownErr := svc.Authenticate(ctx, "nobody", "secret")
	_, wrongErr := svc.Authenticate(ctx, "dave", "wrong")
	for _, err := range []error{unknownErr, wrongErr} {
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("credential errors differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestAuthenticateExternalCreatesAndReuses(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	provider := &stubProvider{profile: &oauth.Profile{Login: "octocat", AvatarURL: "https://example.test/a.png"}}
	svc := newTestService(t, db, provider)
	ctx := context.Background()

	first, err := svc.AuthenticateExternal(ctx, "code-1")
	if err != nil {
		t.Fatalf("first external login: %v", err)
	}
	if first.Account.Login == nil || *first.Account.Login != "octocat" {
		t.Fatalf("expected login octocat, got %+v", first.Account.Login)
	}
	if first.Account.Email == nil || *first.Account.Email == "" {
		t.Fatal("expected placeholder email for provider account")
	}

	second, err := svc.AuthenticateExternal(ctx, "code-2")
	if err != nil {
		t.Fatalf("second external login: %v", err)
	}
	if second.Account.ID != first.Account.ID {
		t.Fatal("second login must reuse the existing account")
	}

	var count int64
	if err := db.Model(&models.Account{}).Count(&count).Error; err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one account, got %d", count)
	}
}

func TestAuthenticateExternalExchangeFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{exchangeErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "bad credentials")}
	svc := newTestService(t, newTestDB(t), provider)

	_, err := svc.AuthenticateExternal(context.Background(), "bad-code")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthenticateExternalWithoutProvider(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	_, err := svc.AuthenticateExternal(context.Background(), "code")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestResolveTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	_, err := svc.ResolveToken(context.Background(), "not-a-jwt")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterInput{Username: "erin", Password: "old-pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.UpdatePassword(ctx, account.ID, "wrong", "new-pw"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for wrong current password, got %v", err)
	}
	if err := svc.UpdatePassword(ctx, account.ID, "old-pw", "new-pw"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "erin", "old-pw"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "erin", "new-pw"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestSetAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t), nil)
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterInput{Username: "frank", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.SetAdmin(ctx, account.ID, true); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	reloaded, err := svc.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !reloaded.IsAdmin {
		t.Fatal("expected admin flag set")
	}

	if err := svc.SetAdmin(ctx, uuid.New(), true); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
