package service

// AuthService is the account and session logic:
//
//	AuthHandler (HTTP) → AuthService → AccountRepository (DB)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
//
// Accounts are provisioned by an administrator (API or CLI). Signing in,
// with a password or through GitHub, only ever finds an existing account; it
// never creates one, so nobody can choose their own role.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/auth"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// AccountInput is the payload for provisioning an account. Password may be
// empty for an account that will only sign in through GitHub.
type AccountInput struct {
	Email       string
	DisplayName string
	Role        model.Role
	Password    string
	ClientID    *int64
}

// AuthResult bundles the account with its freshly issued session token so a
// handler can set the cookie and respond in one step.
type AuthResult struct {
	Account *model.Account
	Token   string
}

type AuthService struct {
	accounts  repository.AccountRepository
	clients   repository.ClientRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	accounts repository.AccountRepository,
	clients repository.ClientRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		clients:   clients,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// CreateAccount provisions a login. A client account must point at an
// existing client row.
func (s *AuthService) CreateAccount(ctx context.Context, in AccountInput) (*model.Account, error) {
	if err := validateEmail(&in.Email); err != nil {
		return nil, err
	}
	if !trimmedPtr(&in.DisplayName) {
		return nil, apperror.ValidationFailed("display_name", "display_name is required")
	}
	if !in.Role.Valid() {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("role %q is not one of %v", in.Role, model.Roles))
	}
	if in.Role == model.RoleClient {
		if in.ClientID == nil {
			return nil, apperror.ValidationFailed("client_id", "client_id is required for a client account")
		}
		if _, err := s.clients.GetClient(ctx, *in.ClientID); err != nil {
			return nil, err
		}
	} else {
		in.ClientID = nil
	}

	account := &model.Account{
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Role:        in.Role,
		ClientID:    in.ClientID,
	}
	if in.Password != "" {
		if err := s.passwords.CheckPolicy(in.Password); err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		hash, err := s.passwords.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("service/auth: %w", err)
		}
		account.PasswordHash = hash
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		slog.String("accountID", account.ID),
		slog.String("role", string(account.Role)),
	)
	return account, nil
}

func (s *AuthService) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return s.accounts.ListAccounts(ctx)
}

// Login checks an email and password. An unknown email and a wrong password
// produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("login rejected", slog.String("accountID", account.ID))
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	return s.issue(account, "password")
}

// LoginGitHub signs in the account linked to the GitHub user, or links the
// account whose email matches the user's primary verified email.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub user must not be empty")
	}

	account, err := s.accounts.GetAccountByGitHubID(ctx, gh.ID)
	if err == nil {
		return s.issue(account, "github")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	if gh.Email == "" {
		return nil, apperror.Unauthorized("no account is linked to this GitHub user")
	}
	account, err = s.accounts.GetAccountByEmail(ctx, gh.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("no account is linked to this GitHub user")
		}
		return nil, err
	}

	if err := s.accounts.LinkGitHub(ctx, account.ID, gh.ID); err != nil {
		return nil, err
	}
	githubID := gh.ID
	account.GitHubID = &githubID

	s.logger.Info("GitHub identity linked",
		slog.String("accountID", account.ID),
		slog.String("login", gh.Login),
	)
	return s.issue(account, "github")
}

// Me returns the account behind a verified session.
func (s *AuthService) Me(ctx context.Context, accountID string) (*model.Account, error) {
	if accountID == "" {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	return s.accounts.GetAccountByID(ctx, accountID)
}

func (s *AuthService) issue(account *model.Account, method string) (*AuthResult, error) {
	token, err := s.tokens.Generate(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for account %s: %w", account.ID, err)
	}

	s.logger.Info("account signed in",
		slog.String("accountID", account.ID),
		slog.String("method", method),
	)
	return &AuthResult{Account: account, Token: token}, nil
}

func invalidCredentials() error {
	return apperror.Unauthorized("invalid email or password")
}
