// Package firebase implements identity.Provider with Firebase Authentication.
//
// Password flows go through the Identity Toolkit REST API with the web API
// key; ID tokens are verified locally by the Admin SDK.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	fb "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"orcamento/internal/identity"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	ProjectID       string
	APIKey          string
	CredentialsFile string
}

// passwordAPI is the part of Identity Toolkit used for password accounts.
type passwordAPI interface {
	verifyPassword(ctx context.Context, email, password string) (*identitytoolkit.VerifyPasswordResponse, error)
	signup(ctx context.Context, email, password string) (*identitytoolkit.SignupNewUserResponse, error)
	sendReset(ctx context.Context, email string) error
}

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

type Provider struct {
	api      passwordAPI
	verifier tokenVerifier
	timeout  time.Duration
	now      func() time.Time
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("firebase web api key is required")
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}

	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("initialise identity toolkit: %w", err)
	}

	return &Provider{
		api:      &toolkit{svc: svc},
		verifier: authClient,
		timeout:  defaultTimeout,
		now:      time.Now,
	}, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.api.verifyPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return identity.Session{}, mapError(err)
	}
	return p.session(resp.LocalId, resp.Email, resp.IdToken, resp.ExpiresIn), nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (identity.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.api.signup(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return identity.Session{}, mapError(err)
	}
	return p.session(resp.LocalId, resp.Email, resp.IdToken, resp.ExpiresIn), nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.api.sendReset(ctx, strings.TrimSpace(email)); err != nil {
		return mapError(err)
	}
	return nil
}

func (p *Provider) VerifyIDToken(ctx context.Context, idToken string) (identity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tok, err := p.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return identity.User{}, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	email, _ := tok.Claims["email"].(string)
	return identity.User{UID: tok.UID, Email: email}, nil
}

func (p *Provider) session(uid, email, idToken string, expiresIn int64) identity.Session {
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return identity.Session{
		User:      identity.User{UID: uid, Email: email},
		IDToken:   idToken,
		ExpiresAt: p.now().Add(time.Duration(expiresIn) * time.Second),
	}
}

// mapError translates Identity Toolkit error codes, which arrive as the
// message of a googleapi.Error (e.g. "EMAIL_EXISTS" or
// "WEAK_PASSWORD : Password should be at least 6 characters").
func mapError(err error) error {
	msg := err.Error()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		msg = gerr.Message
	}
	code := strings.TrimSpace(strings.SplitN(msg, ":", 2)[0])

	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return fmt.Errorf("%w: %s", identity.ErrInvalidCredentials, code)
	case "EMAIL_EXISTS":
		return identity.ErrEmailInUse
	case "WEAK_PASSWORD":
		return identity.ErrWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return identity.ErrInvalidEmail
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return identity.ErrTooManyAttempts
	}
	return fmt.Errorf("identity toolkit: %w", err)
}

type toolkit struct {
	svc *identitytoolkit.Service
}

func (t *toolkit) verifyPassword(ctx context.Context, email, password string) (*identitytoolkit.VerifyPasswordResponse, error) {
	return t.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
}

func (t *toolkit) signup(ctx context.Context, email, password string) (*identitytoolkit.SignupNewUserResponse, error) {
	return t.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
}

func (t *toolkit) sendReset(ctx context.Context, email string) error {
	_, err := t.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		Email:       email,
		RequestType: "PASSWORD_RESET",
	}).Context(ctx).Do()
	return err
}
