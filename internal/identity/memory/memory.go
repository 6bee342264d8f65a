// Package memory is an in-process identity.Provider with bcrypt hashed
// passwords, used for local development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"orcamento/internal/identity"
)

type account struct {
	uid  string
	hash []byte
}

type token struct {
	uid       string
	expiresAt time.Time
}

type Provider struct {
	mu       sync.Mutex
	accounts map[string]account // by lower-cased email
	emails   map[string]string  // uid -> email
	tokens   map[string]token
	resets   []string
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// New returns a provider whose ID tokens live for ttl.
func New(ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Provider{
		accounts: make(map[string]account),
		emails:   make(map[string]string),
		tokens:   make(map[string]token),
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// WithCost lowers the bcrypt cost, which keeps tests fast.
func (p *Provider) WithCost(cost int) *Provider {
	p.cost = cost
	return p
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", identity.ErrInvalidEmail
	}
	return email, nil
}

func (p *Provider) SignUp(_ context.Context, email, password string) (identity.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return identity.Session{}, err
	}
	if len(password) < identity.MinPasswordLength {
		return identity.Session{}, identity.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return identity.Session{}, fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return identity.Session{}, identity.ErrEmailInUse
	}
	uid := uuid.NewString()
	p.accounts[email] = account{uid: uid, hash: hash}
	p.emails[uid] = email
	return p.issue(uid, email), nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (identity.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return identity.Session{}, err
	}

	p.mu.Lock()
	acc, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return identity.Session{}, identity.ErrInvalidCredentials
		}
		return identity.Session{}, fmt.Errorf("compare password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issue(acc.uid, email), nil
}

// SendPasswordReset records the request; there is no mail delivery.
func (p *Provider) SendPasswordReset(_ context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; !ok {
		return identity.ErrUserNotFound
	}
	p.resets = append(p.resets, email)
	return nil
}

func (p *Provider) VerifyIDToken(_ context.Context, idToken string) (identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tok, ok := p.tokens[idToken]
	if !ok {
		return identity.User{}, identity.ErrInvalidToken
	}
	if p.now().After(tok.expiresAt) {
		delete(p.tokens, idToken)
		return identity.User{}, identity.ErrInvalidToken
	}
	return identity.User{UID: tok.uid, Email: p.emails[tok.uid]}, nil
}

// Resets returns the addresses that requested a password reset.
func (p *Provider) Resets() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resets...)
}

// issue must be called with p.mu held.
func (p *Provider) issue(uid, email string) identity.Session {
	raw := uuid.NewString()
	exp := p.now().Add(p.ttl)
	p.tokens[raw] = token{uid: uid, expiresAt: exp}
	return identity.Session{
		User:      identity.User{UID: uid, Email: email},
		IDToken:   raw,
		ExpiresAt: exp,
	}
}
