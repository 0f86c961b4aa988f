// Package auth is a local account provider: email and password accounts kept
// in the embedded database, with an observable current user that drives
// session attachment.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hotelcare/internal/kv"
	"hotelcare/pkg/domain"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var (
	ErrInvalidEmail      = errors.New("auth: invalid email")
	ErrInvalidCredential = errors.New("auth: invalid credential")
	ErrEmailInUse        = errors.New("auth: email already in use")
	ErrWeakPassword      = errors.New("auth: weak password")
	ErrMissingFields     = errors.New("auth: missing fields")
)

// Message maps an authentication error to the text shown to the user.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "O formato do e-mail é inválido."
	case errors.Is(err, ErrInvalidCredential):
		return "E-mail ou senha incorretos."
	case errors.Is(err, ErrEmailInUse):
		return "Este e-mail já está em uso por outra conta."
	case errors.Is(err, ErrWeakPassword):
		return "A senha deve ter pelo menos 6 caracteres."
	case errors.Is(err, ErrMissingFields):
		return "Por favor, preencha todos os campos."
	default:
		return "Ocorreu um erro. Tente novamente."
	}
}

const (
	accountPrefix = "account/"
	currentKey    = "session/current"
)

type account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Hash      []byte    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
}

// Option configures a Provider.
type Option func(*Provider)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(p *Provider) { p.cost = cost }
}

// WithClock overrides the time source used for account creation.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// Provider implements the authentication capability. It satisfies
// domain.UserSource.
type Provider struct {
	db   *kv.DB
	cost int
	now  func() time.Time
	v    *validator.Validate

	mu        sync.Mutex
	current   *domain.User
	observers map[int]func(*domain.User)
	nextObs   int
}

var _ domain.UserSource = (*Provider)(nil)

// New returns a provider over db with no user signed in.
func New(db *kv.DB, opts ...Option) *Provider {
	p := &Provider{
		db:        db,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
		v:         validator.New(),
		observers: map[int]func(*domain.User){},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) normalise(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingFields
	}
	if err := p.v.Var(email, "email"); err != nil {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// SignUp creates an account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	key, err := p.normalise(email, password)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct := account{ID: uuid.NewString(), Email: strings.TrimSpace(email), Hash: hash, CreatedAt: p.now().UTC()}
	raw, err := json.Marshal(acct)
	if err != nil {
		return nil, err
	}
	created, err := p.db.SetIfAbsent(ctx, accountPrefix+key, raw)
	if err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}
	if !created {
		return nil, ErrEmailInUse
	}
	user := &domain.User{ID: acct.ID, Email: acct.Email}
	if err := p.signIn(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and signs the account in.
func (p *Provider) Login(ctx context.Context, email, password string) (*domain.User, error) {
	key, err := p.normalise(email, password)
	if err != nil {
		return nil, err
	}
	raw, err := p.db.Get(ctx, accountPrefix+key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}
	var acct account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(acct.Hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	user := &domain.User{ID: acct.ID, Email: acct.Email}
	if err := p.signIn(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout signs the current user out.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.db.Delete(ctx, currentKey); err != nil {
		return err
	}
	p.publish(nil)
	return nil
}

// Restore signs back in the user remembered by the last Login or SignUp.
// It returns nil when nobody is remembered.
func (p *Provider) Restore(ctx context.Context) (*domain.User, error) {
	raw, err := p.db.Get(ctx, currentKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
		return nil, nil
	}
	p.publish(&u)
	return &u, nil
}

// Current returns the signed-in user, or nil.
func (p *Provider) Current() *domain.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

// Observe calls fn with the current user now and after every change.
func (p *Provider) Observe(fn func(*domain.User)) (stop func()) {
	p.mu.Lock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	current := p.current
	p.mu.Unlock()
	fn(copyUser(current))
	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

func (p *Provider) signIn(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := p.db.Set(ctx, currentKey, raw); err != nil {
		return fmt.Errorf("remember session: %w", err)
	}
	p.publish(user)
	return nil
}

func (p *Provider) publish(user *domain.User) {
	p.mu.Lock()
	p.current = copyUser(user)
	fns := make([]func(*domain.User), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(copyUser(user))
	}
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
