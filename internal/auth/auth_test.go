package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hotelcare/internal/kv"
	"hotelcare/pkg/domain"
)

func newProvider(t *testing.T) (*Provider, *kv.DB) {
	t.Helper()
	db, err := kv.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, WithCost(bcrypt.MinCost)), db
}

func TestSignUpThenLogin(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()
	user, err := p.SignUp(ctx, "Gerente@Hotel.com", "segredo1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, user, p.Current())

	require.NoError(t, p.Logout(ctx))
	assert.Nil(t, p.Current())

	again, err := p.Login(ctx, "gerente@hotel.com", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID, "emails are matched case-insensitively")
}

func TestSignUpErrors(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()
	_, err := p.SignUp(ctx, "a@b.com", "123456")
	require.NoError(t, err)

	cases := []struct {
		email, password string
		want            error
	}{
		{"", "123456", ErrMissingFields},
		{"a@b.com", "", ErrMissingFields},
		{"not-an-email", "123456", ErrInvalidEmail},
		{"c@d.com", "12345", ErrWeakPassword},
		{"A@B.com", "abcdef", ErrEmailInUse},
	}
	for _, c := range cases {
		_, err := p.SignUp(ctx, c.email, c.password)
		assert.ErrorIs(t, err, c.want, "%s/%s", c.email, c.password)
	}
}

func TestConcurrentSignUpsCreateOneAccount(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  []string
		errs []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := p.SignUp(ctx, "gerente@hotel.com", "segredo1")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids = append(ids, user.ID)
		}()
	}
	wg.Wait()
	require.Len(t, ids, 1)
	require.Len(t, errs, 7)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrEmailInUse)
	}
	user, err := p.Login(ctx, "gerente@hotel.com", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, ids[0], user.ID)
}

func TestLoginErrors(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()
	_, err := p.SignUp(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	require.NoError(t, p.Logout(ctx))

	_, err = p.Login(ctx, "a@b.com", "wrong!")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = p.Login(ctx, "nobody@b.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = p.Login(ctx, "a@", "123456")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Nil(t, p.Current())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "E-mail ou senha incorretos.", Message(ErrInvalidCredential))
	assert.Equal(t, "O formato do e-mail é inválido.", Message(ErrInvalidEmail))
	assert.Equal(t, "Este e-mail já está em uso por outra conta.", Message(ErrEmailInUse))
	assert.Equal(t, "A senha deve ter pelo menos 6 caracteres.", Message(ErrWeakPassword))
	assert.Equal(t, "Por favor, preencha todos os campos.", Message(ErrMissingFields))
	assert.Equal(t, "Ocorreu um erro. Tente novamente.", Message(errors.New("network")))
}

func TestObserveAndRestore(t *testing.T) {
	p, db := newProvider(t)
	ctx := context.Background()
	var seen []*domain.User
	stop := p.Observe(func(u *domain.User) { seen = append(seen, u) })

	user, err := p.SignUp(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	require.NoError(t, p.Logout(ctx))
	stop()
	_, err = p.Login(ctx, "a@b.com", "123456")
	require.NoError(t, err)

	require.Len(t, seen, 3, "initial nil, sign-up, logout")
	assert.Nil(t, seen[0])
	assert.Equal(t, user.ID, seen[1].ID)
	assert.Nil(t, seen[2])

	fresh := New(db)
	restored, err := fresh.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, user.ID, restored.ID)
	assert.Equal(t, user.ID, fresh.Current().ID)

	require.NoError(t, fresh.Logout(ctx))
	none, err := New(db).Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}
