package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/litex-portal/litex/internal/platform/httpx"
)

type stubUserRepo struct {
	users     map[int64]User
	nextID    int64
	lastHash  string
	setActive map[int64]bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]User), nextID: 1, setActive: make(map[int64]bool)}
}

func (r *stubUserRepo) add(u User) User {
	u.ID = r.nextID
	u.IsActive = true
	r.users[u.ID] = u
	r.nextID++
	return u
}

func (r *stubUserRepo) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *stubUserRepo) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	return u, nil
}

func (r *stubUserRepo) CreateUser(ctx context.Context, email, name, passwordHash string, companyID *int64) (User, error) {
	r.lastHash = passwordHash
	return r.add(User{Email: email, Name: name, CompanyID: companyID}), nil
}

func (r *stubUserRepo) UpdateUser(ctx context.Context, id int64, name string, companyID *int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	u.Name = name
	u.CompanyID = companyID
	r.users[id] = u
	return u, nil
}

func (r *stubUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.setActive[id] = active
	return nil
}

func TestCreateUserNormalizesAndHashes(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewService(repo)

	created, err := svc.CreateUser(context.Background(), "  Kunde@Muster-Handel.AT ", " Max Muster ", "geheim123", nil)
	require.NoError(t, err)
	assert.Equal(t, "kunde@muster-handel.at", created.Email)
	assert.Equal(t, "Max Muster", created.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.lastHash), []byte("geheim123")))
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newStubUserRepo())

	_, err := svc.CreateUser(context.Background(), "", "Max", "geheim123", nil)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = svc.CreateUser(context.Background(), "max@litex.local", "   ", "geheim123", nil)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestUpdateUserPartial(t *testing.T) {
	repo := newStubUserRepo()
	company := int64(1)
	user := repo.add(User{Email: "kunde@muster-handel.at", Name: "Max Muster", CompanyID: &company})
	svc := NewService(repo)

	name := "Maximilian Muster"
	updated, err := svc.UpdateUser(context.Background(), user.ID, UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Maximilian Muster", updated.Name)
	require.NotNil(t, updated.CompanyID)
	assert.Equal(t, int64(1), *updated.CompanyID)

	updated, err = svc.UpdateUser(context.Background(), user.ID, UserUpdate{ClearCompany: true})
	require.NoError(t, err)
	assert.Nil(t, updated.CompanyID)
}

func TestUpdateUserBlankName(t *testing.T) {
	repo := newStubUserRepo()
	user := repo.add(User{Email: "max@litex.local", Name: "Max"})
	svc := NewService(repo)

	blank := "   "
	_, err := svc.UpdateUser(context.Background(), user.ID, UserUpdate{Name: &blank})
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestActivateDeactivate(t *testing.T) {
	repo := newStubUserRepo()
	user := repo.add(User{Email: "max@litex.local", Name: "Max"})
	svc := NewService(repo)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))
	assert.False(t, repo.setActive[user.ID])

	require.NoError(t, svc.Activate(context.Background(), user.ID))
	assert.True(t, repo.setActive[user.ID])
}
