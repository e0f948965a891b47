package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Likio3000/pomodoroAPP/internal/testutil"
	"github.com/Likio3000/pomodoroAPP/internal/user/entity"
	userrepo "github.com/Likio3000/pomodoroAPP/internal/user/repo"
)

func newTestService(t *testing.T) *UserService {
	db := testutil.NewTestDB(t)
	return NewUserService(db, BcryptHasher{Cost: bcrypt.MinCost})
}

func TestSignup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "  Ada@Example.com ", "Ada", "correct horse")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.Equal(t, int64(0), u.TotalPoints)

	_, err = svc.Signup(ctx, "ada@example.com", "Other", "another password")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

// racingHasher inserts a competing row for the same email while the password
// is being hashed, after the service has already checked the email is free.
type racingHasher struct {
	BcryptHasher
	repo  *userrepo.UserRepo
	email string
}

func (h racingHasher) Hash(pw string) (string, error) {
	u := &entity.User{Email: h.email, Name: "First", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	if _, err := h.repo.Create(context.Background(), u); err != nil {
		return "", err
	}
	return h.BcryptHasher.Hash(pw)
}

func TestSignup_ConcurrentInsertReportsEmailTaken(t *testing.T) {
	db := testutil.NewTestDB(t)
	hasher := racingHasher{
		BcryptHasher: BcryptHasher{Cost: bcrypt.MinCost},
		repo:         userrepo.NewUserRepo(db),
		email:        "dup@example.com",
	}
	svc := NewUserService(db, hasher)

	_, err := svc.Signup(context.Background(), "dup@example.com", "Second", "longenough")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignup_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, tc := range [][3]string{
		{"", "Ada", "longenough"},
		{"a@b.c", " ", "longenough"},
		{"a@b.c", "Ada", "short"},
	} {
		_, err := svc.Signup(ctx, tc[0], tc[1], tc[2])
		assert.ErrorIs(t, err, ErrInvalidSignup, "%v", tc)
	}
}

func TestAuthenticatePassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "grace@example.com", "Grace", "hopper1906")
	require.NoError(t, err)

	u, err := svc.AuthenticatePassword(ctx, "GRACE@example.com", "hopper1906")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = svc.AuthenticatePassword(ctx, "grace@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.AuthenticatePassword(ctx, "nobody@example.com", "hopper1906")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.AuthenticatePassword(ctx, "", "hopper1906")
	assert.ErrorIs(t, err, ErrBadCredentials)
}
