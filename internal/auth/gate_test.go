package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/pinboard/backend/internal/models"
	"github.com/ayush/pinboard/backend/internal/store"
)

type activityLog struct {
	actions []string
}

func (a *activityLog) Record(_ context.Context, act models.Activity) error {
	a.actions = append(a.actions, act.Action)
	return nil
}

func newTestGate(t *testing.T, opts ...Option) (*Gate, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	g := NewGate(s, NewBcryptHasher(bcrypt.MinCost), NewJWTIssuer("test-secret", time.Hour), nil, opts...)
	return g, s
}

func signupReq(name string) models.CreateUserRequest {
	return models.CreateUserRequest{
		FirstName:       "Ada",
		UserName:        name,
		Email:           name + "@example.com",
		Password:        "secret1",
		PasswordConfirm: "secret1",
	}
}

func TestSignup_ReturnsTokenAndStoresDigest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, s := newTestGate(t)

	user, err := g.Signup(ctx, signupReq("ada"))
	require.NoError(t, err)
	assert.Empty(t, user.Password)
	require.NotEmpty(t, user.Token)

	claims, err := g.ParseToken(user.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "ada", claims.UserName)

	stored, err := s.FindUserByEmail(ctx, "ada@example.com", true)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))
	assert.Equal(t, user.Token, stored.Token)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newTestGate(t)

	_, err := g.Signup(ctx, signupReq("ada"))
	require.NoError(t, err)

	req := signupReq("other")
	req.Email = "ada@example.com"
	_, err = g.Signup(ctx, req)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeDuplicateUser))
	assert.Equal(t, "User already exists", err.Error())
}

func TestSignup_ExistingEmailWinsOverValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newTestGate(t)

	_, err := g.Signup(ctx, signupReq("ada"))
	require.NoError(t, err)

	req := signupReq("other")
	req.Email = "ada@example.com"
	req.Password, req.PasswordConfirm = "abc", "abc"
	_, err = g.Signup(ctx, req)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeDuplicateUser))
	assert.Equal(t, "User already exists", err.Error())
}

func TestSignup_TakenUserName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, s := newTestGate(t)

	_, err := g.Signup(ctx, signupReq("ada"))
	require.NoError(t, err)

	req := signupReq("ada")
	req.Email = "fresh@example.com"
	_, err = g.Signup(ctx, req)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeDuplicateKey))
	assert.False(t, models.HasCode(err, models.CodeDuplicateUser))
	assert.Contains(t, err.Error(), "Username should be unique")

	_, err = s.FindUserByEmail(ctx, "fresh@example.com", false)
	assert.ErrorIs(t, err, models.ErrNoDocument)
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.CreateUserRequest)
		want   string
	}{
		{"password mismatch", func(r *models.CreateUserRequest) { r.PasswordConfirm = "secret2" }, "Passwords do not match"},
		{"malformed email", func(r *models.CreateUserRequest) { r.Email = "not-an-email" }, "Email is invalid"},
		{"short password", func(r *models.CreateUserRequest) { r.Password, r.PasswordConfirm = "abc", "abc" }, "Password must be at least 6 characters"},
		{"missing first name", func(r *models.CreateUserRequest) { r.FirstName = "" }, "First Name is Required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, s := newTestGate(t)
			req := signupReq("ada")
			tt.mutate(&req)

			_, err := g.Signup(context.Background(), req)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeValidation))
			assert.Equal(t, tt.want, err.Error())

			users, err := s.FindUsers(context.Background(), models.UserFilter{})
			require.NoError(t, err)
			assert.Empty(t, users)
		})
	}
}

func TestCreateUser_NoTokenAndStoreUniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newTestGate(t)

	user, err := g.CreateUser(ctx, signupReq("ada"))
	require.NoError(t, err)
	assert.Empty(t, user.Token)
	assert.Empty(t, user.Password)

	req := signupReq("ada")
	req.Email = "fresh@example.com"
	_, err = g.CreateUser(ctx, req)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeDuplicateKey))
	assert.Contains(t, err.Error(), "Username should be unique")
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := &activityLog{}
	g, s := newTestGate(t, WithActivity(log))

	created, err := g.Signup(ctx, signupReq("ada"))
	require.NoError(t, err)

	t.Run("wrong password and unknown email share a message", func(t *testing.T) {
		_, errWrong := g.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "nope123"})
		_, errUnknown := g.Login(ctx, models.LoginRequest{Email: "ghost@example.com", Password: "secret1"})
		require.Error(t, errWrong)
		require.Error(t, errUnknown)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
		assert.Equal(t, "Incorrect email or password", errWrong.Error())
		assert.True(t, models.HasCode(errUnknown, models.CodeAuthentication))
	})

	t.Run("success overwrites the stored token", func(t *testing.T) {
		g.tokens.now = func() time.Time { return time.Now().Add(2 * time.Second) }
		user, err := g.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Empty(t, user.Password)
		assert.NotEqual(t, created.Token, user.Token)

		stored, err := s.FindUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Token, stored.Token)
	})

	assert.Equal(t, []string{models.ActionUserSignup, models.ActionUserLogin}, log.actions)
}

func TestLogin_Throttled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	g, _ := newTestGate(t, WithThrottle(NewLoginLimiter(rdb, 2, time.Minute)))
	_, err := g.Signup(ctx, signupReq("ada"))
	require.NoError(t, err)

	bad := models.LoginRequest{Email: "ada@example.com", Password: "wrong12"}
	for i := 0; i < 2; i++ {
		_, err := g.Login(ctx, bad)
		assert.True(t, models.HasCode(err, models.CodeAuthentication))
	}

	_, err = g.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeRateLimited))

	mr.FastForward(time.Minute + time.Second)
	_, err = g.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	assert.NoError(t, err)
}

type brokenStore struct {
	*store.MemoryStore
}

func (brokenStore) FindUserByEmail(context.Context, string, bool) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func TestLogin_StoreFailureIsNotAnAuthError(t *testing.T) {
	t.Parallel()
	g := NewGate(brokenStore{store.NewMemoryStore()}, NewBcryptHasher(bcrypt.MinCost), NewJWTIssuer("s", time.Hour), nil)

	_, err := g.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.Error(t, err)
	assert.False(t, models.HasCode(err, models.CodeAuthentication))
	assert.Contains(t, err.Error(), "connection reset")
}
