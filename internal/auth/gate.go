// Package auth implements signup, login and session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/pinboard/backend/internal/models"
	"github.com/ayush/pinboard/backend/internal/validation"
)

// UserStore is the subset of the user store the gate needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error)
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Throttle limits failed logins. Implementations fail open.
type Throttle interface {
	Allow(ctx context.Context, email string) (bool, error)
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// Recorder appends to the activity log.
type Recorder interface {
	Record(ctx context.Context, a models.Activity) error
}

// Gate owns account creation and credential checks.
type Gate struct {
	users    UserStore
	hasher   Hasher
	tokens   *JWTIssuer
	throttle Throttle
	activity Recorder
	log      *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// Option configures optional Gate collaborators.
type Option func(*Gate)

// WithThrottle enables failed-login limiting.
func WithThrottle(t Throttle) Option {
	return func(g *Gate) { g.throttle = t }
}

// WithActivity records successful signups, logins and creations.
func WithActivity(r Recorder) Option {
	return func(g *Gate) { g.activity = r }
}

func NewGate(users UserStore, hasher Hasher, tokens *JWTIssuer, log *slog.Logger, opts ...Option) *Gate {
	if log == nil {
		log = slog.Default()
	}
	g := &Gate{users: users, hasher: hasher, tokens: tokens, log: log}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateUser stores a new account without issuing a token. Uniqueness of
// userName and email is left to the store.
func (g *Gate) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	user, err := g.newUser(req)
	if err != nil {
		return nil, err
	}
	if err := g.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user.Password = ""
	g.record(ctx, models.ActionUserCreated, user.ID)
	return user, nil
}

// Signup creates an account and returns it with a fresh session token.
func (g *Gate) Signup(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	_, err := g.users.FindUserByEmail(ctx, req.Email, false)
	switch {
	case err == nil:
		return nil, models.NewDuplicateUserError()
	case !errors.Is(err, models.ErrNoDocument):
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := g.newUser(req)
	if err != nil {
		return nil, err
	}
	token, err := g.tokens.Sign(user.ID.Hex(), user.UserName)
	if err != nil {
		return nil, err
	}
	user.Token = token

	if err := g.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if models.IsDuplicateOn(err, "Email") {
			return nil, models.NewDuplicateUserError()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	user.Password = ""
	g.record(ctx, models.ActionUserSignup, user.ID)
	return user, nil
}

// Login checks the credentials and replaces the stored token with a new one.
func (g *Gate) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if g.throttle != nil {
		allowed, err := g.throttle.Allow(ctx, req.Email)
		if err != nil {
			g.log.WarnContext(ctx, "login throttle unavailable", slog.String("error", err.Error()))
		}
		if !allowed {
			return nil, models.NewRateLimitedError()
		}
	}

	user, err := g.users.FindUserByEmail(ctx, req.Email, true)
	if err != nil && !errors.Is(err, models.ErrNoDocument) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		g.hasher.Verify(req.Password, g.dummy())
		g.failed(ctx, req.Email)
		return nil, models.NewAuthenticationError()
	}
	if !g.hasher.Verify(req.Password, user.Password) {
		g.failed(ctx, req.Email)
		return nil, models.NewAuthenticationError()
	}

	token, err := g.tokens.Sign(user.ID.Hex(), user.UserName)
	if err != nil {
		return nil, err
	}
	updated, err := g.users.UpdateUser(ctx, user.ID, models.UserPatch{Token: &token})
	if err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	if g.throttle != nil {
		if err := g.throttle.Reset(ctx, req.Email); err != nil {
			g.log.WarnContext(ctx, "login throttle reset failed", slog.String("error", err.Error()))
		}
	}
	g.record(ctx, models.ActionUserLogin, user.ID)
	return updated, nil
}

// ParseToken verifies a session token.
func (g *Gate) ParseToken(token string) (*Claims, error) {
	return g.tokens.Parse(token)
}

func (g *Gate) newUser(req models.CreateUserRequest) (*models.User, error) {
	digest, err := g.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:          primitive.NewObjectID(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		UserName:    req.UserName,
		Email:       req.Email,
		Password:    digest,
		CreatedPins: []primitive.ObjectID{},
		SavedPins:   []primitive.ObjectID{},
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// dummy returns a digest compared against when the email is unknown, so
// both failure paths cost one bcrypt comparison.
func (g *Gate) dummy() string {
	g.dummyOnce.Do(func() {
		digest, err := g.hasher.Hash("not-a-real-password")
		if err != nil {
			g.log.Error("dummy digest", slog.String("error", err.Error()))
			return
		}
		g.dummyDigest = digest
	})
	return g.dummyDigest
}

func (g *Gate) failed(ctx context.Context, email string) {
	if g.throttle == nil {
		return
	}
	if err := g.throttle.Fail(ctx, email); err != nil {
		g.log.WarnContext(ctx, "login throttle update failed", slog.String("error", err.Error()))
	}
}

func (g *Gate) record(ctx context.Context, action string, userID primitive.ObjectID) {
	if g.activity == nil {
		return
	}
	a := models.Activity{Action: action, UserID: userID.Hex(), At: time.Now().UTC()}
	if err := g.activity.Record(ctx, a); err != nil {
		g.log.ErrorContext(ctx, "record activity failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
