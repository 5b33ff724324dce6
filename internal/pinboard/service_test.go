package pinboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/pinboard/backend/internal/models"
	"github.com/ayush/pinboard/backend/internal/store"
)

type recorded struct {
	actions []string
	err     error
}

func (r *recorded) Record(_ context.Context, a models.Activity) error {
	r.actions = append(r.actions, a.Action)
	return r.err
}

func newService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return NewService(s, s, nil, nil), s
}

func seedUser(t *testing.T, s *store.MemoryStore, name string) *models.User {
	t.Helper()
	u := &models.User{FirstName: name, UserName: name, Email: name + "@x.com", Password: "digest"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedPin(t *testing.T, svc *Service, owner *models.User, title string) *models.Pin {
	t.Helper()
	p, err := svc.CreatePin(context.Background(), models.CreatePinRequest{
		Title:    title,
		ImageURL: "https://img.example.com/" + title + ".png",
		UserID:   owner.ID.Hex(),
	})
	require.NoError(t, err)
	return p
}

func reload(t *testing.T, s *store.MemoryStore, u *models.User) *models.User {
	t.Helper()
	got, err := s.FindUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	return got
}

func reloadPin(t *testing.T, s *store.MemoryStore, p *models.Pin) *models.Pin {
	t.Helper()
	got, err := s.FindPinByID(context.Background(), p.ID)
	require.NoError(t, err)
	return got
}

func str(s string) *string { return &s }

func TestCreatePin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)
	owner := seedUser(t, s, "ann")

	p1 := seedPin(t, svc, owner, "one")
	p2 := seedPin(t, svc, owner, "two")

	assert.Equal(t, owner.ID, p1.UserID)
	assert.Empty(t, p1.SavedBy)
	assert.Equal(t, []primitive.ObjectID{p1.ID, p2.ID}, reload(t, s, owner).CreatedPins)

	created, err := svc.CreatedPins(ctx, reload(t, s, owner))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "one", created[0].Title)

	creator, err := svc.Creator(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, creator.ID)
}

func TestCreatePin_Rejects(t *testing.T) {
	t.Parallel()
	svc, s := newService(t)
	owner := seedUser(t, s, "ann")
	seedPin(t, svc, owner, "taken")

	tests := []struct {
		name string
		req  models.CreatePinRequest
		code string
		msg  string
	}{
		{"malformed user id", models.CreatePinRequest{Title: "t", ImageURL: "u", UserID: "123"}, models.CodeInvalidID, "Invalid ID"},
		{"unknown user", models.CreatePinRequest{Title: "t", ImageURL: "u", UserID: primitive.NewObjectID().Hex()}, models.CodeNotFound, "User does not exist"},
		{"missing title", models.CreatePinRequest{ImageURL: "u", UserID: owner.ID.Hex()}, models.CodeValidation, "Title is Required"},
		{"missing image", models.CreatePinRequest{Title: "t", UserID: owner.ID.Hex()}, models.CodeValidation, "Image URL is Required"},
		{"duplicate title", models.CreatePinRequest{Title: "taken", ImageURL: "u", UserID: owner.ID.Hex()}, models.CodeDuplicateKey, "Title should be unique"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePin(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, tt.code), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	assert.Len(t, reload(t, s, owner).CreatedPins, 1)
}

func TestDeletePin_RemovesEveryReference(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)
	owner := seedUser(t, s, "ann")
	fan := seedUser(t, s, "bob")
	p := seedPin(t, svc, owner, "one")
	keep := seedPin(t, svc, owner, "two")

	_, err := svc.SavePin(ctx, p.ID.Hex(), fan.ID.Hex())
	require.NoError(t, err)

	deleted, err := svc.DeletePin(ctx, p.ID.Hex(), owner.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	assert.Equal(t, []primitive.ObjectID{keep.ID}, reload(t, s, owner).CreatedPins)
	assert.Empty(t, reload(t, s, fan).SavedPins)

	_, err = svc.Pin(ctx, p.ID.Hex())
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Equal(t, "Pin does not exist", err.Error())
}

func TestSaveRemove_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)
	owner := seedUser(t, s, "ann")
	fan := seedUser(t, s, "bob")
	p := seedPin(t, svc, owner, "one")

	beforePin := reloadPin(t, s, p).SavedBy
	beforeUser := reload(t, s, fan).SavedPins

	for i := 0; i < 2; i++ {
		_, err := svc.SavePin(ctx, p.ID.Hex(), fan.ID.Hex())
		require.NoError(t, err)
	}
	assert.Equal(t, []primitive.ObjectID{fan.ID}, reloadPin(t, s, p).SavedBy, "save is idempotent")
	assert.Equal(t, []primitive.ObjectID{p.ID}, reload(t, s, fan).SavedPins)

	savedBy, err := svc.SavedBy(ctx, reloadPin(t, s, p))
	require.NoError(t, err)
	require.Len(t, savedBy, 1)
	assert.Equal(t, "bob", savedBy[0].UserName)

	_, err = svc.RemovePin(ctx, p.ID.Hex(), fan.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, beforePin, reloadPin(t, s, p).SavedBy)
	assert.Equal(t, beforeUser, reload(t, s, fan).SavedPins)

	_, err = svc.RemovePin(ctx, p.ID.Hex(), fan.ID.Hex())
	assert.NoError(t, err, "removing an absent save is a no-op")
}

func TestOwnedPinGate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)
	owner := seedUser(t, s, "ann")
	other := seedUser(t, s, "bob")
	p := seedPin(t, svc, owner, "one")
	missing := primitive.NewObjectID().Hex()

	tests := []struct {
		name   string
		pinID  string
		userID string
		code   string
		msg    string
	}{
		{"bad pin id", "nope", owner.ID.Hex(), models.CodeInvalidID, "Invalid Pin ID"},
		{"bad user id", p.ID.Hex(), "nope", models.CodeInvalidID, "Invalid User ID"},
		{"both bad", "nope", "nope", models.CodeInvalidID, "Invalid Pin ID"},
		{"unknown user", p.ID.Hex(), missing, models.CodeNotFound, "User does not exist"},
		{"unknown pin", missing, owner.ID.Hex(), models.CodeNotFound, "Pin does not exist"},
		{"not the creator", p.ID.Hex(), other.ID.Hex(), models.CodeNotAuthorized, "User is not the Creator of this pin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdatePin(ctx, tt.pinID, tt.userID, models.PinPatch{Title: str("x")})
			require.Error(t, err)
			assert.True(t, models.HasCode(err, tt.code), "update: %v", err)
			assert.Equal(t, tt.msg, err.Error())

			_, err = svc.DeletePin(ctx, tt.pinID, tt.userID)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, tt.code), "delete: %v", err)
		})
	}

	got := reloadPin(t, s, p)
	assert.Equal(t, "one", got.Title)
}

func TestUpdatePin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)
	owner := seedUser(t, s, "ann")
	p := seedPin(t, svc, owner, "one")
	seedPin(t, svc, owner, "two")

	updated, err := svc.UpdatePin(ctx, p.ID.Hex(), owner.ID.Hex(), models.PinPatch{Description: str("desc")})
	require.NoError(t, err)
	assert.Equal(t, "one", updated.Title)
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, owner.ID, updated.UserID)

	_, err = svc.UpdatePin(ctx, p.ID.Hex(), owner.ID.Hex(), models.PinPatch{Title: str("  ")})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.UpdatePin(ctx, p.ID.Hex(), owner.ID.Hex(), models.PinPatch{Title: str("two")})
	assert.True(t, models.HasCode(err, models.CodeDuplicateKey))
}

func TestDeleteUser_Cascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)
	owner := seedUser(t, s, "ann")
	fan := seedUser(t, s, "bob")
	p1 := seedPin(t, svc, owner, "one")
	p2 := seedPin(t, svc, owner, "two")
	theirs := seedPin(t, svc, fan, "three")

	for _, id := range []string{p1.ID.Hex(), p2.ID.Hex()} {
		_, err := svc.SavePin(ctx, id, fan.ID.Hex())
		require.NoError(t, err)
	}
	_, err := svc.SavePin(ctx, theirs.ID.Hex(), owner.ID.Hex())
	require.NoError(t, err)

	snapshot, err := svc.DeleteUser(ctx, owner.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "ann", snapshot.UserName)

	for _, p := range []*models.Pin{p1, p2} {
		_, err := svc.Pin(ctx, p.ID.Hex())
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	}
	assert.Empty(t, reload(t, s, fan).SavedPins)
	assert.Empty(t, reloadPin(t, s, theirs).SavedBy)

	_, err = svc.User(ctx, owner.ID.Hex())
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	_, err = svc.DeleteUser(ctx, "bad")
	assert.True(t, models.HasCode(err, models.CodeInvalidID))
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)
	u := seedUser(t, s, "ann")

	got, err := svc.UpdateUser(ctx, u.ID.Hex(), UpdateUserInput{LastName: str("Lovelace")})
	require.NoError(t, err)
	assert.Equal(t, "ann", got.FirstName)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.Empty(t, got.Password)

	_, err = svc.UpdateUser(ctx, u.ID.Hex(), UpdateUserInput{FirstName: str("")})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.UpdateUser(ctx, primitive.NewObjectID().Hex(), UpdateUserInput{})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestReads_SkipDanglingIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)
	owner := seedUser(t, s, "ann")
	p := seedPin(t, svc, owner, "one")

	ghostPin := primitive.NewObjectID()
	ghostUser := primitive.NewObjectID()
	require.NoError(t, s.PushCreatedPin(ctx, owner.ID, ghostPin))
	require.NoError(t, s.AddSavedPin(ctx, owner.ID, ghostPin))
	require.NoError(t, s.AddSavedBy(ctx, p.ID, ghostUser))

	created, err := svc.CreatedPins(ctx, reload(t, s, owner))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, p.ID, created[0].ID)

	saved, err := svc.SavedPins(ctx, reload(t, s, owner))
	require.NoError(t, err)
	assert.Empty(t, saved)

	savedBy, err := svc.SavedBy(ctx, reloadPin(t, s, p))
	require.NoError(t, err)
	assert.Empty(t, savedBy)

	orphan := &models.Pin{UserID: ghostUser}
	creator, err := svc.Creator(ctx, orphan)
	require.NoError(t, err)
	assert.Nil(t, creator)
}

type flakyPins struct {
	*store.MemoryStore
}

func (flakyPins) AddSavedBy(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return errors.New("write timeout")
}

func TestSavePin_OneSidedFailureIsRepairedByDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewService(s, flakyPins{s}, nil, nil)
	owner := seedUser(t, s, "ann")
	fan := seedUser(t, s, "bob")
	p := seedPin(t, svc, owner, "one")

	_, err := svc.SavePin(ctx, p.ID.Hex(), fan.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, []primitive.ObjectID{p.ID}, reload(t, s, fan).SavedPins)
	assert.Empty(t, reloadPin(t, s, p).SavedBy)

	_, err = svc.DeletePin(ctx, p.ID.Hex(), owner.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, reload(t, s, fan).SavedPins)
}

func TestActivity_BestEffort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()
	rec := &recorded{err: errors.New("pg down")}
	svc := NewService(s, s, rec, nil)
	owner := seedUser(t, s, "ann")

	p := seedPin(t, svc, owner, "one")
	_, err := svc.SavePin(ctx, p.ID.Hex(), owner.ID.Hex())
	require.NoError(t, err)
	_, err = svc.DeletePin(ctx, p.ID.Hex(), owner.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, []string{models.ActionPinCreated, models.ActionPinSaved, models.ActionPinDeleted}, rec.actions)
}
