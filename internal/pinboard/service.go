package pinboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/pinboard/backend/internal/models"
	"github.com/ayush/pinboard/backend/internal/validation"
)

// Service exposes the user and pin operations. Every id-taking mutation
// checks id format first, existence second and ownership third.
type Service struct {
	users    UserStore
	pins     PinStore
	rel      *Relations
	activity Recorder
	log      *slog.Logger
}

// NewService wires the stores. activity may be nil.
func NewService(users UserStore, pins PinStore, activity Recorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:    users,
		pins:     pins,
		rel:      NewRelations(users, pins, log),
		activity: activity,
		log:      log,
	}
}

// UpdateUserInput holds the profile fields updateUser may change.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
}

// ── Queries ──────────────────────────────────────────────────

func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	users, err := s.users.FindUsers(ctx, models.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) User(ctx context.Context, id string) (*models.User, error) {
	oid, err := ParseID(id, MsgInvalidID)
	if err != nil {
		return nil, err
	}
	return s.mustUser(ctx, oid)
}

func (s *Service) Pins(ctx context.Context) ([]models.Pin, error) {
	pins, err := s.pins.FindPins(ctx, models.PinFilter{})
	if err != nil {
		return nil, fmt.Errorf("list pins: %w", err)
	}
	return pins, nil
}

func (s *Service) Pin(ctx context.Context, id string) (*models.Pin, error) {
	oid, err := ParseID(id, MsgInvalidID)
	if err != nil {
		return nil, err
	}
	return s.mustPin(ctx, oid)
}

// CreatedPins resolves u.CreatedPins in creation order, skipping dangling ids.
func (s *Service) CreatedPins(ctx context.Context, u *models.User) ([]models.Pin, error) {
	return s.pinsByIDs(ctx, u.CreatedPins)
}

// SavedPins resolves u.SavedPins, skipping dangling ids.
func (s *Service) SavedPins(ctx context.Context, u *models.User) ([]models.Pin, error) {
	return s.pinsByIDs(ctx, u.SavedPins)
}

// SavedBy resolves p.SavedBy, skipping dangling ids.
func (s *Service) SavedBy(ctx context.Context, p *models.Pin) ([]models.User, error) {
	if len(p.SavedBy) == 0 {
		return []models.User{}, nil
	}
	found, err := s.users.FindUsers(ctx, models.UserFilter{IDs: p.SavedBy})
	if err != nil {
		return nil, fmt.Errorf("find saved by: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(p.SavedBy))
	for _, id := range p.SavedBy {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		} else {
			s.log.DebugContext(ctx, "skipping dangling user reference", slog.String("user_id", id.Hex()))
		}
	}
	return out, nil
}

// Creator returns the pin's owner, or nil if the owner no longer exists.
func (s *Service) Creator(ctx context.Context, p *models.Pin) (*models.User, error) {
	u, found, err := s.UserExists(ctx, p.UserID)
	if err != nil || !found {
		return nil, err
	}
	return u, nil
}

func (s *Service) pinsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Pin, error) {
	if len(ids) == 0 {
		return []models.Pin{}, nil
	}
	found, err := s.pins.FindPins(ctx, models.PinFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("find pins by id: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.Pin, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Pin, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		} else {
			s.log.DebugContext(ctx, "skipping dangling pin reference", slog.String("pin_id", id.Hex()))
		}
	}
	return out, nil
}

// ── User mutations ───────────────────────────────────────────

func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	oid, err := ParseID(id, MsgInvalidUserID)
	if err != nil {
		return nil, err
	}
	user, err := s.mustUser(ctx, oid)
	if err != nil {
		return nil, err
	}
	if err := validation.NotBlank(in.FirstName, "First Name"); err != nil {
		return nil, err
	}

	patch := models.UserPatch{FirstName: in.FirstName, LastName: in.LastName}
	if patch.Empty() {
		return user, nil
	}
	updated, err := s.users.UpdateUser(ctx, oid, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.record(ctx, models.ActionUserUpdated, oid, primitive.NilObjectID)
	return updated, nil
}

// DeleteUser removes the user and every pin they created. It returns the
// user as it was before deletion.
func (s *Service) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := ParseID(id, MsgInvalidUserID)
	if err != nil {
		return nil, err
	}
	user, err := s.mustUser(ctx, oid)
	if err != nil {
		return nil, err
	}

	if err := s.rel.OnUserDeleted(ctx, user); err != nil {
		return nil, err
	}

	s.record(ctx, models.ActionUserDeleted, oid, primitive.NilObjectID)
	return user, nil
}

// ── Pin mutations ────────────────────────────────────────────

func (s *Service) CreatePin(ctx context.Context, req models.CreatePinRequest) (*models.Pin, error) {
	uid, err := ParseID(req.UserID, MsgInvalidID)
	if err != nil {
		return nil, err
	}
	user, err := s.mustUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	pin := &models.Pin{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Link:        req.Link,
		UserID:      user.ID,
		SavedBy:     []primitive.ObjectID{},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.pins.CreatePin(ctx, pin); err != nil {
		return nil, fmt.Errorf("create pin: %w", err)
	}
	if err := s.rel.OnPinCreated(ctx, pin, user); err != nil {
		return nil, err
	}

	s.record(ctx, models.ActionPinCreated, user.ID, pin.ID)
	return pin, nil
}

// UpdatePin changes the pin's content; only its creator may do so.
func (s *Service) UpdatePin(ctx context.Context, pinID, userID string, patch models.PinPatch) (*models.Pin, error) {
	pin, user, err := s.ownedPin(ctx, pinID, userID)
	if err != nil {
		return nil, err
	}
	if err := validation.NotBlank(patch.Title, "Title"); err != nil {
		return nil, err
	}
	if err := validation.NotBlank(patch.ImageURL, "Image URL"); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return pin, nil
	}

	updated, err := s.pins.UpdatePin(ctx, pin.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("update pin: %w", err)
	}

	s.record(ctx, models.ActionPinUpdated, user.ID, pin.ID)
	return updated, nil
}

// DeletePin removes the pin and every reference to it; only its creator
// may do so. It returns the pin as it was before deletion.
func (s *Service) DeletePin(ctx context.Context, pinID, userID string) (*models.Pin, error) {
	pin, user, err := s.ownedPin(ctx, pinID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.rel.OnPinDeleted(ctx, pin); err != nil {
		return nil, err
	}

	s.record(ctx, models.ActionPinDeleted, user.ID, pin.ID)
	return pin, nil
}

// SavePin bookmarks the pin for the user.
func (s *Service) SavePin(ctx context.Context, pinID, userID string) (*models.Pin, error) {
	pin, user, err := s.pinAndUser(ctx, pinID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.rel.OnPinSaved(ctx, pin, user); err != nil {
		return nil, err
	}

	s.record(ctx, models.ActionPinSaved, user.ID, pin.ID)
	return pin, nil
}

// RemovePin drops the user's bookmark of the pin.
func (s *Service) RemovePin(ctx context.Context, pinID, userID string) (*models.Pin, error) {
	pin, user, err := s.pinAndUser(ctx, pinID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.rel.OnPinUnsaved(ctx, pin, user); err != nil {
		return nil, err
	}

	s.record(ctx, models.ActionPinRemoved, user.ID, pin.ID)
	return pin, nil
}

func (s *Service) record(ctx context.Context, action string, userID, pinID primitive.ObjectID) {
	if s.activity == nil {
		return
	}
	a := models.Activity{Action: action, UserID: userID.Hex(), At: time.Now().UTC()}
	if !pinID.IsZero() {
		a.PinID = pinID.Hex()
	}
	if err := s.activity.Record(ctx, a); err != nil {
		s.log.ErrorContext(ctx, "record activity failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
