package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/pinboard/backend/internal/models"
)

var errDuplicate = errors.New("duplicate key")

// MemoryStore keeps users and pins in process memory. It mirrors the
// MongoStore semantics (unique fields, set updates, hidden passwords)
// and is used when no MongoDB URI is configured, and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
	pins  map[primitive.ObjectID]*models.Pin
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[primitive.ObjectID]*models.User),
		pins:  make(map[primitive.ObjectID]*models.Pin),
	}
}

func cloneUser(u *models.User, withPassword bool) *models.User {
	c := *u
	c.CreatedPins = models.CloneIDs(u.CreatedPins)
	c.SavedPins = models.CloneIDs(u.SavedPins)
	if !withPassword {
		c.Password = ""
	}
	return &c
}

func clonePin(p *models.Pin) *models.Pin {
	c := *p
	c.SavedBy = models.CloneIDs(p.SavedBy)
	return &c
}

// older orders by creation time, then by id for documents created in the same instant.
func older(a, b time.Time, aID, bID primitive.ObjectID) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID.Hex() < bID.Hex()
}

// ── Users ────────────────────────────────────────────────────

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.UserName == u.UserName {
			return models.NewDuplicateKeyError("Username", errDuplicate)
		}
		if existing.Email == u.Email {
			return models.NewDuplicateKeyError("Email", errDuplicate)
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, ok := s.users[u.ID]; ok {
		return models.NewDuplicateKeyError("ID", errDuplicate)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.CreatedPins = models.CloneIDs(u.CreatedPins)
	u.SavedPins = models.CloneIDs(u.SavedPins)

	s.users[u.ID] = cloneUser(u, true)
	return nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNoDocument
	}
	return cloneUser(u, false), nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string, withPassword bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u, withPassword), nil
		}
	}
	return nil, models.ErrNoDocument
}

func (s *MemoryStore) FindUsers(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.User{}
	for _, u := range s.users {
		if filter.IDs != nil && !models.ContainsID(filter.IDs, u.ID) {
			continue
		}
		out = append(out, *cloneUser(u, false))
	}
	sort.Slice(out, func(i, j int) bool { return older(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNoDocument
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Token != nil {
		u.Token = *patch.Token
	}
	return cloneUser(u, false), nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	return nil
}

// mutateUser applies fn to the stored user; a missing user is a no-op,
// matching an update that matches no document.
func (s *MemoryStore) mutateUser(id primitive.ObjectID, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		fn(u)
	}
	return nil
}

func (s *MemoryStore) PushCreatedPin(_ context.Context, userID, pinID primitive.ObjectID) error {
	return s.mutateUser(userID, func(u *models.User) { u.CreatedPins = append(u.CreatedPins, pinID) })
}

func (s *MemoryStore) PullCreatedPin(_ context.Context, userID, pinID primitive.ObjectID) error {
	return s.mutateUser(userID, func(u *models.User) { u.CreatedPins = models.PullID(u.CreatedPins, pinID) })
}

func (s *MemoryStore) AddSavedPin(_ context.Context, userID, pinID primitive.ObjectID) error {
	return s.mutateUser(userID, func(u *models.User) { u.SavedPins = models.AddToSet(u.SavedPins, pinID) })
}

func (s *MemoryStore) PullSavedPin(_ context.Context, userID, pinID primitive.ObjectID) error {
	return s.mutateUser(userID, func(u *models.User) { u.SavedPins = models.PullID(u.SavedPins, pinID) })
}

func (s *MemoryStore) PullSavedPinFromAll(_ context.Context, pinID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		u.SavedPins = models.PullID(u.SavedPins, pinID)
	}
	return nil
}

// ── Pins ─────────────────────────────────────────────────────

func (s *MemoryStore) CreatePin(_ context.Context, p *models.Pin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.pins {
		if existing.Title == p.Title {
			return models.NewDuplicateKeyError("Title", errDuplicate)
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.SavedBy = models.CloneIDs(p.SavedBy)

	s.pins[p.ID] = clonePin(p)
	return nil
}

func (s *MemoryStore) FindPinByID(_ context.Context, id primitive.ObjectID) (*models.Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pins[id]
	if !ok {
		return nil, models.ErrNoDocument
	}
	return clonePin(p), nil
}

func (s *MemoryStore) FindPins(_ context.Context, filter models.PinFilter) ([]models.Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Pin{}
	for _, p := range s.pins {
		if filter.IDs != nil && !models.ContainsID(filter.IDs, p.ID) {
			continue
		}
		if filter.UserID != nil && p.UserID != *filter.UserID {
			continue
		}
		out = append(out, *clonePin(p))
	}
	sort.Slice(out, func(i, j int) bool { return older(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *MemoryStore) UpdatePin(_ context.Context, id primitive.ObjectID, patch models.PinPatch) (*models.Pin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pins[id]
	if !ok {
		return nil, models.ErrNoDocument
	}
	if patch.Title != nil && *patch.Title != p.Title {
		for _, other := range s.pins {
			if other.ID != id && other.Title == *patch.Title {
				return nil, models.NewDuplicateKeyError("Title", errDuplicate)
			}
		}
		p.Title = *patch.Title
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Link != nil {
		p.Link = *patch.Link
	}
	return clonePin(p), nil
}

func (s *MemoryStore) DeletePin(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pins, id)
	return nil
}

func (s *MemoryStore) mutatePin(id primitive.ObjectID, fn func(p *models.Pin)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pins[id]; ok {
		fn(p)
	}
	return nil
}

func (s *MemoryStore) AddSavedBy(_ context.Context, pinID, userID primitive.ObjectID) error {
	return s.mutatePin(pinID, func(p *models.Pin) { p.SavedBy = models.AddToSet(p.SavedBy, userID) })
}

func (s *MemoryStore) PullSavedBy(_ context.Context, pinID, userID primitive.ObjectID) error {
	return s.mutatePin(pinID, func(p *models.Pin) { p.SavedBy = models.PullID(p.SavedBy, userID) })
}

func (s *MemoryStore) PullSavedByFromAll(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pins {
		p.SavedBy = models.PullID(p.SavedBy, userID)
	}
	return nil
}
