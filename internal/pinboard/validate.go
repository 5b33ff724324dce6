package pinboard

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/pinboard/backend/internal/models"
)

// Messages shared by the queries and mutations.
const (
	MsgInvalidID     = "Invalid ID"
	MsgInvalidUserID = "Invalid User ID"
	MsgInvalidPinID  = "Invalid Pin ID"
	MsgUserNotFound  = "User does not exist"
	MsgPinNotFound   = "Pin does not exist"
	MsgNotCreator    = "User is not the Creator of this pin"
)

// IsValidID reports whether id has the shape of a store identifier
// (24 hex characters). It does not check existence.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// ParseID converts id or fails with an INVALID_ID error carrying msg.
func ParseID(id, msg string) (primitive.ObjectID, error) {
	if !IsValidID(id) {
		return primitive.NilObjectID, models.NewInvalidIDError(msg)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.NewInvalidIDError(msg)
	}
	return oid, nil
}

// UserExists fetches a user by id. found is false when no such user
// exists; err is reserved for store failures.
func (s *Service) UserExists(ctx context.Context, id primitive.ObjectID) (*models.User, bool, error) {
	u, err := s.users.FindUserByID(ctx, id)
	if errors.Is(err, models.ErrNoDocument) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find user %s: %w", id.Hex(), err)
	}
	return u, true, nil
}

// PinExists fetches a pin by id with the same contract as UserExists.
func (s *Service) PinExists(ctx context.Context, id primitive.ObjectID) (*models.Pin, bool, error) {
	p, err := s.pins.FindPinByID(ctx, id)
	if errors.Is(err, models.ErrNoDocument) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find pin %s: %w", id.Hex(), err)
	}
	return p, true, nil
}

// mustUser is UserExists with NotFound folded into the error.
func (s *Service) mustUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, found, err := s.UserExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError(MsgUserNotFound)
	}
	return u, nil
}

func (s *Service) mustPin(ctx context.Context, id primitive.ObjectID) (*models.Pin, error) {
	p, found, err := s.PinExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError(MsgPinNotFound)
	}
	return p, nil
}

// ownedPin runs the gate shared by updatePin and deletePin:
// id format, then existence of user and pin, then ownership.
func (s *Service) ownedPin(ctx context.Context, pinID, userID string) (*models.Pin, *models.User, error) {
	pid, err := ParseID(pinID, MsgInvalidPinID)
	if err != nil {
		return nil, nil, err
	}
	uid, err := ParseID(userID, MsgInvalidUserID)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.mustUser(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	pin, err := s.mustPin(ctx, pid)
	if err != nil {
		return nil, nil, err
	}

	if pin.UserID != user.ID {
		return nil, nil, models.NewNotAuthorizedError(MsgNotCreator)
	}
	return pin, user, nil
}

// pinAndUser resolves the pair used by savePin and removePin.
func (s *Service) pinAndUser(ctx context.Context, pinID, userID string) (*models.Pin, *models.User, error) {
	pid, err := ParseID(pinID, MsgInvalidPinID)
	if err != nil {
		return nil, nil, err
	}
	uid, err := ParseID(userID, MsgInvalidUserID)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.mustUser(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	pin, err := s.mustPin(ctx, pid)
	if err != nil {
		return nil, nil, err
	}
	return pin, user, nil
}
