// Package pinboard holds the user/pin domain rules: id validation,
// ownership checks and the bookkeeping that keeps a user's createdPins and
// savedPins in step with each pin's owner and savedBy.
package pinboard

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/pinboard/backend/internal/models"
)

// UserStore defines the persistence operations needed on users.
// Lookups that match nothing return models.ErrNoDocument; unique index
// violations return a models.AppError with code DUPLICATE_KEY.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error)
	FindUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error

	PushCreatedPin(ctx context.Context, userID, pinID primitive.ObjectID) error
	PullCreatedPin(ctx context.Context, userID, pinID primitive.ObjectID) error
	AddSavedPin(ctx context.Context, userID, pinID primitive.ObjectID) error
	PullSavedPin(ctx context.Context, userID, pinID primitive.ObjectID) error
	// PullSavedPinFromAll removes pinID from the savedPins of every user holding it.
	PullSavedPinFromAll(ctx context.Context, pinID primitive.ObjectID) error
}

// PinStore defines the persistence operations needed on pins.
type PinStore interface {
	CreatePin(ctx context.Context, p *models.Pin) error
	FindPinByID(ctx context.Context, id primitive.ObjectID) (*models.Pin, error)
	FindPins(ctx context.Context, filter models.PinFilter) ([]models.Pin, error)
	UpdatePin(ctx context.Context, id primitive.ObjectID, patch models.PinPatch) (*models.Pin, error)
	DeletePin(ctx context.Context, id primitive.ObjectID) error

	AddSavedBy(ctx context.Context, pinID, userID primitive.ObjectID) error
	PullSavedBy(ctx context.Context, pinID, userID primitive.ObjectID) error
	// PullSavedByFromAll removes userID from the savedBy of every pin holding it.
	PullSavedByFromAll(ctx context.Context, userID primitive.ObjectID) error
}

// Recorder receives an audit entry after each successful mutation.
type Recorder interface {
	Record(ctx context.Context, a models.Activity) error
}
