package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pin is a bookmark to an external image, owned by the user that created it.
type Pin struct {
	ID          primitive.ObjectID   `json:"id"                    bson:"_id,omitempty"`
	Title       string               `json:"title"                 bson:"title"`
	ImageURL    string               `json:"imageUrl"              bson:"imageUrl"`
	Description string               `json:"description,omitempty" bson:"description,omitempty"`
	Link        string               `json:"link,omitempty"        bson:"link,omitempty"`
	UserID      primitive.ObjectID   `json:"-"                     bson:"userId"`
	SavedBy     []primitive.ObjectID `json:"-"                     bson:"savedBy"`
	CreatedAt   time.Time            `json:"createdAt"             bson:"createdAt"`
}

// PinPatch holds the optional fields of a pin update. The owner is not patchable.
type PinPatch struct {
	Title       *string
	ImageURL    *string
	Description *string
	Link        *string
}

func (p PinPatch) Empty() bool {
	return p.Title == nil && p.ImageURL == nil && p.Description == nil && p.Link == nil
}

// PinFilter narrows a pin listing. Zero value lists every pin.
type PinFilter struct {
	IDs    []primitive.ObjectID
	UserID *primitive.ObjectID
}

// CreatePinRequest carries the createPin arguments.
type CreatePinRequest struct {
	Title       string `json:"title"    validate:"required"`
	ImageURL    string `json:"imageUrl" validate:"required"`
	Description string `json:"description"`
	Link        string `json:"link"`
	UserID      string `json:"userId"`
}
