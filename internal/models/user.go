package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a single account stored in the users collection.
type User struct {
	ID          primitive.ObjectID   `json:"id"                 bson:"_id,omitempty"`
	FirstName   string               `json:"firstName"          bson:"firstName"`
	LastName    string               `json:"lastName,omitempty" bson:"lastName,omitempty"`
	UserName    string               `json:"userName"           bson:"userName"`
	Email       string               `json:"email"              bson:"email"`
	Password    string               `json:"-"                  bson:"password,omitempty"` // never serialize
	Token       string               `json:"token,omitempty"    bson:"token,omitempty"`
	CreatedPins []primitive.ObjectID `json:"-"                  bson:"createdPins"`
	SavedPins   []primitive.ObjectID `json:"-"                  bson:"savedPins"`
	CreatedAt   time.Time            `json:"createdAt"          bson:"createdAt"`
}

// UserPatch holds the optional fields of a user update. Nil fields are left untouched.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Token     *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Token == nil
}

// UserFilter narrows a user listing. A nil IDs slice means no restriction.
type UserFilter struct {
	IDs []primitive.ObjectID
}

// CreateUserRequest carries the createUser and signup arguments.
type CreateUserRequest struct {
	FirstName       string `json:"firstName"       validate:"required"`
	LastName        string `json:"lastName"`
	UserName        string `json:"userName"        validate:"required"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// LoginRequest carries the login arguments.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
