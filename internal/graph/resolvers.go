package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/ayush/pinboard/backend/internal/auth"
	"github.com/ayush/pinboard/backend/internal/models"
	"github.com/ayush/pinboard/backend/internal/pinboard"
)

func argString(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

// argOptional distinguishes an omitted argument from an empty one.
func argOptional(p graphql.ResolveParams, name string) *string {
	s, ok := p.Args[name].(string)
	if !ok {
		return nil
	}
	return &s
}

// ── Queries ──────────────────────────────────────────────────

func (r *resolver) users(p graphql.ResolveParams) (interface{}, error) {
	users, err := r.svc.Users(p.Context)
	if err != nil {
		return nil, err
	}
	return publicList(users), nil
}

func (r *resolver) user(p graphql.ResolveParams) (interface{}, error) {
	u, err := r.svc.User(p.Context, argString(p, "id"))
	if err != nil {
		return nil, err
	}
	return public(u), nil
}

func (r *resolver) pins(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Pins(p.Context)
}

func (r *resolver) pin(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.Pin(p.Context, argString(p, "id"))
}

func (r *resolver) me(p graphql.ResolveParams) (interface{}, error) {
	claims, ok := auth.ClaimsFrom(p.Context)
	if !ok {
		return nil, models.NewNotAuthorizedError("Not authenticated")
	}
	u, err := r.svc.User(p.Context, claims.UserID)
	if err != nil {
		return nil, err
	}
	return public(u), nil
}

// ── Account mutations ────────────────────────────────────────

func accountRequest(p graphql.ResolveParams) models.CreateUserRequest {
	return models.CreateUserRequest{
		FirstName:       argString(p, "firstName"),
		LastName:        argString(p, "lastName"),
		UserName:        argString(p, "userName"),
		Email:           argString(p, "email"),
		Password:        argString(p, "password"),
		PasswordConfirm: argString(p, "passwordConfirm"),
	}
}

func (r *resolver) createUser(p graphql.ResolveParams) (interface{}, error) {
	return r.gate.CreateUser(p.Context, accountRequest(p))
}

func (r *resolver) signup(p graphql.ResolveParams) (interface{}, error) {
	return r.gate.Signup(p.Context, accountRequest(p))
}

func (r *resolver) login(p graphql.ResolveParams) (interface{}, error) {
	return r.gate.Login(p.Context, models.LoginRequest{
		Email:    argString(p, "email"),
		Password: argString(p, "password"),
	})
}

func (r *resolver) updateUser(p graphql.ResolveParams) (interface{}, error) {
	u, err := r.svc.UpdateUser(p.Context, argString(p, "id"), pinboard.UpdateUserInput{
		FirstName: argOptional(p, "firstName"),
		LastName:  argOptional(p, "lastName"),
	})
	if err != nil {
		return nil, err
	}
	return public(u), nil
}

func (r *resolver) deleteUser(p graphql.ResolveParams) (interface{}, error) {
	u, err := r.svc.DeleteUser(p.Context, argString(p, "id"))
	if err != nil {
		return nil, err
	}
	return public(u), nil
}

// ── Pin mutations ────────────────────────────────────────────

func (r *resolver) createPin(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.CreatePin(p.Context, models.CreatePinRequest{
		Title:       argString(p, "title"),
		ImageURL:    argString(p, "imageUrl"),
		Description: argString(p, "description"),
		Link:        argString(p, "link"),
		UserID:      argString(p, "userId"),
	})
}

func (r *resolver) updatePin(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.UpdatePin(p.Context, argString(p, "id"), argString(p, "userId"), models.PinPatch{
		Title:       argOptional(p, "title"),
		ImageURL:    argOptional(p, "imageUrl"),
		Description: argOptional(p, "description"),
		Link:        argOptional(p, "link"),
	})
}

func (r *resolver) deletePin(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.DeletePin(p.Context, argString(p, "id"), argString(p, "userId"))
}

func (r *resolver) savePin(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.SavePin(p.Context, argString(p, "pinId"), argString(p, "userId"))
}

func (r *resolver) removePin(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.RemovePin(p.Context, argString(p, "pinId"), argString(p, "userId"))
}
