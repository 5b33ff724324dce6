// Package graph exposes the pin board over GraphQL. It only translates
// wire arguments into calls on pinboard.Service and auth.Gate.
package graph

import (
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/ayush/pinboard/backend/internal/auth"
	"github.com/ayush/pinboard/backend/internal/models"
	"github.com/ayush/pinboard/backend/internal/pinboard"
)

type resolver struct {
	svc  *pinboard.Service
	gate *auth.Gate
	log  *slog.Logger
}

// NewSchema builds the query and mutation roots.
func NewSchema(svc *pinboard.Service, gate *auth.Gate, log *slog.Logger) (graphql.Schema, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &resolver{svc: svc, gate: gate, log: log}
	userType, pinType := r.types()

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootQuery",
		Fields: graphql.Fields{
			"users": {
				Type:    graphql.NewList(userType),
				Resolve: r.wrap(r.users),
			},
			"user": {
				Type:    userType,
				Args:    graphql.FieldConfigArgument{"id": {Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.wrap(r.user),
			},
			"pins": {
				Type:    graphql.NewList(pinType),
				Resolve: r.wrap(r.pins),
			},
			"pin": {
				Type:    pinType,
				Args:    graphql.FieldConfigArgument{"id": {Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.wrap(r.pin),
			},
			"me": {
				Type:        userType,
				Description: "The user named by the bearer token.",
				Resolve:     r.wrap(r.me),
			},
		},
	})

	accountArgs := graphql.FieldConfigArgument{
		"firstName":       {Type: graphql.NewNonNull(graphql.String)},
		"lastName":        {Type: graphql.String},
		"userName":        {Type: graphql.NewNonNull(graphql.String)},
		"email":           {Type: graphql.NewNonNull(graphql.String)},
		"password":        {Type: graphql.NewNonNull(graphql.String)},
		"passwordConfirm": {Type: graphql.NewNonNull(graphql.String)},
	}
	pinUserArgs := graphql.FieldConfigArgument{
		"id":     {Type: graphql.NewNonNull(graphql.ID)},
		"userId": {Type: graphql.NewNonNull(graphql.ID)},
	}
	saveArgs := graphql.FieldConfigArgument{
		"pinId":  {Type: graphql.NewNonNull(graphql.ID)},
		"userId": {Type: graphql.NewNonNull(graphql.ID)},
	}

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createUser": {Type: userType, Args: accountArgs, Resolve: r.wrap(r.createUser)},
			"signup":     {Type: userType, Args: accountArgs, Resolve: r.wrap(r.signup)},
			"login": {
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"email":    {Type: graphql.NewNonNull(graphql.String)},
					"password": {Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.wrap(r.login),
			},
			"updateUser": {
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id":        {Type: graphql.NewNonNull(graphql.ID)},
					"firstName": {Type: graphql.String},
					"lastName":  {Type: graphql.String},
				},
				Resolve: r.wrap(r.updateUser),
			},
			"deleteUser": {
				Type:    userType,
				Args:    graphql.FieldConfigArgument{"id": {Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.wrap(r.deleteUser),
			},
			"createPin": {
				Type: pinType,
				Args: graphql.FieldConfigArgument{
					"title":       {Type: graphql.NewNonNull(graphql.String)},
					"imageUrl":    {Type: graphql.NewNonNull(graphql.String)},
					"description": {Type: graphql.String},
					"link":        {Type: graphql.String},
					"userId":      {Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.wrap(r.createPin),
			},
			"updatePin": {
				Type: pinType,
				Args: graphql.FieldConfigArgument{
					"id":          {Type: graphql.NewNonNull(graphql.ID)},
					"userId":      {Type: graphql.NewNonNull(graphql.ID)},
					"title":       {Type: graphql.String},
					"imageUrl":    {Type: graphql.String},
					"description": {Type: graphql.String},
					"link":        {Type: graphql.String},
				},
				Resolve: r.wrap(r.updatePin),
			},
			"deletePin": {Type: pinType, Args: pinUserArgs, Resolve: r.wrap(r.deletePin)},
			"savePin":   {Type: pinType, Args: saveArgs, Resolve: r.wrap(r.savePin)},
			"removePin": {Type: pinType, Args: saveArgs, Resolve: r.wrap(r.removePin)},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

// types declares User and Pin. The relationship fields reference each
// other, so they are attached after both objects exist.
func (r *resolver) types() (*graphql.Object, *graphql.Object) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        {Type: graphql.ID, Resolve: userField(func(u *models.User) interface{} { return u.ID.Hex() })},
			"firstName": {Type: graphql.String},
			"lastName":  {Type: graphql.String},
			"userName":  {Type: graphql.String},
			"email":     {Type: graphql.String},
			"token": {
				Type: graphql.String,
				Resolve: userField(func(u *models.User) interface{} {
					if u.Token == "" {
						return nil
					}
					return u.Token
				}),
			},
			"createdAt": {Type: graphql.DateTime, Resolve: userField(func(u *models.User) interface{} { return u.CreatedAt })},
		},
	})

	pinType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pin",
		Fields: graphql.Fields{
			"id":          {Type: graphql.ID, Resolve: pinField(func(p *models.Pin) interface{} { return p.ID.Hex() })},
			"title":       {Type: graphql.String},
			"imageUrl":    {Type: graphql.String},
			"description": {Type: graphql.String},
			"link":        {Type: graphql.String},
			"createdAt":   {Type: graphql.DateTime, Resolve: pinField(func(p *models.Pin) interface{} { return p.CreatedAt })},
		},
	})

	userType.AddFieldConfig("createdPins", &graphql.Field{
		Type: graphql.NewList(pinType),
		Resolve: r.wrap(func(p graphql.ResolveParams) (interface{}, error) {
			return r.svc.CreatedPins(p.Context, asUser(p.Source))
		}),
	})
	userType.AddFieldConfig("savedPins", &graphql.Field{
		Type: graphql.NewList(pinType),
		Resolve: r.wrap(func(p graphql.ResolveParams) (interface{}, error) {
			return r.svc.SavedPins(p.Context, asUser(p.Source))
		}),
	})
	pinType.AddFieldConfig("user", &graphql.Field{
		Type: userType,
		Resolve: r.wrap(func(p graphql.ResolveParams) (interface{}, error) {
			u, err := r.svc.Creator(p.Context, asPin(p.Source))
			if err != nil || u == nil {
				return nil, err
			}
			return public(u), nil
		}),
	})
	pinType.AddFieldConfig("savedBy", &graphql.Field{
		Type: graphql.NewList(userType),
		Resolve: r.wrap(func(p graphql.ResolveParams) (interface{}, error) {
			users, err := r.svc.SavedBy(p.Context, asPin(p.Source))
			if err != nil {
				return nil, err
			}
			return publicList(users), nil
		}),
	})

	return userType, pinType
}

// wrap converts service errors into client-facing GraphQL errors.
func (r *resolver) wrap(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		v, err := fn(p)
		if err != nil {
			return nil, toGraphError(p.Context, r.log, err)
		}
		return v, nil
	}
}

func asUser(src interface{}) *models.User {
	switch v := src.(type) {
	case *models.User:
		return v
	case models.User:
		return &v
	}
	return &models.User{}
}

func asPin(src interface{}) *models.Pin {
	switch v := src.(type) {
	case *models.Pin:
		return v
	case models.Pin:
		return &v
	}
	return &models.Pin{}
}

func userField(get func(*models.User) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		return get(asUser(p.Source)), nil
	}
}

func pinField(get func(*models.Pin) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		return get(asPin(p.Source)), nil
	}
}

// public drops the session token. Only signup and login hand a token back.
func public(u *models.User) *models.User {
	c := *u
	c.Token = ""
	return &c
}

func publicList(users []models.User) []*models.User {
	out := make([]*models.User, 0, len(users))
	for i := range users {
		out = append(out, public(&users[i]))
	}
	return out
}
