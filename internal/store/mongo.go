package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/pinboard/backend/internal/models"
)

// MongoStore handles user and pin documents in MongoDB.
type MongoStore struct {
	users *mongo.Collection
	pins  *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{users: db.Collection("users"), pins: db.Collection("pins")}
}

// EnsureIndexes creates the unique indexes backing userName, email and title.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userName", Value: 1}}, Options: options.Index().SetUnique(true).SetName("userName_unique")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "savedPins", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo users indexes: %w", err)
	}
	_, err = s.pins.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true).SetName("title_unique")},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "savedBy", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo pins indexes: %w", err)
	}
	return nil
}

// ── Users ────────────────────────────────────────────────────

// withoutPassword is the default projection for user reads.
var withoutPassword = bson.M{"password": 0}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.CreatedPins = models.CloneIDs(u.CreatedPins)
	u.SavedPins = models.CloneIDs(u.SavedPins)

	if _, err := s.users.InsertOne(ctx, u); err != nil {
		return mapWriteError("mongo insert user", err)
	}
	return nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	opts := options.FindOne().SetProjection(withoutPassword)
	if err := s.users.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&u); err != nil {
		return nil, mapReadError("mongo find user", err)
	}
	return &u, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error) {
	opts := options.FindOne()
	if !withPassword {
		opts.SetProjection(withoutPassword)
	}
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}, opts).Decode(&u); err != nil {
		return nil, mapReadError("mongo find user by email", err)
	}
	return &u, nil
}

func (s *MongoStore) FindUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	q := bson.M{}
	if filter.IDs != nil {
		q["_id"] = bson.M{"$in": filter.IDs}
	}
	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.users.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find users: %w", err)
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongo decode users: %w", err)
	}
	return users, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error) {
	set := bson.M{}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}
	if patch.Token != nil {
		set["token"] = *patch.Token
	}
	if len(set) == 0 {
		return s.FindUserByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)
	var u models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoDocument
		}
		return nil, mapWriteError("mongo update user", err)
	}
	return &u, nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete user: %w", err)
	}
	return nil
}

func (s *MongoStore) PushCreatedPin(ctx context.Context, userID, pinID primitive.ObjectID) error {
	return s.updateUser(ctx, userID, bson.M{"$push": bson.M{"createdPins": pinID}})
}

func (s *MongoStore) PullCreatedPin(ctx context.Context, userID, pinID primitive.ObjectID) error {
	return s.updateUser(ctx, userID, bson.M{"$pull": bson.M{"createdPins": pinID}})
}

func (s *MongoStore) AddSavedPin(ctx context.Context, userID, pinID primitive.ObjectID) error {
	return s.updateUser(ctx, userID, bson.M{"$addToSet": bson.M{"savedPins": pinID}})
}

func (s *MongoStore) PullSavedPin(ctx context.Context, userID, pinID primitive.ObjectID) error {
	return s.updateUser(ctx, userID, bson.M{"$pull": bson.M{"savedPins": pinID}})
}

func (s *MongoStore) PullSavedPinFromAll(ctx context.Context, pinID primitive.ObjectID) error {
	_, err := s.users.UpdateMany(ctx,
		bson.M{"savedPins": pinID},
		bson.M{"$pull": bson.M{"savedPins": pinID}},
	)
	if err != nil {
		return fmt.Errorf("mongo pull saved pin: %w", err)
	}
	return nil
}

func (s *MongoStore) updateUser(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	if _, err := s.users.UpdateByID(ctx, id, update); err != nil {
		return fmt.Errorf("mongo update user %s: %w", id.Hex(), err)
	}
	return nil
}

// ── Pins ─────────────────────────────────────────────────────

func (s *MongoStore) CreatePin(ctx context.Context, p *models.Pin) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.SavedBy = models.CloneIDs(p.SavedBy)

	if _, err := s.pins.InsertOne(ctx, p); err != nil {
		return mapWriteError("mongo insert pin", err)
	}
	return nil
}

func (s *MongoStore) FindPinByID(ctx context.Context, id primitive.ObjectID) (*models.Pin, error) {
	var p models.Pin
	if err := s.pins.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapReadError("mongo find pin", err)
	}
	return &p, nil
}

func (s *MongoStore) FindPins(ctx context.Context, filter models.PinFilter) ([]models.Pin, error) {
	q := bson.M{}
	if filter.IDs != nil {
		q["_id"] = bson.M{"$in": filter.IDs}
	}
	if filter.UserID != nil {
		q["userId"] = *filter.UserID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.pins.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find pins: %w", err)
	}
	defer cur.Close(ctx)

	pins := []models.Pin{}
	if err := cur.All(ctx, &pins); err != nil {
		return nil, fmt.Errorf("mongo decode pins: %w", err)
	}
	return pins, nil
}

func (s *MongoStore) UpdatePin(ctx context.Context, id primitive.ObjectID, patch models.PinPatch) (*models.Pin, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.ImageURL != nil {
		set["imageUrl"] = *patch.ImageURL
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Link != nil {
		set["link"] = *patch.Link
	}
	if len(set) == 0 {
		return s.FindPinByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Pin
	err := s.pins.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoDocument
		}
		return nil, mapWriteError("mongo update pin", err)
	}
	return &p, nil
}

func (s *MongoStore) DeletePin(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.pins.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete pin: %w", err)
	}
	return nil
}

func (s *MongoStore) AddSavedBy(ctx context.Context, pinID, userID primitive.ObjectID) error {
	return s.updatePin(ctx, pinID, bson.M{"$addToSet": bson.M{"savedBy": userID}})
}

func (s *MongoStore) PullSavedBy(ctx context.Context, pinID, userID primitive.ObjectID) error {
	return s.updatePin(ctx, pinID, bson.M{"$pull": bson.M{"savedBy": userID}})
}

func (s *MongoStore) PullSavedByFromAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.pins.UpdateMany(ctx,
		bson.M{"savedBy": userID},
		bson.M{"$pull": bson.M{"savedBy": userID}},
	)
	if err != nil {
		return fmt.Errorf("mongo pull saved by: %w", err)
	}
	return nil
}

func (s *MongoStore) updatePin(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	if _, err := s.pins.UpdateByID(ctx, id, update); err != nil {
		return fmt.Errorf("mongo update pin %s: %w", id.Hex(), err)
	}
	return nil
}

// ── Error mapping ────────────────────────────────────────────

func mapReadError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNoDocument
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mapWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return models.NewDuplicateKeyError(duplicateField(err.Error()), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// duplicateField extracts the offending field from an E11000 message,
// e.g. `... index: email_unique dup key: { email: "a@x.com" }`.
func duplicateField(msg string) string {
	for _, field := range []string{"userName", "email", "title"} {
		if strings.Contains(msg, field+"_unique") || strings.Contains(msg, "{ "+field+":") {
			return labelFor(field)
		}
	}
	return "Value"
}

func labelFor(field string) string {
	switch field {
	case "userName":
		return "Username"
	case "email":
		return "Email"
	case "title":
		return "Title"
	}
	return field
}
