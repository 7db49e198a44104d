package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const (
	usersCollection  = "users"
	emailUniqueIndex = "email_unique"
)

// UserRepository is the MongoDB implementation of ports.UserRepository.
type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), now: time.Now}
}

type mongoUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Email      string             `bson:"email"`
	Password   string             `bson:"password"`
	FullName   string             `bson:"fullName"`
	IsVerified bool               `bson:"isVerified"`
	LastLogin  *time.Time         `bson:"lastLogin"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func (m mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:           m.ID.Hex(),
		Email:        m.Email,
		PasswordHash: m.Password,
		FullName:     m.FullName,
		IsVerified:   m.IsVerified,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.LastLogin != nil {
		t := m.LastLogin.UTC()
		u.LastLogin = &t
	}
	return u
}

// EnsureIndexes creates the unique index on email. It is idempotent.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailUniqueIndex),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *UserRepository) Exists(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) Insert(ctx context.Context, user domain.NewUser) (*domain.User, error) {
	// BSON dates carry millisecond precision.
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := mongoUser{
		Email:     user.Email,
		Password:  user.PasswordHash,
		FullName:  user.FullName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ports.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

// FindByID treats an id that is not a valid ObjectID as absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) UpdateByID(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, nil
	}

	set := bson.M{"updatedAt": r.now().UTC().Truncate(time.Millisecond)}
	if update.FullName != nil {
		set["fullName"] = *update.FullName
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.PasswordHash != nil {
		set["password"] = *update.PasswordHash
	}

	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, false, ports.ErrDuplicateKey
		}
		return nil, false, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), true, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, bool, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), true, nil
}
