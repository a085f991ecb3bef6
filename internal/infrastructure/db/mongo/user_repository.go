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

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

const collectionUsers = "users"

const fieldSessionToken = "authentication.session_token"

// publicProjection keeps credential material on the server unless a caller
// asks for it explicitly.
var publicProjection = bson.D{{Key: "authentication", Value: 0}}

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID             primitive.ObjectID      `bson:"_id,omitempty"`
	FirstName      string                  `bson:"first_name"`
	LastName       string                  `bson:"last_name"`
	Username       string                  `bson:"username"`
	Email          string                  `bson:"email"`
	Title          string                  `bson:"title,omitempty"`
	Role           string                  `bson:"role"`
	DateCreated    time.Time               `bson:"date_created"`
	DateTerminated *time.Time              `bson:"date_terminated,omitempty"`
	Authentication *authenticationDocument `bson:"authentication,omitempty"`
}

type authenticationDocument struct {
	Password     string `bson:"password"`
	Salt         string `bson:"salt"`
	SessionToken string `bson:"session_token,omitempty"`
}

func toDocument(u *domain.User) userDocument {
	doc := userDocument{
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.Username,
		Email:          u.Email,
		Title:          u.Title,
		Role:           string(u.Role),
		DateCreated:    u.DateCreated.UTC(),
		DateTerminated: u.DateTerminated,
	}
	if u.Credentials != nil {
		doc.Authentication = &authenticationDocument{
			Password:     u.Credentials.PasswordHash,
			Salt:         u.Credentials.Salt,
			SessionToken: u.Credentials.SessionToken,
		}
	}
	return doc
}

func (d userDocument) toDomain() *domain.User {
	u := &domain.User{
		ID:             d.ID.Hex(),
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Username:       d.Username,
		Email:          d.Email,
		Title:          d.Title,
		Role:           domain.Role(d.Role),
		DateCreated:    d.DateCreated.UTC(),
		DateTerminated: d.DateTerminated,
	}
	if d.Authentication != nil {
		u.Credentials = &domain.Credentials{
			PasswordHash: d.Authentication.Password,
			Salt:         d.Authentication.Salt,
			SessionToken: d.Authentication.SessionToken,
		}
	}
	return u
}

// Create inserts a new user. The unique username index turns concurrent
// registrations of the same name into domain.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(user)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain().Public(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, ports.PublicFields)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string, projection ports.Projection) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username}, projection)
}

func (r *UserRepository) FindBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{fieldSessionToken: token}, ports.PublicFields)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, projection ports.Projection) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne()
	if projection != ports.WithCredentials {
		opts.SetProjection(publicProjection)
	}

	var doc userDocument
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(publicProjection).
		SetSort(bson.D{{Key: "username", Value: 1}})

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, nil
}

// Update sets the supplied profile fields and returns the updated record.
func (r *UserRepository) Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	set := bson.M{}
	if update.FirstName != nil {
		set["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		set["last_name"] = *update.LastName
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if len(set) == 0 {
		return nil, domain.ErrEmptyUpdate
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicProjection)

	var doc userDocument
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetSessionToken replaces the user's token in a single update, so the
// previous token stops resolving as soon as the write lands.
func (r *UserRepository) SetSessionToken(ctx context.Context, userID, token string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{fieldSessionToken: token}},
	)
	if err != nil {
		return fmt.Errorf("set session token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ClearSessionToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{fieldSessionToken: token},
		bson.M{"$unset": bson.M{fieldSessionToken: ""}},
	)
	if err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the user collection relies on.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: fieldSessionToken, Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
