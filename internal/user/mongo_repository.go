package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vasiliy-maslov/catalog-api/internal/db"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection holding users.
const Collection = "users"

type addressDocument struct {
	Street     string `bson:"street,omitempty"`
	City       string `bson:"city,omitempty"`
	PostalCode string `bson:"postalCode,omitempty"`
	Country    string `bson:"country"`
}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Age       *int               `bson:"age,omitempty"`
	Phone     string             `bson:"phone,omitempty"`
	Active    bool               `bson:"active"`
	CreatedAt time.Time          `bson:"createdAt"`
	Address   *addressDocument   `bson:"address,omitempty"`
	Metadata  map[string]any     `bson:"metadata,omitempty"`
}

func toAddressDocument(a *Address) *addressDocument {
	if a == nil {
		return nil
	}
	return &addressDocument{Street: a.Street, City: a.City, PostalCode: a.PostalCode, Country: a.Country}
}

func (d *userDocument) toUser() *User {
	u := &User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Age:       d.Age,
		Phone:     d.Phone,
		Active:    d.Active,
		CreatedAt: d.CreatedAt.UTC(),
		Metadata:  d.Metadata,
	}
	if d.Address != nil {
		u.Address = &Address{
			Street:     d.Address.Street,
			City:       d.Address.City,
			PostalCode: d.Address.PostalCode,
			Country:    d.Address.Country,
		}
	}
	return u
}

// MongoRepository stores users in a MongoDB collection. Writes are refused
// until the unique email index exists.
type MongoRepository struct {
	coll    *mongo.Collection
	indexes *db.IndexGuard
}

func NewMongoRepository(database *mongo.Database) *MongoRepository {
	r := &MongoRepository{coll: database.Collection(Collection)}
	r.indexes = db.NewIndexGuard(r.createIndexes)
	return r
}

// EnsureIndexes creates the unique email index and the listing index. Once it
// has succeeded further calls do nothing.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return r.indexes.Ensure(ctx)
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "active", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: failed to create user indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, u *User) error {
	if err := r.EnsureIndexes(ctx); err != nil {
		return err
	}

	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		Phone:     u.Phone,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		Address:   toAddressDocument(u.Address),
		Metadata:  u.Metadata,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert user: %w", err)
	}

	u.ID = doc.ID.Hex()
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to find user %s: %w", id, err)
	}

	return doc.toUser(), nil
}

func (r *MongoRepository) List(ctx context.Context, f Filter, p pagination.Params) ([]User, int64, error) {
	query := mongoFilter(f)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(p.Skip())).
		SetLimit(int64(p.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to decode users: %w", err)
	}

	users := make([]User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toUser())
	}

	return users, total, nil
}

func (r *MongoRepository) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count users: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, p Patch) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}
	if p.Address != nil {
		set["address"] = toAddressDocument(p.Address)
	}
	if p.Metadata != nil {
		set["metadata"] = p.Metadata
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	if err := r.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(false)

	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("repository: failed to update user %s: %w", id, err)
	}

	return doc.toUser(), nil
}

func mongoFilter(f Filter) bson.M {
	query := bson.M{}
	if f.Active != nil {
		query["active"] = *f.Active
	}
	if !f.CreatedSince.IsZero() {
		query["createdAt"] = bson.M{"$gte": f.CreatedSince}
	}
	return query
}
