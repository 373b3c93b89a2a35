package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "products"

type productDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	Name           string             `bson:"name"`
	Description    string             `bson:"description,omitempty"`
	Price          float64            `bson:"price"`
	Category       string             `bson:"category,omitempty"`
	Stock          int                `bson:"stock"`
	Active         bool               `bson:"active"`
	CreatedAt      time.Time          `bson:"createdAt"`
	Specifications map[string]any     `bson:"specifications,omitempty"`
}

func (d *productDocument) toProduct() *Product {
	return &Product{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Description:    d.Description,
		Price:          d.Price,
		Category:       d.Category,
		Stock:          d.Stock,
		Active:         d.Active,
		CreatedAt:      d.CreatedAt.UTC(),
		Specifications: d.Specifications,
	}
}

// MongoRepository stores products in a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(Collection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "active", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("repository: failed to create product indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, p *Product) error {
	doc := productDocument{
		ID:             primitive.NewObjectID(),
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Category:       p.Category,
		Stock:          p.Stock,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		Specifications: p.Specifications,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}

	p.ID = doc.ID.Hex()
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc productDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to find product %s: %w", id, err)
	}

	return doc.toProduct(), nil
}

func (r *MongoRepository) List(ctx context.Context, f Filter, p pagination.Params) ([]Product, int64, error) {
	query := mongoFilter(f)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(p.Skip())).
		SetLimit(int64(p.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query products: %w", err)
	}

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to decode products: %w", err)
	}

	products := make([]Product, 0, len(docs))
	for i := range docs {
		products = append(products, *docs[i].toProduct())
	}

	return products, total, nil
}

func (r *MongoRepository) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count products: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, p Patch) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Stock != nil {
		set["stock"] = *p.Stock
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}
	if p.Specifications != nil {
		set["specifications"] = p.Specifications
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(false)

	var doc productDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to update product %s: %w", id, err)
	}

	return doc.toProduct(), nil
}

func mongoFilter(f Filter) bson.M {
	query := bson.M{}
	if f.Active != nil {
		query["active"] = *f.Active
	}
	if f.Category != "" {
		query["category"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Category), Options: "i"}
	}
	return query
}
