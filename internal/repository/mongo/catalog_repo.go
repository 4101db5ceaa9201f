// internal/repository/mongo/catalog_repo.go
package mongo

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	catalogCollectionName  = "catalog_items"
	counterCollectionName  = "counters"
	catalogItemSequenceKey = "catalog_items"
)

// mongoCatalogRepository implements repository.CatalogRepository.
// Item IDs are numeric because plan templates reference items as
// "<itemId>_<block>_<order>"; they come from a sequence in the counters collection.
type mongoCatalogRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoCatalogRepository creates a new catalogue repository backed by MongoDB.
func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		collection: db.Collection(catalogCollectionName),
		counters:   db.Collection(counterCollectionName),
	}
}

func (r *mongoCatalogRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": catalogItemSequenceKey},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

// Create inserts a new catalogue item under the next sequence number.
func (r *mongoCatalogRepository) Create(ctx context.Context, item *domain.CatalogItem) (int64, error) {
	if item.Name == "" || item.CoachID == primitive.NilObjectID {
		return 0, errors.New("catalog item name and coach ID are required")
	}
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}
	item.ID = id
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID retrieves a catalogue item by its numeric ID.
func (r *mongoCatalogRepository) GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetByIDs retrieves the catalogue items among ids that exist.
func (r *mongoCatalogRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

// GetByCoachID retrieves a coach's catalogue, oldest first.
func (r *mongoCatalogRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.CatalogItem, error) {
	return r.find(ctx, bson.M{"coachId": coachID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *mongoCatalogRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.CatalogItem, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []domain.CatalogItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// EnsureCatalogIndexes creates necessary indexes for the catalogue.
func EnsureCatalogIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
