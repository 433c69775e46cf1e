package mongo

import (
	"context"
	"errors"
	"time"

	"tubely/backend/internal/domain"
	"tubely/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const thumbnailCollectionName = "thumbnails"

// mongoThumbnailRepository keeps thumbnail bytes in a collection keyed by
// content hash. Thumbnails are capped well below the 16 MiB document limit.
type mongoThumbnailRepository struct {
	collection *mongo.Collection
}

// NewMongoThumbnailRepository creates a thumbnail store backed by MongoDB.
func NewMongoThumbnailRepository(db *mongo.Database) repository.ThumbnailRepository {
	return &mongoThumbnailRepository{
		collection: db.Collection(thumbnailCollectionName),
	}
}

// Put stores thumb unless a document with the same ID already exists.
func (r *mongoThumbnailRepository) Put(ctx context.Context, thumb *domain.Thumbnail) error {
	if thumb.ID == "" {
		return errors.New("thumbnail ID is required")
	}
	if thumb.CreatedAt.IsZero() {
		thumb.CreatedAt = time.Now().UTC()
	}

	// Same ID means same bytes, so an existing document is left untouched.
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": thumb.ID},
		bson.M{"$setOnInsert": bson.M{
			"mediaType": thumb.MediaType,
			"data":      thumb.Data,
			"size":      thumb.Size,
			"createdAt": thumb.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Get retrieves a thumbnail by ID.
func (r *mongoThumbnailRepository) Get(ctx context.Context, id string) (*domain.Thumbnail, error) {
	var thumb domain.Thumbnail
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&thumb)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &thumb, nil
}
