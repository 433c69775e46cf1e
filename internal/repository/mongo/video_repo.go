package mongo

import (
	"context"
	"errors"
	"time"

	"tubely/backend/internal/domain"
	"tubely/backend/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const videoCollectionName = "videos"

// mongoVideoRepository implements repository.VideoRepository
type mongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new Video repository backed by MongoDB.
func NewMongoVideoRepository(db *mongo.Database) repository.VideoRepository {
	return &mongoVideoRepository{
		collection: db.Collection(videoCollectionName),
	}
}

// Create inserts a new video record, assigning an ID when none is set.
func (r *mongoVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	if video.UserID == "" {
		return errors.New("video requires a userId")
	}
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, video); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves a video by its ID.
func (r *mongoVideoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	var video domain.Video
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// ListByUser returns a user's videos, newest first.
func (r *mongoVideoRepository) ListByUser(ctx context.Context, userID string) ([]domain.Video, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	videos := []domain.Video{}
	if err = cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// Update writes the editable fields of video and bumps UpdatedAt. Nil URL
// fields are left as stored, so a video upload and a thumbnail upload for the
// same record cannot erase each other's URL.
func (r *mongoVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	if video.ID == "" {
		return errors.New("video ID is required for update")
	}
	video.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"title":       video.Title,
		"description": video.Description,
		"updatedAt":   video.UpdatedAt,
	}
	if video.VideoURL != nil {
		set["videoUrl"] = *video.VideoURL
	}
	if video.ThumbnailURL != nil {
		set["thumbnailUrl"] = *video.ThumbnailURL
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": video.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a video record.
func (r *mongoVideoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureVideoIndexes creates necessary indexes for the videos collection.
func EnsureVideoIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Listing a user's videos, newest first
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
