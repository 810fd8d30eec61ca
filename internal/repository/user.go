package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"course-marketplace-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("user_profiles"),
		mu:         &sync.Mutex{},
	}
}

// Upsert refreshes the profile shadow from gateway identity headers. The
// enrolledCourses mirror is left untouched.
func (r *UserRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentTime := time.Now().Unix()
	update := bson.M{
		"$set": bson.M{
			"name":               profile.Name,
			"email":              profile.Email,
			"role":               profile.Role,
			"metadata.updatedAt": currentTime,
		},
		"$setOnInsert": bson.M{
			"metadata.createdAt": currentTime,
		},
	}

	opts := options.UpdateOne().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": profile.UserID}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindNames resolves display names for a set of user ids in one query.
func (r *UserRepository) FindNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []*models.UserProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	for _, p := range profiles {
		names[p.UserID] = p.Name
	}
	return names, nil
}

// PushEnrolledCourse appends the denormalized enrollment mirror.
func (r *UserRepository) PushEnrolledCourse(ctx context.Context, userID string, enrolled models.EnrolledCourse) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$push": bson.M{"enrolledCourses": enrolled},
			"$set":  bson.M{"metadata.updatedAt": time.Now().Unix()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to push enrolled course: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetEnrolledCourseProgress mirrors a progress update onto the profile copy.
func (r *UserRepository) SetEnrolledCourseProgress(ctx context.Context, userID string, courseID bson.ObjectID, progress int, completed bool) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"userId": userID, "enrolledCourses.courseId": courseID},
		bson.M{"$set": bson.M{
			"enrolledCourses.$.progress":  progress,
			"enrolledCourses.$.completed": completed,
			"metadata.updatedAt":          time.Now().Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mirror progress: %w", err)
	}
	return nil
}

func (r *UserRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create profile indexes: %w", err)
	}

	return nil
}
