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

type CourseRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{
		collection: db.Collection("courses"),
		mu:         &sync.Mutex{},
	}
}

func (r *CourseRepository) New(ctx context.Context, course *models.Course) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if course.ID.IsZero() {
		course.ID = bson.NewObjectID()
	}

	currentTime := time.Now().Unix()
	if course.Metadata.CreatedAt == 0 {
		course.Metadata.CreatedAt = currentTime
	}
	course.Metadata.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, course)
	if err != nil {
		return nil, fmt.Errorf("failed to insert course: %w", err)
	}
	return course, nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Course, error) {
	var course models.Course
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&course)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Find lists published courses matching the catalog filters. Search is a
// case-insensitive regex over title and description, mirroring the public
// catalog contract.
func (r *CourseRepository) Find(ctx context.Context, query models.CourseQuery) ([]*models.Course, error) {
	filter := bson.M{"isPublished": true, "deleted": false}

	if query.Category != "" {
		filter["category"] = query.Category
	}
	if query.Level != "" {
		filter["level"] = query.Level
	}
	if query.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": query.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": query.Search, "$options": "i"}},
		}
	}

	sort := bson.D{{Key: "metadata.createdAt", Value: -1}}
	switch query.Sort {
	case "price":
		sort = bson.D{{Key: "price", Value: 1}}
	case "rating":
		sort = bson.D{{Key: "rating", Value: -1}}
	case "enrolled":
		sort = bson.D{{Key: "enrolledStudents", Value: -1}}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to find courses: %w", err)
	}
	defer cursor.Close(ctx)

	var courses []*models.Course
	if err = cursor.All(ctx, &courses); err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}

	return courses, nil
}

func (r *CourseRepository) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set["metadata.updatedAt"] = time.Now().Unix()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Course
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": set},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// SoftDelete unpublishes and tombstones the course. Courses referenced by
// enrollments are never removed from the collection.
func (r *CourseRepository) SoftDelete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": bson.M{
			"deleted":            true,
			"isPublished":        false,
			"metadata.updatedAt": time.Now().Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *CourseRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to remove course: %w", err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncrementEnrolled atomically adjusts the enrolledStudents counter. delta
// may be negative when compensating a failed enrollment.
func (r *CourseRepository) IncrementEnrolled(ctx context.Context, id bson.ObjectID, delta int64) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"enrolledStudents": delta}},
	)
	if err != nil {
		return fmt.Errorf("failed to update enrolled count: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ErrDuplicateReview reports a second review by the same user on a course.
var ErrDuplicateReview = fmt.Errorf("course already reviewed by user")

// AddReview appends a review and recomputes the aggregate rating in a single
// pipeline update, so the review push and the new mean land atomically. The
// filter excludes courses the user already reviewed; a zero match against an
// existing course means a duplicate.
func (r *CourseRepository) AddReview(ctx context.Context, id bson.ObjectID, review models.Review) error {
	filter := bson.M{
		"_id":            id,
		"deleted":        false,
		"reviews.userId": bson.M{"$ne": review.UserID},
	}

	reviewDoc := bson.M{
		"userId":    review.UserID,
		"rating":    review.Rating,
		"comment":   review.Comment,
		"createdAt": bson.NewDateTimeFromTime(review.CreatedAt),
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{reviewDoc},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"rating":             bson.M{"$avg": "$reviews.rating"},
			"metadata.updatedAt": time.Now().Unix(),
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add review: %w", err)
	}
	if result.MatchedCount == 0 {
		// Either the course is gone or this user already reviewed it.
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "deleted": false})
		if err != nil {
			return fmt.Errorf("failed to check course: %w", err)
		}
		if count == 0 {
			return mongo.ErrNoDocuments
		}
		return ErrDuplicateReview
	}
	return nil
}

func (r *CourseRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "isPublished", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "level", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "instructorId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "rating", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "enrolledStudents", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "metadata.createdAt", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create course indexes: %w", err)
	}

	return nil
}
