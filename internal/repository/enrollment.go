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

// ErrAlreadyEnrolled reports a duplicate (student, course) insert, surfaced
// by the unique compound index rather than an application-level pre-check.
var ErrAlreadyEnrolled = fmt.Errorf("student already enrolled in course")

type EnrollmentRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewEnrollmentRepository(db *mongo.Database) *EnrollmentRepository {
	return &EnrollmentRepository{
		collection: db.Collection("enrollments"),
		mu:         &sync.Mutex{},
	}
}

func (r *EnrollmentRepository) New(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if enrollment.ID.IsZero() {
		enrollment.ID = bson.NewObjectID()
	}
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = time.Now()
	}

	currentTime := time.Now().Unix()
	if enrollment.Metadata.CreatedAt == 0 {
		enrollment.Metadata.CreatedAt = currentTime
	}
	enrollment.Metadata.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, enrollment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return enrollment, nil
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID string, courseID bson.ObjectID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.collection.FindOne(ctx, bson.M{
		"studentId": studentID,
		"courseId":  courseID,
	}).Decode(&enrollment)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "enrollmentDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find enrollments: %w", err)
	}
	defer cursor.Close(ctx)

	var enrollments []*models.Enrollment
	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, fmt.Errorf("failed to decode enrollments: %w", err)
	}

	return enrollments, nil
}

// FindCompletedPayments lists the caller's paid enrollments, newest first.
func (r *EnrollmentRepository) FindCompletedPayments(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "metadata.createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{
		"studentId":     studentID,
		"paymentStatus": models.PaymentStatusCompleted,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	var enrollments []*models.Enrollment
	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}

	return enrollments, nil
}

// UpdateProgress sets the clamped progress and the derived completed flag.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, id bson.ObjectID, progress int, completed bool) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Enrollment
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"progress":           progress,
			"completed":          completed,
			"metadata.updatedAt": time.Now().Unix(),
		}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *EnrollmentRepository) MarkCertificateIssued(ctx context.Context, id bson.ObjectID, certificateURL string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"certificateIssued":  true,
			"certificateUrl":     certificateURL,
			"metadata.updatedAt": time.Now().Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark certificate issued: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an enrollment. Enrollments are never deleted in normal
// operation; this exists to compensate a partially applied enroll.
func (r *EnrollmentRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to remove enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// The uniqueness invariant for (student, course) lives here so
			// concurrent enrolls cannot race past an application check.
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "courseId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "paymentStatus", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "courseId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "enrollmentDate", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create enrollment indexes: %w", err)
	}

	return nil
}
