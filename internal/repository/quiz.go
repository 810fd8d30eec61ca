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

type QuizRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewQuizRepository(db *mongo.Database) *QuizRepository {
	return &QuizRepository{
		collection: db.Collection("quizzes"),
		mu:         &sync.Mutex{},
	}
}

func (r *QuizRepository) New(ctx context.Context, quiz *models.Quiz) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if quiz.ID.IsZero() {
		quiz.ID = bson.NewObjectID()
	}

	currentTime := time.Now().Unix()
	if quiz.Metadata.CreatedAt == 0 {
		quiz.Metadata.CreatedAt = currentTime
	}
	quiz.Metadata.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to insert quiz: %w", err)
	}
	return quiz, nil
}

func (r *QuizRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// FindActiveByCourse lists a course's active quizzes for takers.
func (r *QuizRepository) FindActiveByCourse(ctx context.Context, courseID bson.ObjectID) ([]*models.Quiz, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"courseId": courseID,
		"isActive": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find quizzes: %w", err)
	}
	defer cursor.Close(ctx)

	var quizzes []*models.Quiz
	if err = cursor.All(ctx, &quizzes); err != nil {
		return nil, fmt.Errorf("failed to decode quizzes: %w", err)
	}

	return quizzes, nil
}

func (r *QuizRepository) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set["metadata.updatedAt"] = time.Now().Unix()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Quiz
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// AppendAttempt pushes a scored attempt. Attempts are append-only; nothing
// here ever rewrites an existing entry.
func (r *QuizRepository) AppendAttempt(ctx context.Context, id bson.ObjectID, attempt models.Attempt) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"attempts": attempt},
			"$set":  bson.M{"metadata.updatedAt": time.Now().Unix()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to append attempt: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *QuizRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "isActive", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "attempts.studentId", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create quiz indexes: %w", err)
	}

	return nil
}
