package repository

import (
	"context"
	"fmt"
	"sync"

	"course-marketplace-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrCertificateExists reports that a certificate already covers the
// (student, course) pair.
var ErrCertificateExists = fmt.Errorf("certificate already issued for student and course")

type CertificateRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewCertificateRepository(db *mongo.Database) *CertificateRepository {
	return &CertificateRepository{
		collection: db.Collection("certificates"),
		mu:         &sync.Mutex{},
	}
}

func (r *CertificateRepository) New(ctx context.Context, certificate *models.Certificate) (*models.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if certificate.ID.IsZero() {
		certificate.ID = bson.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, certificate)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCertificateExists
		}
		return nil, fmt.Errorf("failed to insert certificate: %w", err)
	}
	return certificate, nil
}

func (r *CertificateRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Certificate, error) {
	var certificate models.Certificate
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&certificate)
	if err != nil {
		return nil, err
	}
	return &certificate, nil
}

func (r *CertificateRepository) FindByStudentAndCourse(ctx context.Context, studentID string, courseID bson.ObjectID) (*models.Certificate, error) {
	var certificate models.Certificate
	err := r.collection.FindOne(ctx, bson.M{
		"studentId": studentID,
		"courseId":  courseID,
	}).Decode(&certificate)
	if err != nil {
		return nil, err
	}
	return &certificate, nil
}

func (r *CertificateRepository) FindByStudent(ctx context.Context, studentID string) ([]*models.Certificate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "issuedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find certificates: %w", err)
	}
	defer cursor.Close(ctx)

	var certificates []*models.Certificate
	if err = cursor.All(ctx, &certificates); err != nil {
		return nil, fmt.Errorf("failed to decode certificates: %w", err)
	}

	return certificates, nil
}

func (r *CertificateRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// One certificate per (student, course); regeneration returns
			// the existing record instead of minting a new one.
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "courseId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "serial", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "issuedAt", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create certificate indexes: %w", err)
	}

	return nil
}
