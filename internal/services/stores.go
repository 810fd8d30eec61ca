package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"course-marketplace-service/internal/models"
)

// Actor is the authenticated caller as seen by the service layer.
type Actor struct {
	UserID string
	Role   string
	Name   string
	Email  string
}

// Storage interfaces are declared here, on the consuming side; the mongo
// repositories satisfy them and tests substitute in-memory fakes.

type CourseStore interface {
	New(ctx context.Context, course *models.Course) (*models.Course, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Course, error)
	Find(ctx context.Context, query models.CourseQuery) ([]*models.Course, error)
	Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Course, error)
	SoftDelete(ctx context.Context, id bson.ObjectID) error
	IncrementEnrolled(ctx context.Context, id bson.ObjectID, delta int64) error
	AddReview(ctx context.Context, id bson.ObjectID, review models.Review) error
}

type EnrollmentStore interface {
	New(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Enrollment, error)
	FindByStudentAndCourse(ctx context.Context, studentID string, courseID bson.ObjectID) (*models.Enrollment, error)
	FindByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	FindCompletedPayments(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	UpdateProgress(ctx context.Context, id bson.ObjectID, progress int, completed bool) (*models.Enrollment, error)
	MarkCertificateIssued(ctx context.Context, id bson.ObjectID, certificateURL string) error
	Delete(ctx context.Context, id bson.ObjectID) error
}

type QuizStore interface {
	New(ctx context.Context, quiz *models.Quiz) (*models.Quiz, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Quiz, error)
	FindActiveByCourse(ctx context.Context, courseID bson.ObjectID) ([]*models.Quiz, error)
	Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Quiz, error)
	AppendAttempt(ctx context.Context, id bson.ObjectID, attempt models.Attempt) error
}

type CertificateStore interface {
	New(ctx context.Context, certificate *models.Certificate) (*models.Certificate, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Certificate, error)
	FindByStudentAndCourse(ctx context.Context, studentID string, courseID bson.ObjectID) (*models.Certificate, error)
	FindByStudent(ctx context.Context, studentID string) ([]*models.Certificate, error)
}

type UserStore interface {
	Upsert(ctx context.Context, profile *models.UserProfile) error
	FindByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
	FindNames(ctx context.Context, userIDs []string) (map[string]string, error)
	PushEnrolledCourse(ctx context.Context, userID string, enrolled models.EnrolledCourse) error
	SetEnrolledCourseProgress(ctx context.Context, userID string, courseID bson.ObjectID, progress int, completed bool) error
}

// AttemptTimer stamps the server-side start of a quiz attempt so the time
// limit is enforced independently of the client's countdown.
type AttemptTimer interface {
	Start(ctx context.Context, quizID, studentID string, ttl time.Duration) (time.Time, error)
	Get(ctx context.Context, quizID, studentID string) (time.Time, error)
	Clear(ctx context.Context, quizID, studentID string) error
}
