package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"course-marketplace-service/internal/apperr"
	"course-marketplace-service/internal/email"
	"course-marketplace-service/internal/event"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/repository"
)

// PaymentConfirmation is the proof a verified payment passes to Enroll.
type PaymentConfirmation struct {
	PaymentID string
	Amount    float64
}

type EnrollmentService struct {
	enrollments EnrollmentStore
	courses     CourseStore
	users       UserStore
	publisher   event.Publisher
	mailer      email.Mailer
}

func NewEnrollmentService(
	enrollments EnrollmentStore,
	courses CourseStore,
	users UserStore,
	publisher event.Publisher,
	mailer email.Mailer,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		courses:     courses,
		users:       users,
		publisher:   publisher,
		mailer:      mailer,
	}
}

// Enroll creates the one enrollment a (student, course) pair may have.
// Students reach this only through a verified payment; instructors and
// admins enroll directly at the listed price. The enrollment insert, the
// course counter increment and the profile mirror must land as a unit, so
// each later step compensates the earlier ones on failure.
func (s *EnrollmentService) Enroll(ctx context.Context, actor Actor, courseID string, amount float64, confirmation *PaymentConfirmation) (*models.Enrollment, error) {
	id, err := bson.ObjectIDFromHex(courseID)
	if err != nil {
		return nil, apperr.Validation("Invalid course ID format")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, apperr.Internal("failed to get course", err)
	}

	enrollment := &models.Enrollment{
		StudentID:      actor.UserID,
		CourseID:       id,
		EnrollmentDate: time.Now(),
		PaymentStatus:  models.PaymentStatusCompleted,
	}

	switch {
	case confirmation != nil:
		enrollment.PaymentID = confirmation.PaymentID
		enrollment.Amount = confirmation.Amount
	case CanEnrollWithoutPayment(actor.Role):
		enrollment.Amount = course.Price
	default:
		return nil, apperr.Authorization("Payment required to enroll in this course")
	}
	if amount > 0 && confirmation == nil {
		enrollment.Amount = amount
	}

	// Make sure the profile shadow exists before the mirror push.
	if err := s.users.Upsert(ctx, &models.UserProfile{
		UserID: actor.UserID,
		Name:   actor.Name,
		Email:  actor.Email,
		Role:   actor.Role,
	}); err != nil {
		return nil, apperr.Internal("failed to prepare profile", err)
	}

	created, err := s.enrollments.New(ctx, enrollment)
	if err == repository.ErrAlreadyEnrolled {
		return nil, apperr.Conflict("Already enrolled in this course")
	}
	if err != nil {
		return nil, apperr.Internal("failed to create enrollment", err)
	}

	if err := s.courses.IncrementEnrolled(ctx, id, 1); err != nil {
		s.compensate(ctx, created, false)
		return nil, apperr.Internal("failed to update course counter", err)
	}

	if err := s.users.PushEnrolledCourse(ctx, actor.UserID, models.EnrolledCourse{
		CourseID:   id,
		EnrolledAt: created.EnrollmentDate,
		Progress:   0,
	}); err != nil {
		s.compensate(ctx, created, true)
		return nil, apperr.Internal("failed to mirror enrollment", err)
	}

	if err := s.publisher.PublishEnrollmentEvent(&event.EnrollmentEvent{
		EventType:    event.EventTypeEnrollmentCreated,
		EnrollmentID: created.ID.Hex(),
		StudentID:    actor.UserID,
		CourseID:     courseID,
		Amount:       created.Amount,
		Timestamp:    time.Now().Unix(),
	}); err != nil {
		log.Printf("Failed to publish enrollment event: %v", err)
	}

	s.mailer.Send(actor.Name, actor.Email,
		"Enrollment confirmed: "+course.Title,
		fmt.Sprintf("<p>Hi %s,</p><p>You are now enrolled in <strong>%s</strong>. Happy learning!</p>", actor.Name, course.Title))

	return created, nil
}

func (s *EnrollmentService) compensate(ctx context.Context, enrollment *models.Enrollment, decrementCounter bool) {
	if decrementCounter {
		if err := s.courses.IncrementEnrolled(ctx, enrollment.CourseID, -1); err != nil {
			log.Printf("Compensation failed to decrement course counter: %v", err)
		}
	}
	if err := s.enrollments.Delete(ctx, enrollment.ID); err != nil {
		log.Printf("Compensation failed to remove enrollment %s: %v", enrollment.ID.Hex(), err)
	}
}

// ClampProgress bounds a requested progress value to [0, 100].
func ClampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// UpdateProgress moves the student's own progress and mirrors it onto the
// profile copy.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, actor Actor, enrollmentID string, progress int) (*models.Enrollment, error) {
	id, err := bson.ObjectIDFromHex(enrollmentID)
	if err != nil {
		return nil, apperr.Validation("Invalid enrollment ID format")
	}

	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Enrollment not found")
		}
		return nil, apperr.Internal("failed to get enrollment", err)
	}

	if enrollment.StudentID != actor.UserID {
		return nil, apperr.Authorization("Not authorized to update this enrollment")
	}

	clamped := ClampProgress(progress)
	completed := clamped >= 100

	updated, err := s.enrollments.UpdateProgress(ctx, id, clamped, completed)
	if err != nil {
		return nil, apperr.Internal("failed to update progress", err)
	}

	if err := s.users.SetEnrolledCourseProgress(ctx, actor.UserID, enrollment.CourseID, clamped, completed); err != nil {
		log.Printf("Failed to mirror progress for %s: %v", actor.UserID, err)
	}

	if err := s.publisher.PublishEnrollmentEvent(&event.EnrollmentEvent{
		EventType:    event.EventTypeProgressUpdated,
		EnrollmentID: enrollmentID,
		StudentID:    actor.UserID,
		CourseID:     enrollment.CourseID.Hex(),
		Progress:     clamped,
		Timestamp:    time.Now().Unix(),
	}); err != nil {
		log.Printf("Failed to publish progress event: %v", err)
	}

	return updated, nil
}

// CheckEnrollment answers the client's "Enroll" vs "Continue Learning"
// gate.
func (s *EnrollmentService) CheckEnrollment(ctx context.Context, actor Actor, courseID string) (*models.EnrollmentStatus, error) {
	id, err := bson.ObjectIDFromHex(courseID)
	if err != nil {
		return nil, apperr.Validation("Invalid course ID format")
	}

	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, actor.UserID, id)
	if err == mongo.ErrNoDocuments {
		return &models.EnrollmentStatus{Enrolled: false}, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to check enrollment", err)
	}

	return &models.EnrollmentStatus{Enrolled: true, Enrollment: enrollment}, nil
}

// MyEnrollments lists the caller's enrollments with course details
// attached. Tombstoned courses are returned without detail rather than
// hiding the enrollment.
func (s *EnrollmentService) MyEnrollments(ctx context.Context, actor Actor) ([]*models.EnrollmentWithCourse, error) {
	enrollments, err := s.enrollments.FindByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Internal("failed to list enrollments", err)
	}

	out := make([]*models.EnrollmentWithCourse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		entry := &models.EnrollmentWithCourse{Enrollment: enrollment}
		if course, err := s.courses.FindByID(ctx, enrollment.CourseID); err == nil {
			entry.Course = course
		}
		out = append(out, entry)
	}
	return out, nil
}

// Get returns one enrollment to its student or an admin.
func (s *EnrollmentService) Get(ctx context.Context, actor Actor, enrollmentID string) (*models.EnrollmentWithCourse, error) {
	id, err := bson.ObjectIDFromHex(enrollmentID)
	if err != nil {
		return nil, apperr.Validation("Invalid enrollment ID format")
	}

	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Enrollment not found")
		}
		return nil, apperr.Internal("failed to get enrollment", err)
	}

	if !IsOwnerOrAdmin(actor.UserID, enrollment.StudentID, actor.Role) {
		return nil, apperr.Authorization("Not authorized to view this enrollment")
	}

	entry := &models.EnrollmentWithCourse{Enrollment: enrollment}
	if course, err := s.courses.FindByID(ctx, enrollment.CourseID); err == nil {
		entry.Course = course
	}
	return entry, nil
}

// PaymentHistory lists the caller's completed payments, newest first.
func (s *EnrollmentService) PaymentHistory(ctx context.Context, actor Actor) ([]*models.EnrollmentWithCourse, error) {
	enrollments, err := s.enrollments.FindCompletedPayments(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Internal("failed to list payments", err)
	}

	out := make([]*models.EnrollmentWithCourse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		entry := &models.EnrollmentWithCourse{Enrollment: enrollment}
		if course, err := s.courses.FindByID(ctx, enrollment.CourseID); err == nil {
			entry.Course = course
		}
		out = append(out, entry)
	}
	return out, nil
}
