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

type CertificateService struct {
	certificates CertificateStore
	quizzes      QuizStore
	courses      CourseStore
	enrollments  EnrollmentStore
	renderer     CertificateRenderer
	publisher    event.Publisher
	mailer       email.Mailer
}

func NewCertificateService(
	certificates CertificateStore,
	quizzes QuizStore,
	courses CourseStore,
	enrollments EnrollmentStore,
	renderer CertificateRenderer,
	publisher event.Publisher,
	mailer email.Mailer,
) *CertificateService {
	return &CertificateService{
		certificates: certificates,
		quizzes:      quizzes,
		courses:      courses,
		enrollments:  enrollments,
		renderer:     renderer,
		publisher:    publisher,
		mailer:       mailer,
	}
}

// bestAttempt returns the student's highest score across the quiz's attempt
// log, and whether the student attempted at all.
func bestAttempt(quiz *models.Quiz, studentID string) (int, bool) {
	best, found := 0, false
	for _, attempt := range quiz.Attempts {
		if attempt.StudentID != studentID {
			continue
		}
		if !found || attempt.Score > best {
			best = attempt.Score
		}
		found = true
	}
	return best, found
}

// Generate issues the certificate for a passed course quiz. Issuance is
// idempotent: a repeat request returns the stored certificate unchanged.
func (s *CertificateService) Generate(ctx context.Context, actor Actor, req *models.GenerateCertificateRequest) (*models.Certificate, error) {
	courseID, err := bson.ObjectIDFromHex(req.CourseID)
	if err != nil {
		return nil, apperr.Validation("Invalid course ID format")
	}
	quizID, err := bson.ObjectIDFromHex(req.QuizID)
	if err != nil {
		return nil, apperr.Validation("Invalid quiz ID format")
	}

	if existing, err := s.certificates.FindByStudentAndCourse(ctx, actor.UserID, courseID); err == nil {
		return existing, nil
	} else if err != mongo.ErrNoDocuments {
		return nil, apperr.Internal("failed to check certificate", err)
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, apperr.Internal("failed to get course", err)
	}

	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Quiz not found")
		}
		return nil, apperr.Internal("failed to get quiz", err)
	}
	if quiz.CourseID != courseID {
		return nil, apperr.Validation("Quiz does not belong to this course")
	}

	score, attempted := bestAttempt(quiz, actor.UserID)
	if !attempted {
		return nil, apperr.Conflict("No quiz attempt found for this course")
	}
	if score < quiz.PassingScore {
		return nil, apperr.Conflict(fmt.Sprintf("Passing score not reached: best attempt %d%%, required %d%%", score, quiz.PassingScore))
	}

	now := time.Now()
	certificate := &models.Certificate{
		Serial:      NewSerial(now),
		StudentID:   actor.UserID,
		StudentName: actor.Name,
		CourseID:    courseID,
		CourseTitle: course.Title,
		QuizID:      quizID,
		Score:       score,
		IssuedAt:    now,
	}

	artifactURL, err := s.renderer.Render(certificate)
	if err != nil {
		return nil, apperr.Internal("failed to render certificate", err)
	}
	certificate.ArtifactURL = artifactURL

	created, err := s.certificates.New(ctx, certificate)
	if err == repository.ErrCertificateExists {
		// Lost a race with a concurrent request; the winner's record is
		// the certificate.
		existing, ferr := s.certificates.FindByStudentAndCourse(ctx, actor.UserID, courseID)
		if ferr != nil {
			return nil, apperr.Internal("failed to load certificate", ferr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to store certificate", err)
	}

	if enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, actor.UserID, courseID); err == nil {
		if err := s.enrollments.MarkCertificateIssued(ctx, enrollment.ID, created.ArtifactURL); err != nil {
			log.Printf("Failed to mark certificate on enrollment %s: %v", enrollment.ID.Hex(), err)
		}
	}

	if err := s.publisher.PublishCertificateEvent(&event.CertificateEvent{
		EventType:     event.EventTypeCertificateIssued,
		CertificateID: created.ID.Hex(),
		StudentID:     actor.UserID,
		CourseID:      req.CourseID,
		Score:         score,
		Timestamp:     time.Now().Unix(),
	}); err != nil {
		log.Printf("Failed to publish certificate event: %v", err)
	}

	s.mailer.Send(actor.Name, actor.Email,
		"Your certificate for "+course.Title,
		fmt.Sprintf("<p>Congratulations %s!</p><p>You passed <strong>%s</strong> with a score of %d%%. Your certificate serial is %s.</p>",
			actor.Name, course.Title, score, created.Serial))

	return created, nil
}

// MyCertificates lists the caller's certificates.
func (s *CertificateService) MyCertificates(ctx context.Context, actor Actor) ([]*models.Certificate, error) {
	certificates, err := s.certificates.FindByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Internal("failed to list certificates", err)
	}
	return certificates, nil
}

// Get returns one certificate to its holder or an admin.
func (s *CertificateService) Get(ctx context.Context, actor Actor, certificateID string) (*models.Certificate, error) {
	id, err := bson.ObjectIDFromHex(certificateID)
	if err != nil {
		return nil, apperr.Validation("Invalid certificate ID format")
	}

	certificate, err := s.certificates.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Certificate not found")
		}
		return nil, apperr.Internal("failed to get certificate", err)
	}

	if !IsOwnerOrAdmin(actor.UserID, certificate.StudentID, actor.Role) {
		return nil, apperr.Authorization("Not authorized to view this certificate")
	}
	return certificate, nil
}
