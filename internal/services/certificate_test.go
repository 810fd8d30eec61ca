package services

import (
	"context"
	"strings"
	"testing"

	"course-marketplace-service/internal/apperr"
	"course-marketplace-service/internal/models"
)

func newCertificateFixture(attempts ...models.Attempt) (*CertificateService, *models.Course, *models.Quiz, *fakeEnrollmentStore) {
	course := &models.Course{Title: "Go Basics", InstructorID: "inst-1", IsPublished: true}
	courses := newFakeCourseStore(course)

	quiz := &models.Quiz{
		CourseID:     course.ID,
		Title:        "Final Quiz",
		Questions:    fourQuestions(),
		PassingScore: 70,
		TimeLimit:    30,
		IsActive:     true,
		Attempts:     attempts,
	}
	quizzes := newFakeQuizStore(quiz)
	enrollments := newFakeEnrollmentStore()

	service := NewCertificateService(
		newFakeCertificateStore(), quizzes, courses, enrollments,
		NewHTMLRenderer(), nopPublisher{}, nopMailer{},
	)
	return service, course, quiz, enrollments
}

func TestGenerateCertificate(t *testing.T) {
	service, course, quiz, enrollments := newCertificateFixture(
		models.Attempt{StudentID: "student-1", Score: 85, TotalQuestions: 4},
	)
	actor := Actor{UserID: "student-1", Role: models.RoleStudent, Name: "Asha"}
	ctx := context.Background()

	enrollment, _ := enrollments.New(ctx, &models.Enrollment{
		StudentID:     actor.UserID,
		CourseID:      course.ID,
		PaymentStatus: models.PaymentStatusCompleted,
	})

	certificate, err := service.Generate(ctx, actor, &models.GenerateCertificateRequest{
		CourseID: course.ID.Hex(),
		QuizID:   quiz.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if certificate.Score != 85 {
		t.Errorf("Expected score 85, got %d", certificate.Score)
	}
	if certificate.StudentName != "Asha" {
		t.Errorf("Expected student name Asha, got %s", certificate.StudentName)
	}
	if certificate.CourseTitle != course.Title {
		t.Errorf("Expected course title %q, got %q", course.Title, certificate.CourseTitle)
	}
	if certificate.Serial == "" {
		t.Error("Expected a serial")
	}
	if !strings.HasPrefix(certificate.ArtifactURL, "data:text/html;base64,") {
		t.Errorf("Expected rendered artifact URL, got %q", certificate.ArtifactURL)
	}

	stored, err := enrollments.FindByID(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("Enrollment lookup failed: %v", err)
	}
	if !stored.CertificateIssued {
		t.Error("Expected enrollment marked with issued certificate")
	}
	if stored.CertificateURL != certificate.ArtifactURL {
		t.Error("Expected certificate URL mirrored onto enrollment")
	}
}

func TestGenerateCertificateEligibility(t *testing.T) {
	testCases := []struct {
		name      string
		score     int
		expectErr bool
	}{
		{"below passing score", 65, true},
		{"exactly passing score", 70, false},
		{"above passing score", 95, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, course, quiz, _ := newCertificateFixture(
				models.Attempt{StudentID: "student-1", Score: tc.score, TotalQuestions: 4},
			)
			actor := Actor{UserID: "student-1", Role: models.RoleStudent, Name: "Asha"}

			_, err := service.Generate(context.Background(), actor, &models.GenerateCertificateRequest{
				CourseID: course.ID.Hex(),
				QuizID:   quiz.ID.Hex(),
			})

			if tc.expectErr {
				if apperr.KindOf(err) != apperr.KindConflict {
					t.Errorf("Expected conflict for score %d, got %v", tc.score, err)
				}
			} else if err != nil {
				t.Errorf("Expected certificate for score %d, got %v", tc.score, err)
			}
		})
	}
}

func TestGenerateCertificateUsesBestAttempt(t *testing.T) {
	service, course, quiz, _ := newCertificateFixture(
		models.Attempt{StudentID: "student-1", Score: 50, TotalQuestions: 4},
		models.Attempt{StudentID: "student-1", Score: 80, TotalQuestions: 4},
		models.Attempt{StudentID: "student-2", Score: 100, TotalQuestions: 4},
	)
	actor := Actor{UserID: "student-1", Role: models.RoleStudent, Name: "Asha"}

	certificate, err := service.Generate(context.Background(), actor, &models.GenerateCertificateRequest{
		CourseID: course.ID.Hex(),
		QuizID:   quiz.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if certificate.Score != 80 {
		t.Errorf("Expected best own score 80, got %d", certificate.Score)
	}
}

func TestGenerateCertificateIdempotent(t *testing.T) {
	service, course, quiz, _ := newCertificateFixture(
		models.Attempt{StudentID: "student-1", Score: 90, TotalQuestions: 4},
	)
	actor := Actor{UserID: "student-1", Role: models.RoleStudent, Name: "Asha"}
	ctx := context.Background()
	req := &models.GenerateCertificateRequest{CourseID: course.ID.Hex(), QuizID: quiz.ID.Hex()}

	first, err := service.Generate(ctx, actor, req)
	if err != nil {
		t.Fatalf("First generate failed: %v", err)
	}
	second, err := service.Generate(ctx, actor, req)
	if err != nil {
		t.Fatalf("Second generate failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected same certificate, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if first.Serial != second.Serial {
		t.Errorf("Expected same serial, got %s and %s", first.Serial, second.Serial)
	}

	mine, err := service.MyCertificates(ctx, actor)
	if err != nil {
		t.Fatalf("MyCertificates failed: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("Expected exactly 1 certificate, got %d", len(mine))
	}
}

func TestGenerateCertificateNoAttempt(t *testing.T) {
	service, course, quiz, _ := newCertificateFixture()
	actor := Actor{UserID: "student-1", Role: models.RoleStudent}

	_, err := service.Generate(context.Background(), actor, &models.GenerateCertificateRequest{
		CourseID: course.ID.Hex(),
		QuizID:   quiz.ID.Hex(),
	})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("Expected conflict without any attempt, got %v", err)
	}
}

func TestGenerateCertificateQuizCourseMismatch(t *testing.T) {
	service, course, _, _ := newCertificateFixture()

	otherCourse := &models.Course{Title: "Other", InstructorID: "inst-2", IsPublished: true}
	otherQuiz := &models.Quiz{
		CourseID:     otherCourse.ID,
		Title:        "Other Quiz",
		Questions:    fourQuestions(),
		PassingScore: 70,
		IsActive:     true,
	}
	// Register the foreign quiz in the same store the service reads from.
	quizzes := service.quizzes.(*fakeQuizStore)
	stored, _ := quizzes.New(context.Background(), otherQuiz)

	actor := Actor{UserID: "student-1", Role: models.RoleStudent}
	_, err := service.Generate(context.Background(), actor, &models.GenerateCertificateRequest{
		CourseID: course.ID.Hex(),
		QuizID:   stored.ID.Hex(),
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error for quiz from another course, got %v", err)
	}
}

func TestDownloadCertificateAuthorization(t *testing.T) {
	service, course, quiz, _ := newCertificateFixture(
		models.Attempt{StudentID: "student-1", Score: 90, TotalQuestions: 4},
	)
	owner := Actor{UserID: "student-1", Role: models.RoleStudent, Name: "Asha"}
	ctx := context.Background()

	certificate, err := service.Generate(ctx, owner, &models.GenerateCertificateRequest{
		CourseID: course.ID.Hex(),
		QuizID:   quiz.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := service.Get(ctx, owner, certificate.ID.Hex()); err != nil {
		t.Errorf("Expected owner access, got %v", err)
	}
	if _, err := service.Get(ctx, Actor{UserID: "admin-1", Role: models.RoleAdmin}, certificate.ID.Hex()); err != nil {
		t.Errorf("Expected admin access, got %v", err)
	}
	_, err = service.Get(ctx, Actor{UserID: "student-2", Role: models.RoleStudent}, certificate.ID.Hex())
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("Expected authorization error for stranger, got %v", err)
	}
}
