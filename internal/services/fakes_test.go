package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"course-marketplace-service/internal/event"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/repository"
)

type fakeCourseStore struct {
	courses   map[bson.ObjectID]*models.Course
	incErr    error
	reviewErr error
}

func newFakeCourseStore(courses ...*models.Course) *fakeCourseStore {
	s := &fakeCourseStore{courses: make(map[bson.ObjectID]*models.Course)}
	for _, course := range courses {
		if course.ID.IsZero() {
			course.ID = bson.NewObjectID()
		}
		s.courses[course.ID] = course
	}
	return s
}

func (s *fakeCourseStore) New(_ context.Context, course *models.Course) (*models.Course, error) {
	course.ID = bson.NewObjectID()
	s.courses[course.ID] = course
	return course, nil
}

func (s *fakeCourseStore) FindByID(_ context.Context, id bson.ObjectID) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok || course.Deleted {
		return nil, mongo.ErrNoDocuments
	}
	return course, nil
}

func (s *fakeCourseStore) Find(_ context.Context, query models.CourseQuery) ([]*models.Course, error) {
	var out []*models.Course
	for _, course := range s.courses {
		if course.Deleted || !course.IsPublished {
			continue
		}
		if query.Category != "" && course.Category != query.Category {
			continue
		}
		if query.Level != "" && course.Level != query.Level {
			continue
		}
		out = append(out, course)
	}
	return out, nil
}

func (s *fakeCourseStore) Update(_ context.Context, id bson.ObjectID, set bson.M) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if title, ok := set["title"].(string); ok {
		course.Title = title
	}
	if price, ok := set["price"].(float64); ok {
		course.Price = price
	}
	if published, ok := set["isPublished"].(bool); ok {
		course.IsPublished = published
	}
	return course, nil
}

func (s *fakeCourseStore) SoftDelete(_ context.Context, id bson.ObjectID) error {
	course, ok := s.courses[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	course.Deleted = true
	return nil
}

func (s *fakeCourseStore) IncrementEnrolled(_ context.Context, id bson.ObjectID, delta int64) error {
	if s.incErr != nil {
		return s.incErr
	}
	course, ok := s.courses[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	course.EnrolledStudents += delta
	return nil
}

func (s *fakeCourseStore) AddReview(_ context.Context, id bson.ObjectID, review models.Review) error {
	if s.reviewErr != nil {
		return s.reviewErr
	}
	course, ok := s.courses[id]
	if !ok || course.Deleted {
		return mongo.ErrNoDocuments
	}
	for _, existing := range course.Reviews {
		if existing.UserID == review.UserID {
			return repository.ErrDuplicateReview
		}
	}
	course.Reviews = append(course.Reviews, review)
	var sum int
	for _, r := range course.Reviews {
		sum += r.Rating
	}
	course.Rating = float64(sum) / float64(len(course.Reviews))
	return nil
}

type fakeEnrollmentStore struct {
	enrollments map[bson.ObjectID]*models.Enrollment
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{enrollments: make(map[bson.ObjectID]*models.Enrollment)}
}

func (s *fakeEnrollmentStore) New(_ context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	for _, existing := range s.enrollments {
		if existing.StudentID == enrollment.StudentID && existing.CourseID == enrollment.CourseID {
			return nil, repository.ErrAlreadyEnrolled
		}
	}
	enrollment.ID = bson.NewObjectID()
	s.enrollments[enrollment.ID] = enrollment
	return enrollment, nil
}

func (s *fakeEnrollmentStore) FindByID(_ context.Context, id bson.ObjectID) (*models.Enrollment, error) {
	enrollment, ok := s.enrollments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return enrollment, nil
}

func (s *fakeEnrollmentStore) FindByStudentAndCourse(_ context.Context, studentID string, courseID bson.ObjectID) (*models.Enrollment, error) {
	for _, enrollment := range s.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID {
			return enrollment, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *fakeEnrollmentStore) FindByStudent(_ context.Context, studentID string) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, enrollment := range s.enrollments {
		if enrollment.StudentID == studentID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (s *fakeEnrollmentStore) FindCompletedPayments(_ context.Context, studentID string) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, enrollment := range s.enrollments {
		if enrollment.StudentID == studentID && enrollment.PaymentStatus == models.PaymentStatusCompleted && enrollment.PaymentID != "" {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (s *fakeEnrollmentStore) UpdateProgress(_ context.Context, id bson.ObjectID, progress int, completed bool) (*models.Enrollment, error) {
	enrollment, ok := s.enrollments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	enrollment.Progress = progress
	enrollment.Completed = completed
	return enrollment, nil
}

func (s *fakeEnrollmentStore) MarkCertificateIssued(_ context.Context, id bson.ObjectID, certificateURL string) error {
	enrollment, ok := s.enrollments[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	enrollment.CertificateIssued = true
	enrollment.CertificateURL = certificateURL
	return nil
}

func (s *fakeEnrollmentStore) Delete(_ context.Context, id bson.ObjectID) error {
	delete(s.enrollments, id)
	return nil
}

type fakeQuizStore struct {
	quizzes map[bson.ObjectID]*models.Quiz
}

func newFakeQuizStore(quizzes ...*models.Quiz) *fakeQuizStore {
	s := &fakeQuizStore{quizzes: make(map[bson.ObjectID]*models.Quiz)}
	for _, quiz := range quizzes {
		if quiz.ID.IsZero() {
			quiz.ID = bson.NewObjectID()
		}
		s.quizzes[quiz.ID] = quiz
	}
	return s
}

func (s *fakeQuizStore) New(_ context.Context, quiz *models.Quiz) (*models.Quiz, error) {
	quiz.ID = bson.NewObjectID()
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *fakeQuizStore) FindByID(_ context.Context, id bson.ObjectID) (*models.Quiz, error) {
	quiz, ok := s.quizzes[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return quiz, nil
}

func (s *fakeQuizStore) FindActiveByCourse(_ context.Context, courseID bson.ObjectID) ([]*models.Quiz, error) {
	var out []*models.Quiz
	for _, quiz := range s.quizzes {
		if quiz.CourseID == courseID && quiz.IsActive {
			out = append(out, quiz)
		}
	}
	return out, nil
}

func (s *fakeQuizStore) Update(_ context.Context, id bson.ObjectID, set bson.M) (*models.Quiz, error) {
	quiz, ok := s.quizzes[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if title, ok := set["title"].(string); ok {
		quiz.Title = title
	}
	if active, ok := set["isActive"].(bool); ok {
		quiz.IsActive = active
	}
	if passing, ok := set["passingScore"].(int); ok {
		quiz.PassingScore = passing
	}
	return quiz, nil
}

func (s *fakeQuizStore) AppendAttempt(_ context.Context, id bson.ObjectID, attempt models.Attempt) error {
	quiz, ok := s.quizzes[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	quiz.Attempts = append(quiz.Attempts, attempt)
	return nil
}

type fakeCertificateStore struct {
	certificates map[bson.ObjectID]*models.Certificate
}

func newFakeCertificateStore() *fakeCertificateStore {
	return &fakeCertificateStore{certificates: make(map[bson.ObjectID]*models.Certificate)}
}

func (s *fakeCertificateStore) New(_ context.Context, certificate *models.Certificate) (*models.Certificate, error) {
	for _, existing := range s.certificates {
		if existing.StudentID == certificate.StudentID && existing.CourseID == certificate.CourseID {
			return nil, repository.ErrCertificateExists
		}
	}
	certificate.ID = bson.NewObjectID()
	s.certificates[certificate.ID] = certificate
	return certificate, nil
}

func (s *fakeCertificateStore) FindByID(_ context.Context, id bson.ObjectID) (*models.Certificate, error) {
	certificate, ok := s.certificates[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return certificate, nil
}

func (s *fakeCertificateStore) FindByStudentAndCourse(_ context.Context, studentID string, courseID bson.ObjectID) (*models.Certificate, error) {
	for _, certificate := range s.certificates {
		if certificate.StudentID == studentID && certificate.CourseID == courseID {
			return certificate, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *fakeCertificateStore) FindByStudent(_ context.Context, studentID string) ([]*models.Certificate, error) {
	var out []*models.Certificate
	for _, certificate := range s.certificates {
		if certificate.StudentID == studentID {
			out = append(out, certificate)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	profiles map[string]*models.UserProfile
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{profiles: make(map[string]*models.UserProfile)}
}

func (s *fakeUserStore) Upsert(_ context.Context, profile *models.UserProfile) error {
	if existing, ok := s.profiles[profile.UserID]; ok {
		existing.Name = profile.Name
		existing.Email = profile.Email
		existing.Role = profile.Role
		return nil
	}
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *fakeUserStore) FindByUserID(_ context.Context, userID string) (*models.UserProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return profile, nil
}

func (s *fakeUserStore) FindNames(_ context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string)
	for _, id := range userIDs {
		if profile, ok := s.profiles[id]; ok {
			names[id] = profile.Name
		}
	}
	return names, nil
}

func (s *fakeUserStore) PushEnrolledCourse(_ context.Context, userID string, enrolled models.EnrolledCourse) error {
	profile, ok := s.profiles[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	profile.EnrolledCourses = append(profile.EnrolledCourses, enrolled)
	return nil
}

func (s *fakeUserStore) SetEnrolledCourseProgress(_ context.Context, userID string, courseID bson.ObjectID, progress int, completed bool) error {
	profile, ok := s.profiles[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for i := range profile.EnrolledCourses {
		if profile.EnrolledCourses[i].CourseID == courseID {
			profile.EnrolledCourses[i].Progress = progress
			profile.EnrolledCourses[i].Completed = completed
		}
	}
	return nil
}

type fakeTimer struct {
	stamps map[string]time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{stamps: make(map[string]time.Time)}
}

func (t *fakeTimer) Start(_ context.Context, quizID, studentID string, _ time.Duration) (time.Time, error) {
	key := quizID + ":" + studentID
	if stamp, ok := t.stamps[key]; ok {
		return stamp, nil
	}
	now := time.Now()
	t.stamps[key] = now
	return now, nil
}

func (t *fakeTimer) Get(_ context.Context, quizID, studentID string) (time.Time, error) {
	stamp, ok := t.stamps[quizID+":"+studentID]
	if !ok {
		return time.Time{}, repository.ErrAttemptNotStarted
	}
	return stamp, nil
}

func (t *fakeTimer) Clear(_ context.Context, quizID, studentID string) error {
	delete(t.stamps, quizID+":"+studentID)
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishCourseEvent(*event.CourseEvent) error           { return nil }
func (nopPublisher) PublishEnrollmentEvent(*event.EnrollmentEvent) error   { return nil }
func (nopPublisher) PublishPaymentEvent(*event.PaymentEvent) error         { return nil }
func (nopPublisher) PublishQuizEvent(*event.QuizEvent) error               { return nil }
func (nopPublisher) PublishCertificateEvent(*event.CertificateEvent) error { return nil }
func (nopPublisher) Close() error                                          { return nil }

type nopMailer struct{}

func (nopMailer) Send(toName, toEmail, subject, htmlContent string) {}
