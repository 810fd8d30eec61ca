package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"course-marketplace-service/internal/apperr"
	"course-marketplace-service/internal/event"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/repository"
)

type QuizService struct {
	quizzes   QuizStore
	courses   CourseStore
	users     UserStore
	timer     AttemptTimer
	publisher event.Publisher
	grace     time.Duration
}

func NewQuizService(
	quizzes QuizStore,
	courses CourseStore,
	users UserStore,
	timer AttemptTimer,
	publisher event.Publisher,
	grace time.Duration,
) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		courses:   courses,
		users:     users,
		timer:     timer,
		publisher: publisher,
		grace:     grace,
	}
}

func validateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return apperr.Validation("Quiz must have at least one question")
	}
	for _, q := range questions {
		if q.Question == "" {
			return apperr.Validation("Question text is required")
		}
		if len(q.Options) < 2 {
			return apperr.Validation("Each question needs at least two options")
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return apperr.Validation("Correct answer index out of range")
		}
	}
	return nil
}

// courseOwnedBy loads the quiz's course and enforces instructor ownership.
func (s *QuizService) courseOwnedBy(ctx context.Context, actor Actor, courseID bson.ObjectID) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, apperr.Internal("failed to get course", err)
	}
	if !IsOwnerOrAdmin(actor.UserID, course.InstructorID, actor.Role) {
		return nil, apperr.Authorization("Not authorized to manage quizzes for this course")
	}
	return course, nil
}

// Create attaches a quiz to a course the caller owns. Passing score and time
// limit fall back to their defaults when omitted.
func (s *QuizService) Create(ctx context.Context, actor Actor, req *models.CreateQuizRequest) (*models.Quiz, error) {
	courseID, err := bson.ObjectIDFromHex(req.CourseID)
	if err != nil {
		return nil, apperr.Validation("Invalid course ID format")
	}
	if req.Title == "" {
		return nil, apperr.Validation("Quiz title is required")
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}
	if req.PassingScore < 0 || req.PassingScore > 100 {
		return nil, apperr.Validation("Passing score must be between 0 and 100")
	}
	if req.TimeLimit < 0 {
		return nil, apperr.Validation("Time limit cannot be negative")
	}

	if _, err := s.courseOwnedBy(ctx, actor, courseID); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		CourseID:     courseID,
		Title:        req.Title,
		Description:  req.Description,
		Questions:    req.Questions,
		PassingScore: req.PassingScore,
		TimeLimit:    req.TimeLimit,
		IsActive:     true,
	}
	if quiz.PassingScore == 0 {
		quiz.PassingScore = models.DefaultPassingScore
	}
	if quiz.TimeLimit == 0 {
		quiz.TimeLimit = models.DefaultTimeLimitMinutes
	}

	created, err := s.quizzes.New(ctx, quiz)
	if err != nil {
		return nil, apperr.Internal("failed to create quiz", err)
	}
	return created, nil
}

// Update mutates a quiz; only the owning instructor or an admin may do so.
func (s *QuizService) Update(ctx context.Context, actor Actor, quizID string, req *models.UpdateQuizRequest) (*models.Quiz, error) {
	id, err := bson.ObjectIDFromHex(quizID)
	if err != nil {
		return nil, apperr.Validation("Invalid quiz ID format")
	}

	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Quiz not found")
		}
		return nil, apperr.Internal("failed to get quiz", err)
	}

	if _, err := s.courseOwnedBy(ctx, actor, quiz.CourseID); err != nil {
		return nil, err
	}

	set := bson.M{}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, apperr.Validation("Quiz title is required")
		}
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Questions != nil {
		if err := validateQuestions(req.Questions); err != nil {
			return nil, err
		}
		set["questions"] = req.Questions
	}
	if req.PassingScore != nil {
		if *req.PassingScore < 0 || *req.PassingScore > 100 {
			return nil, apperr.Validation("Passing score must be between 0 and 100")
		}
		set["passingScore"] = *req.PassingScore
	}
	if req.TimeLimit != nil {
		if *req.TimeLimit <= 0 {
			return nil, apperr.Validation("Time limit must be positive")
		}
		set["timeLimit"] = *req.TimeLimit
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}
	if len(set) == 0 {
		return quiz, nil
	}

	updated, err := s.quizzes.Update(ctx, id, set)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Quiz not found")
		}
		return nil, apperr.Internal("failed to update quiz", err)
	}
	return updated, nil
}

// ListForCourse returns the active quizzes of a course with answer keys and
// explanations stripped.
func (s *QuizService) ListForCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	id, err := bson.ObjectIDFromHex(courseID)
	if err != nil {
		return nil, apperr.Validation("Invalid course ID format")
	}

	quizzes, err := s.quizzes.FindActiveByCourse(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to list quizzes", err)
	}

	sanitized := make([]models.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		sanitized = append(sanitized, quiz.Sanitized())
	}
	return sanitized, nil
}

// GetForTaking returns one quiz stripped for delivery to a student.
func (s *QuizService) GetForTaking(ctx context.Context, quizID string) (*models.Quiz, error) {
	id, err := bson.ObjectIDFromHex(quizID)
	if err != nil {
		return nil, apperr.Validation("Invalid quiz ID format")
	}

	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Quiz not found")
		}
		return nil, apperr.Internal("failed to get quiz", err)
	}
	if !quiz.IsActive {
		return nil, apperr.NotFound("Quiz not found")
	}

	sanitized := quiz.Sanitized()
	return &sanitized, nil
}

// AttemptWindow is what a student gets back from starting an attempt.
type AttemptWindow struct {
	QuizID    string    `json:"quizId"`
	StartedAt time.Time `json:"startedAt"`
	Deadline  time.Time `json:"deadline"`
}

// StartAttempt stamps the server-side start of an attempt. Restarting an
// open attempt returns the original window unchanged.
func (s *QuizService) StartAttempt(ctx context.Context, actor Actor, quizID string) (*AttemptWindow, error) {
	id, err := bson.ObjectIDFromHex(quizID)
	if err != nil {
		return nil, apperr.Validation("Invalid quiz ID format")
	}

	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Quiz not found")
		}
		return nil, apperr.Internal("failed to get quiz", err)
	}
	if !quiz.IsActive {
		return nil, apperr.NotFound("Quiz not found")
	}

	limit := time.Duration(quiz.TimeLimit) * time.Minute
	startedAt, err := s.timer.Start(ctx, quizID, actor.UserID, limit+s.grace)
	if err != nil {
		return nil, apperr.Internal("failed to start attempt", err)
	}

	return &AttemptWindow{
		QuizID:    quizID,
		StartedAt: startedAt,
		Deadline:  startedAt.Add(limit),
	}, nil
}

// Score grades a submission against the answer key. Answers with an index
// outside the question list or outside the question's options count as
// wrong; the percentage rounds half up.
func Score(questions []models.Question, answers []models.AnswerSubmission) (score, correct int, details []models.AnswerDetail) {
	details = make([]models.AnswerDetail, 0, len(answers))
	for i, answer := range answers {
		if i >= len(questions) {
			break
		}
		question := questions[i]
		isCorrect := answer.SelectedAnswer >= 0 &&
			answer.SelectedAnswer < len(question.Options) &&
			answer.SelectedAnswer == question.CorrectAnswer
		if isCorrect {
			correct++
		}
		details = append(details, models.AnswerDetail{
			QuestionIndex:  i,
			SelectedAnswer: answer.SelectedAnswer,
			IsCorrect:      isCorrect,
		})
	}

	if len(questions) > 0 {
		score = (correct*100 + len(questions)/2) / len(questions)
	}
	return score, correct, details
}

// Submit grades an attempt and appends it to the quiz's attempt log. The
// attempt is rejected when the server-side window has lapsed.
func (s *QuizService) Submit(ctx context.Context, actor Actor, quizID string, req *models.SubmitQuizRequest) (*models.SubmitQuizResult, error) {
	id, err := bson.ObjectIDFromHex(quizID)
	if err != nil {
		return nil, apperr.Validation("Invalid quiz ID format")
	}
	if len(req.Answers) == 0 {
		return nil, apperr.Validation("Answers are required")
	}

	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Quiz not found")
		}
		return nil, apperr.Internal("failed to get quiz", err)
	}
	if !quiz.IsActive {
		return nil, apperr.NotFound("Quiz not found")
	}

	startedAt, err := s.timer.Get(ctx, quizID, actor.UserID)
	if err == repository.ErrAttemptNotStarted {
		return nil, apperr.Validation("Quiz attempt was not started or has expired")
	}
	if err != nil {
		return nil, apperr.Internal("failed to check attempt window", err)
	}
	deadline := startedAt.Add(time.Duration(quiz.TimeLimit)*time.Minute + s.grace)
	if time.Now().After(deadline) {
		return nil, apperr.Validation("Quiz time limit exceeded")
	}

	score, correct, details := Score(quiz.Questions, req.Answers)
	passed := score >= quiz.PassingScore

	attempt := models.Attempt{
		ID:             bson.NewObjectID(),
		StudentID:      actor.UserID,
		Score:          score,
		TotalQuestions: len(quiz.Questions),
		Answers:        details,
		CompletedAt:    time.Now(),
	}
	if err := s.quizzes.AppendAttempt(ctx, id, attempt); err != nil {
		return nil, apperr.Internal("failed to record attempt", err)
	}

	if err := s.timer.Clear(ctx, quizID, actor.UserID); err != nil {
		log.Printf("Failed to clear attempt stamp for %s: %v", actor.UserID, err)
	}

	if err := s.publisher.PublishQuizEvent(&event.QuizEvent{
		EventType: event.EventTypeQuizAttempted,
		QuizID:    quizID,
		StudentID: actor.UserID,
		Score:     score,
		Passed:    passed,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		log.Printf("Failed to publish quiz event: %v", err)
	}

	return &models.SubmitQuizResult{
		Score:          score,
		TotalQuestions: len(quiz.Questions),
		CorrectAnswers: correct,
		Passed:         passed,
		AttemptID:      attempt.ID.Hex(),
	}, nil
}

// AttemptResult is one attempt with the student's name resolved.
type AttemptResult struct {
	models.Attempt
	StudentName string `json:"studentName"`
}

// QuizResults is the owner/admin view: the full question bank with answer
// keys plus the attempt log.
type QuizResults struct {
	Quiz     models.Quiz     `json:"quiz"`
	Attempts []AttemptResult `json:"attempts"`
}

// Results returns the quiz with answer keys and the full attempt log to the
// owning instructor or an admin.
func (s *QuizService) Results(ctx context.Context, actor Actor, quizID string) (*QuizResults, error) {
	id, err := bson.ObjectIDFromHex(quizID)
	if err != nil {
		return nil, apperr.Validation("Invalid quiz ID format")
	}

	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Quiz not found")
		}
		return nil, apperr.Internal("failed to get quiz", err)
	}

	if _, err := s.courseOwnedBy(ctx, actor, quiz.CourseID); err != nil {
		return nil, err
	}

	studentIDs := make([]string, 0, len(quiz.Attempts))
	for _, attempt := range quiz.Attempts {
		studentIDs = append(studentIDs, attempt.StudentID)
	}
	names, err := s.users.FindNames(ctx, studentIDs)
	if err != nil {
		return nil, apperr.Internal("failed to resolve students", err)
	}

	attempts := make([]AttemptResult, 0, len(quiz.Attempts))
	for _, attempt := range quiz.Attempts {
		attempts = append(attempts, AttemptResult{
			Attempt:     attempt,
			StudentName: names[attempt.StudentID],
		})
	}

	view := *quiz
	view.Attempts = nil
	return &QuizResults{Quiz: view, Attempts: attempts}, nil
}
