package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const DefaultPassingScore = 70

const DefaultTimeLimitMinutes = 30

type Question struct {
	Question      string   `json:"question" bson:"question"`
	Options       []string `json:"options" bson:"options"`
	CorrectAnswer int      `json:"correctAnswer" bson:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty" bson:"explanation,omitempty"`
}

type AnswerDetail struct {
	QuestionIndex  int  `json:"questionIndex" bson:"questionIndex"`
	SelectedAnswer int  `json:"selectedAnswer" bson:"selectedAnswer"`
	IsCorrect      bool `json:"isCorrect" bson:"isCorrect"`
}

// Attempt records one scored submission. Attempts are append-only; a stored
// attempt is never mutated.
type Attempt struct {
	ID             bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	StudentID      string         `json:"studentId" bson:"studentId"`
	Score          int            `json:"score" bson:"score"`
	TotalQuestions int            `json:"totalQuestions" bson:"totalQuestions"`
	Answers        []AnswerDetail `json:"answers" bson:"answers"`
	CompletedAt    time.Time      `json:"completedAt" bson:"completedAt"`
}

type Quiz struct {
	ID           bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title        string        `json:"title" bson:"title"`
	CourseID     bson.ObjectID `json:"courseId" bson:"courseId"`
	Description  string        `json:"description,omitempty" bson:"description,omitempty"`
	Questions    []Question    `json:"questions" bson:"questions"`
	TimeLimit    int           `json:"timeLimit" bson:"timeLimit"`       // minutes
	PassingScore int           `json:"passingScore" bson:"passingScore"` // percent
	IsActive     bool          `json:"isActive" bson:"isActive"`
	Attempts     []Attempt     `json:"attempts,omitempty" bson:"attempts,omitempty"`
	Metadata     Metadata      `json:"metadata" bson:"metadata"`
}

// Sanitized returns a copy safe to hand to a taking student: correct answers
// and explanations stripped, prior attempts omitted.
func (q Quiz) Sanitized() Quiz {
	out := q
	out.Attempts = nil
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectAnswer = -1
		question.Explanation = ""
		out.Questions[i] = question
	}
	return out
}

type CreateQuizRequest struct {
	CourseID     string     `json:"courseId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Questions    []Question `json:"questions"`
	TimeLimit    int        `json:"timeLimit"`
	PassingScore int        `json:"passingScore"`
}

type UpdateQuizRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Questions    []Question `json:"questions"`
	TimeLimit    *int       `json:"timeLimit"`
	PassingScore *int       `json:"passingScore"`
	IsActive     *bool      `json:"isActive"`
}

type AnswerSubmission struct {
	SelectedAnswer int `json:"selectedAnswer"`
}

type SubmitQuizRequest struct {
	Answers []AnswerSubmission `json:"answers"`
}

type SubmitQuizResult struct {
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	CorrectAnswers int    `json:"correctAnswers"`
	Passed         bool   `json:"passed"`
	AttemptID      string `json:"attemptId"`
}
