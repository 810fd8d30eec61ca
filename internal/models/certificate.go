package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Certificate is the persistent record of a passed course. At most one exists
// per (student, course); regeneration returns the existing record.
type Certificate struct {
	ID          bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Serial      string        `json:"serial" bson:"serial"`
	StudentID   string        `json:"studentId" bson:"studentId"`
	StudentName string        `json:"studentName" bson:"studentName"`
	CourseID    bson.ObjectID `json:"courseId" bson:"courseId"`
	CourseTitle string        `json:"courseTitle" bson:"courseTitle"`
	QuizID      bson.ObjectID `json:"quizId" bson:"quizId"`
	Score       int           `json:"score" bson:"score"`
	IssuedAt    time.Time     `json:"issuedAt" bson:"issuedAt"`
	ArtifactURL string        `json:"certificateUrl" bson:"artifactUrl"`
}

type GenerateCertificateRequest struct {
	CourseID string `json:"courseId"`
	QuizID   string `json:"quizId"`
}
