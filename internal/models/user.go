package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// EnrolledCourse is the denormalized mirror of an enrollment kept on the
// profile for cheap dashboard reads. The Enrollment collection stays the
// source of truth.
type EnrolledCourse struct {
	CourseID   bson.ObjectID `json:"courseId" bson:"courseId"`
	EnrolledAt time.Time     `json:"enrolledAt" bson:"enrolledAt"`
	Progress   int           `json:"progress" bson:"progress"`
	Completed  bool          `json:"completed" bson:"completed"`
}

// UserProfile shadows the identity provider's user record with the fields
// this service denormalizes. Profiles are upserted from gateway headers on
// first contact.
type UserProfile struct {
	ID              bson.ObjectID    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          string           `json:"userId" bson:"userId"`
	Name            string           `json:"name" bson:"name"`
	Email           string           `json:"email,omitempty" bson:"email,omitempty"`
	Role            string           `json:"role" bson:"role"`
	EnrolledCourses []EnrolledCourse `json:"enrolledCourses,omitempty" bson:"enrolledCourses,omitempty"`
	Metadata        Metadata         `json:"metadata" bson:"metadata"`
}
