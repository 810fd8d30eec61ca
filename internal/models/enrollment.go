package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Enrollment struct {
	ID                bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	StudentID         string        `json:"studentId" bson:"studentId"`
	CourseID          bson.ObjectID `json:"courseId" bson:"courseId"`
	EnrollmentDate    time.Time     `json:"enrollmentDate" bson:"enrollmentDate"`
	Progress          int           `json:"progress" bson:"progress"` // 0-100
	Completed         bool          `json:"completed" bson:"completed"`
	CertificateIssued bool          `json:"certificateIssued" bson:"certificateIssued"`
	CertificateURL    string        `json:"certificateUrl,omitempty" bson:"certificateUrl,omitempty"`
	PaymentStatus     PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	PaymentID         string        `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	Amount            float64       `json:"amount" bson:"amount"`
	Metadata          Metadata      `json:"metadata" bson:"metadata"`
}

type EnrollRequest struct {
	CourseID string  `json:"courseId"`
	Amount   float64 `json:"amount"`
}

type UpdateProgressRequest struct {
	Progress int `json:"progress"`
}

// EnrollmentStatus answers the "Enroll" vs "Continue Learning" client gate.
type EnrollmentStatus struct {
	Enrolled   bool        `json:"enrolled"`
	Enrollment *Enrollment `json:"enrollment,omitempty"`
}

// EnrollmentWithCourse pairs an enrollment with its course for list views.
type EnrollmentWithCourse struct {
	Enrollment *Enrollment `json:"enrollment"`
	Course     *Course     `json:"course,omitempty"`
}
