package event

const (
	EventTypeEnrollmentCreated = "enrollment.created"
	EventTypeProgressUpdated   = "enrollment.progress_updated"
	EventTypePaymentVerified   = "payment.verified"
	EventTypePaymentFailed     = "payment.failed"
	EventTypeQuizAttempted     = "quiz.attempt.completed"
	EventTypeCertificateIssued = "certificate.issued"
	EventTypeCourseReviewAdded = "course.review_added"
)

type CourseEvent struct {
	EventType string `json:"eventType"`
	CourseID  string `json:"courseId"`
	UserID    string `json:"userId,omitempty"`
	Rating    int    `json:"rating,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type EnrollmentEvent struct {
	EventType    string  `json:"eventType"`
	EnrollmentID string  `json:"enrollmentId"`
	StudentID    string  `json:"studentId"`
	CourseID     string  `json:"courseId"`
	Progress     int     `json:"progress"`
	Amount       float64 `json:"amount,omitempty"`
	Timestamp    int64   `json:"timestamp"`
}

type PaymentEvent struct {
	EventType string  `json:"eventType"`
	OrderID   string  `json:"orderId"`
	PaymentID string  `json:"paymentId,omitempty"`
	StudentID string  `json:"studentId"`
	CourseID  string  `json:"courseId"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type QuizEvent struct {
	EventType string `json:"eventType"`
	QuizID    string `json:"quizId"`
	StudentID string `json:"studentId"`
	Score     int    `json:"score"`
	Passed    bool   `json:"passed"`
	Timestamp int64  `json:"timestamp"`
}

type CertificateEvent struct {
	EventType     string `json:"eventType"`
	CertificateID string `json:"certificateId"`
	StudentID     string `json:"studentId"`
	CourseID      string `json:"courseId"`
	Score         int    `json:"score"`
	Timestamp     int64  `json:"timestamp"`
}
