package services

import "course-marketplace-service/internal/models"

// Authorization policy lives here, independent of transport, so both sides
// of the role-dependent enrollment flow consult one definition.

// CanEnrollWithoutPayment reports whether the role bypasses the payment
// step. Instructors and admins enroll directly at the course's listed price;
// students must complete the order-then-verify protocol first.
func CanEnrollWithoutPayment(role string) bool {
	return role == models.RoleInstructor || role == models.RoleAdmin
}

// IsOwnerOrAdmin reports whether the caller owns the resource or is an
// admin.
func IsOwnerOrAdmin(userID, ownerID, role string) bool {
	return userID == ownerID || role == models.RoleAdmin
}

// CanManageCourses reports whether the role may create courses or quizzes.
func CanManageCourses(role string) bool {
	return role == models.RoleInstructor || role == models.RoleAdmin
}
