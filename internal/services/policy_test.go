package services

import (
	"testing"

	"course-marketplace-service/internal/models"
)

func TestCanEnrollWithoutPayment(t *testing.T) {
	testCases := []struct {
		role   string
		expect bool
	}{
		{models.RoleStudent, false},
		{models.RoleInstructor, true},
		{models.RoleAdmin, true},
		{"", false},
		{"moderator", false},
	}

	for _, tc := range testCases {
		if got := CanEnrollWithoutPayment(tc.role); got != tc.expect {
			t.Errorf("CanEnrollWithoutPayment(%q) = %v, expected %v", tc.role, got, tc.expect)
		}
	}
}

func TestIsOwnerOrAdmin(t *testing.T) {
	testCases := []struct {
		name    string
		userID  string
		ownerID string
		role    string
		expect  bool
	}{
		{"owner", "u1", "u1", models.RoleStudent, true},
		{"admin on foreign resource", "u2", "u1", models.RoleAdmin, true},
		{"stranger", "u2", "u1", models.RoleStudent, false},
		{"instructor on foreign resource", "u2", "u1", models.RoleInstructor, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsOwnerOrAdmin(tc.userID, tc.ownerID, tc.role); got != tc.expect {
				t.Errorf("IsOwnerOrAdmin(%q, %q, %q) = %v, expected %v", tc.userID, tc.ownerID, tc.role, got, tc.expect)
			}
		})
	}
}

func TestCanManageCourses(t *testing.T) {
	testCases := []struct {
		role   string
		expect bool
	}{
		{models.RoleInstructor, true},
		{models.RoleAdmin, true},
		{models.RoleStudent, false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := CanManageCourses(tc.role); got != tc.expect {
			t.Errorf("CanManageCourses(%q) = %v, expected %v", tc.role, got, tc.expect)
		}
	}
}

func TestClampProgress(t *testing.T) {
	testCases := []struct {
		in     int
		expect int
	}{
		{-5, 0},
		{0, 0},
		{45, 45},
		{100, 100},
		{150, 100},
	}

	for _, tc := range testCases {
		if got := ClampProgress(tc.in); got != tc.expect {
			t.Errorf("ClampProgress(%d) = %d, expected %d", tc.in, got, tc.expect)
		}
	}
}
