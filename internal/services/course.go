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

type CourseService struct {
	courses   CourseStore
	users     UserStore
	publisher event.Publisher
}

func NewCourseService(courses CourseStore, users UserStore, publisher event.Publisher) *CourseService {
	return &CourseService{
		courses:   courses,
		users:     users,
		publisher: publisher,
	}
}

// List returns the published catalog with instructor names resolved.
func (s *CourseService) List(ctx context.Context, query models.CourseQuery) ([]*models.CourseSummary, error) {
	if query.Category != "" && !models.ValidCategory(query.Category) {
		return nil, apperr.Validation("Invalid course category")
	}
	if query.Level != "" && !models.ValidLevel(query.Level) {
		return nil, apperr.Validation("Invalid course level")
	}

	courses, err := s.courses.Find(ctx, query)
	if err != nil {
		return nil, apperr.Internal("failed to list courses", err)
	}

	instructorIDs := make([]string, 0, len(courses))
	for _, course := range courses {
		instructorIDs = append(instructorIDs, course.InstructorID)
	}
	names, err := s.users.FindNames(ctx, instructorIDs)
	if err != nil {
		return nil, apperr.Internal("failed to resolve instructors", err)
	}

	summaries := make([]*models.CourseSummary, 0, len(courses))
	for _, course := range courses {
		summaries = append(summaries, &models.CourseSummary{
			Course:         *course,
			InstructorName: names[course.InstructorID],
		})
	}
	return summaries, nil
}

// Get returns one course with instructor and review-author identities
// resolved.
func (s *CourseService) Get(ctx context.Context, courseID string) (*models.CourseDetail, error) {
	id, err := bson.ObjectIDFromHex(courseID)
	if err != nil {
		return nil, apperr.Validation("Invalid course ID format")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, apperr.Internal("failed to get course", err)
	}

	userIDs := []string{course.InstructorID}
	for _, review := range course.Reviews {
		userIDs = append(userIDs, review.UserID)
	}
	names, err := s.users.FindNames(ctx, userIDs)
	if err != nil {
		return nil, apperr.Internal("failed to resolve identities", err)
	}

	detail := &models.CourseDetail{
		Course:         *course,
		InstructorName: names[course.InstructorID],
	}
	if profile, err := s.users.FindByUserID(ctx, course.InstructorID); err == nil {
		detail.InstructorEmail = profile.Email
	}
	for _, review := range course.Reviews {
		detail.ResolvedReviews = append(detail.ResolvedReviews, models.ResolvedReview{
			Review:   review,
			UserName: names[review.UserID],
		})
	}
	return detail, nil
}

// Create adds a course with the instructor bound to the caller, never to a
// client-supplied id.
func (s *CourseService) Create(ctx context.Context, actor Actor, req *models.CreateCourseRequest) (*models.Course, error) {
	if !CanManageCourses(actor.Role) {
		return nil, apperr.Authorization("Only instructors can create courses")
	}
	if req.Title == "" {
		return nil, apperr.Validation("Course title is required")
	}
	if req.Description == "" {
		return nil, apperr.Validation("Course description is required")
	}
	if req.Price == nil {
		return nil, apperr.Validation("Course price is required")
	}
	if *req.Price < 0 {
		return nil, apperr.Validation("Price cannot be negative")
	}
	if !models.ValidCategory(req.Category) {
		return nil, apperr.Validation("Invalid course category")
	}
	level := req.Level
	if level == "" {
		level = models.LevelBeginner
	}
	if !models.ValidLevel(level) {
		return nil, apperr.Validation("Invalid course level")
	}
	if req.Duration <= 0 {
		return nil, apperr.Validation("Course duration is required")
	}

	course := &models.Course{
		Title:            req.Title,
		Description:      req.Description,
		InstructorID:     actor.UserID,
		Price:            *req.Price,
		Category:         req.Category,
		Level:            level,
		Duration:         req.Duration,
		Thumbnail:        req.Thumbnail,
		VideoURL:         req.VideoURL,
		Curriculum:       req.Curriculum,
		Requirements:     req.Requirements,
		LearningOutcomes: req.LearningOutcomes,
		IsPublished:      req.IsPublished,
	}

	created, err := s.courses.New(ctx, course)
	if err != nil {
		return nil, apperr.Internal("failed to create course", err)
	}
	return created, nil
}

// Update mutates a course; only its owner or an admin may do so, and an
// unknown course is reported as missing rather than forbidden.
func (s *CourseService) Update(ctx context.Context, actor Actor, courseID string, req *models.UpdateCourseRequest) (*models.Course, error) {
	id, err := bson.ObjectIDFromHex(courseID)
	if err != nil {
		return nil, apperr.Validation("Invalid course ID format")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, apperr.Internal("failed to get course", err)
	}

	if !IsOwnerOrAdmin(actor.UserID, course.InstructorID, actor.Role) {
		return nil, apperr.Authorization("Not authorized to update this course")
	}

	set := bson.M{}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, apperr.Validation("Course title is required")
		}
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, apperr.Validation("Price cannot be negative")
		}
		set["price"] = *req.Price
	}
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			return nil, apperr.Validation("Invalid course category")
		}
		set["category"] = *req.Category
	}
	if req.Level != nil {
		if !models.ValidLevel(*req.Level) {
			return nil, apperr.Validation("Invalid course level")
		}
		set["level"] = *req.Level
	}
	if req.Duration != nil {
		if *req.Duration <= 0 {
			return nil, apperr.Validation("Course duration must be positive")
		}
		set["duration"] = *req.Duration
	}
	if req.Thumbnail != nil {
		set["thumbnail"] = *req.Thumbnail
	}
	if req.VideoURL != nil {
		set["videoUrl"] = *req.VideoURL
	}
	if req.Curriculum != nil {
		set["curriculum"] = req.Curriculum
	}
	if req.Requirements != nil {
		set["requirements"] = req.Requirements
	}
	if req.LearningOutcomes != nil {
		set["learningOutcomes"] = req.LearningOutcomes
	}
	if req.IsPublished != nil {
		set["isPublished"] = *req.IsPublished
	}
	if len(set) == 0 {
		return course, nil
	}

	updated, err := s.courses.Update(ctx, id, set)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, apperr.Internal("failed to update course", err)
	}
	return updated, nil
}

// Delete soft-deletes; enrollments keep referencing the tombstoned course.
func (s *CourseService) Delete(ctx context.Context, actor Actor, courseID string) error {
	id, err := bson.ObjectIDFromHex(courseID)
	if err != nil {
		return apperr.Validation("Invalid course ID format")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apperr.NotFound("Course not found")
		}
		return apperr.Internal("failed to get course", err)
	}

	if !IsOwnerOrAdmin(actor.UserID, course.InstructorID, actor.Role) {
		return apperr.Authorization("Not authorized to delete this course")
	}

	if err := s.courses.SoftDelete(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			return apperr.NotFound("Course not found")
		}
		return apperr.Internal("failed to delete course", err)
	}
	return nil
}

// AddReview appends one review per user and recomputes the aggregate rating
// in the same storage operation.
func (s *CourseService) AddReview(ctx context.Context, actor Actor, courseID string, req *models.AddReviewRequest) error {
	id, err := bson.ObjectIDFromHex(courseID)
	if err != nil {
		return apperr.Validation("Invalid course ID format")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return apperr.Validation("Rating must be between 1 and 5")
	}

	review := models.Review{
		UserID:    actor.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}

	err = s.courses.AddReview(ctx, id, review)
	if err == repository.ErrDuplicateReview {
		return apperr.Conflict("Course already reviewed")
	}
	if err == mongo.ErrNoDocuments {
		return apperr.NotFound("Course not found")
	}
	if err != nil {
		return apperr.Internal("failed to add review", err)
	}

	if err := s.publisher.PublishCourseEvent(&event.CourseEvent{
		EventType: event.EventTypeCourseReviewAdded,
		CourseID:  courseID,
		UserID:    actor.UserID,
		Rating:    req.Rating,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		log.Printf("Failed to publish review event: %v", err)
	}
	return nil
}
