package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type CourseCategory string

const (
	CategoryProgramming CourseCategory = "programming"
	CategoryDesign      CourseCategory = "design"
	CategoryBusiness    CourseCategory = "business"
	CategoryMarketing   CourseCategory = "marketing"
	CategoryDataScience CourseCategory = "data-science"
	CategoryOther       CourseCategory = "other"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

func ValidCategory(c CourseCategory) bool {
	switch c {
	case CategoryProgramming, CategoryDesign, CategoryBusiness,
		CategoryMarketing, CategoryDataScience, CategoryOther:
		return true
	}
	return false
}

func ValidLevel(l CourseLevel) bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type Lecture struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Duration    int    `json:"duration" bson:"duration"` // minutes
	VideoURL    string `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
}

type Review struct {
	UserID    string    `json:"userId" bson:"userId"`
	Rating    int       `json:"rating" bson:"rating"` // 1-5
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Course struct {
	ID               bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Title            string         `json:"title" bson:"title"`
	Description      string         `json:"description" bson:"description"`
	InstructorID     string         `json:"instructorId" bson:"instructorId"`
	Price            float64        `json:"price" bson:"price"`
	Category         CourseCategory `json:"category" bson:"category"`
	Level            CourseLevel    `json:"level" bson:"level"`
	Duration         float64        `json:"duration" bson:"duration"` // hours
	Thumbnail        string         `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	VideoURL         string         `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
	Curriculum       []Lecture      `json:"curriculum,omitempty" bson:"curriculum,omitempty"`
	Requirements     []string       `json:"requirements,omitempty" bson:"requirements,omitempty"`
	LearningOutcomes []string       `json:"learningOutcomes,omitempty" bson:"learningOutcomes,omitempty"`
	EnrolledStudents int64          `json:"enrolledStudents" bson:"enrolledStudents"`
	Rating           float64        `json:"rating" bson:"rating"` // mean of review ratings
	Reviews          []Review       `json:"reviews,omitempty" bson:"reviews,omitempty"`
	IsPublished      bool           `json:"isPublished" bson:"isPublished"`
	Deleted          bool           `json:"-" bson:"deleted"`
	Metadata         Metadata       `json:"metadata" bson:"metadata"`
}

type Metadata struct {
	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// CourseQuery carries the catalog list filters.
type CourseQuery struct {
	Category CourseCategory
	Level    CourseLevel
	Search   string
	Sort     string // newest (default) | price | rating | enrolled
}

type CreateCourseRequest struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Price            *float64       `json:"price"`
	Category         CourseCategory `json:"category"`
	Level            CourseLevel    `json:"level"`
	Duration         float64        `json:"duration"`
	Thumbnail        string         `json:"thumbnail"`
	VideoURL         string         `json:"videoUrl"`
	Curriculum       []Lecture      `json:"curriculum"`
	Requirements     []string       `json:"requirements"`
	LearningOutcomes []string       `json:"learningOutcomes"`
	IsPublished      bool           `json:"isPublished"`
}

type UpdateCourseRequest struct {
	Title            *string         `json:"title"`
	Description      *string         `json:"description"`
	Price            *float64        `json:"price"`
	Category         *CourseCategory `json:"category"`
	Level            *CourseLevel    `json:"level"`
	Duration         *float64        `json:"duration"`
	Thumbnail        *string         `json:"thumbnail"`
	VideoURL         *string         `json:"videoUrl"`
	Curriculum       []Lecture       `json:"curriculum"`
	Requirements     []string        `json:"requirements"`
	LearningOutcomes []string        `json:"learningOutcomes"`
	IsPublished      *bool           `json:"isPublished"`
}

type AddReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ResolvedReview is a review with its author's display name attached.
type ResolvedReview struct {
	Review
	UserName string `json:"userName"`
}

// CourseDetail is a course with instructor and review identities resolved.
type CourseDetail struct {
	Course
	InstructorName  string           `json:"instructorName"`
	InstructorEmail string           `json:"instructorEmail,omitempty"`
	ResolvedReviews []ResolvedReview `json:"resolvedReviews,omitempty"`
}

// CourseSummary is the instructor-resolved shape used in catalog listings.
type CourseSummary struct {
	Course
	InstructorName string `json:"instructorName"`
}
