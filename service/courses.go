package service

import (
	"context"
	"time"

	"github.com/kevinaaaquil/skillspark/apperr"
	"github.com/kevinaaaquil/skillspark/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CourseStore interface {
	InsertCourse(ctx context.Context, course models.Course) (primitive.ObjectID, error)
	AllCourses(ctx context.Context) ([]models.Course, error)
}

// CourseService passes courses straight through to the store.
type CourseService struct {
	Store CourseStore
	Now   func() time.Time
}

func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.Store.AllCourses(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to list courses", err)
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

func (s *CourseService) Create(ctx context.Context, course models.Course) (models.Course, error) {
	if course == nil {
		return nil, apperr.Validation("course body must be a JSON object")
	}
	delete(course, "_id")
	if _, ok := course["createdAt"]; !ok {
		now := time.Now().UTC()
		if s.Now != nil {
			now = s.Now()
		}
		course["createdAt"] = now
	}
	id, err := s.Store.InsertCourse(ctx, course)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to save course", err)
	}
	course["_id"] = id
	return course, nil
}
