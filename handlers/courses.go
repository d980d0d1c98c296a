package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kevinaaaquil/skillspark/models"
	"github.com/kevinaaaquil/skillspark/service"
	"github.com/sirupsen/logrus"
)

type CoursesHandler struct {
	Courses  *service.CourseService
	MaxBytes int64
	Log      logrus.FieldLogger
}

func (h *CoursesHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, "list courses", err)
		return
	}
	writeList(w, courses, len(courses))
}

func (h *CoursesHandler) Create(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var course models.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, h.Log, "create course", bodyError(err, "course body must be a JSON object"))
		return
	}
	created, err := h.Courses.Create(r.Context(), course)
	if err != nil {
		writeError(w, r, h.Log, "create course", err)
		return
	}
	writeData(w, http.StatusCreated, created)
}
