// Package testutils holds in-memory stand-ins for the content store and media sink.
package testutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"sync"

	"github.com/kevinaaaquil/skillspark/models"
	"github.com/kevinaaaquil/skillspark/service"
	"github.com/kevinaaaquil/skillspark/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PDF is the smallest body the intake accepts as a PDF part in tests.
var PDF = []byte("%PDF-1.4\n1 0 obj<<>>endobj\ntrailer<<>>\n%%EOF")

// PNG returns a small decodable cover image.
func PNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type BookStore struct {
	mu        sync.Mutex
	books     map[primitive.ObjectID]models.Book
	InsertErr error
	Inserts   int
}

func NewBookStore() *BookStore {
	return &BookStore{books: map[primitive.ObjectID]models.Book{}}
}

func clone(b models.Book) models.Book {
	if b.Price != nil {
		p := *b.Price
		b.Price = &p
	}
	if b.Pages != nil {
		n := *b.Pages
		b.Pages = &n
	}
	if b.ImageURL != nil {
		u := *b.ImageURL
		b.ImageURL = &u
	}
	return b
}

func (s *BookStore) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Inserts++
	if s.InsertErr != nil {
		return primitive.NilObjectID, s.InsertErr
	}
	id := primitive.NewObjectID()
	stored := clone(*book)
	stored.ID = id
	s.books[id] = stored
	return id, nil
}

func (s *BookStore) FindBooks(ctx context.Context, filter store.BookFilter) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Book{}
	for _, b := range s.books {
		if filter.Category != nil && b.Category != *filter.Category {
			continue
		}
		if filter.PublicOnly && !b.IsPublic {
			continue
		}
		out = append(out, clone(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *BookStore) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	b = clone(b)
	return &b, nil
}

func (s *BookStore) UpdateBook(ctx context.Context, id primitive.ObjectID, book *models.Book) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	updated := clone(*book)
	updated.ID = id
	updated.CreatedAt = old.CreatedAt
	s.books[id] = updated
	out := clone(updated)
	return &out, nil
}

func (s *BookStore) UpdateBookImage(ctx context.Context, id primitive.ObjectID, imageURL string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	b.ImageURL = &imageURL
	s.books[id] = b
	out := clone(b)
	return &out, nil
}

func (s *BookStore) DeleteBook(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *BookStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.books)
}

type object struct {
	data        []byte
	contentType string
}

// Sink records every call. FailFolders makes uploads into the named folders fail.
type Sink struct {
	mu          sync.Mutex
	objects     map[string]object
	seq         int
	Uploads     []service.UploadRequest
	Deletes     []string
	FailFolders map[string]error
}

const SinkBaseURL = "https://media.test"

func NewSink() *Sink {
	return &Sink{objects: map[string]object{}, FailFolders: map[string]error{}}
}

func (s *Sink) Upload(ctx context.Context, req service.UploadRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Uploads = append(s.Uploads, req)
	if err := s.FailFolders[req.Folder]; err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.seq++
	url := fmt.Sprintf("%s/%s/%s-%d", SinkBaseURL, req.Folder, req.Prefix, s.seq)
	s.objects[url] = object{data: append([]byte(nil), req.Data...), contentType: req.ContentType}
	return url, nil
}

func (s *Sink) Open(ctx context.Context, url string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[url]
	if !ok {
		return nil, "", service.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(o.data)), o.contentType, nil
}

func (s *Sink) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deletes = append(s.Deletes, url)
	delete(s.objects, url)
	return nil
}

// Stored reports how many objects the sink currently holds.
func (s *Sink) Stored() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *Sink) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Uploads)
}

type CourseStore struct {
	mu      sync.Mutex
	courses []models.Course
}

func (s *CourseStore) InsertCourse(ctx context.Context, course models.Course) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := primitive.NewObjectID()
	stored := models.Course{}
	for k, v := range course {
		stored[k] = v
	}
	stored["_id"] = id
	s.courses = append(s.courses, stored)
	return id, nil
}

func (s *CourseStore) AllCourses(ctx context.Context) ([]models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Course{}, s.courses...), nil
}

// BookFields returns a complete, valid field set for creating a book.
func BookFields() map[string]string {
	return map[string]string{
		"title":       "X",
		"description": "Y",
		"category":    "Programming",
		"price":       "9.99",
		"pages":       "120",
		"author":      "A",
		"difficulty":  "Beginner",
		"isPublic":    "true",
	}
}
