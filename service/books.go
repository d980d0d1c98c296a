package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevinaaaquil/skillspark/apperr"
	"github.com/kevinaaaquil/skillspark/config"
	"github.com/kevinaaaquil/skillspark/models"
	"github.com/kevinaaaquil/skillspark/store"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BookFolder  = "skillspark_books"
	ImageFolder = "skillspark_images"

	contentTypePDF = "application/pdf"
)

// Part is one accepted file of a multipart request, held in memory until the
// pipeline decides to upload it.
type Part struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BookStore is the slice of the content store the catalog needs.
type BookStore interface {
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	FindBooks(ctx context.Context, filter store.BookFilter) ([]models.Book, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	UpdateBook(ctx context.Context, id primitive.ObjectID, book *models.Book) (*models.Book, error)
	UpdateBookImage(ctx context.Context, id primitive.ObjectID, imageURL string) (*models.Book, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) error
}

type BookService struct {
	Store         BookStore
	Media         MediaSink
	Log           logrus.FieldLogger
	ImagePolicy   config.ImagePolicy
	ImageMaxEdge  int
	UploadTimeout time.Duration
	Now           func() time.Time
}

// Ingest creates a book from coerced fields, a required PDF and an optional cover.
// The PDF is uploaded before anything is written, so no document ever points at a
// file that failed to upload.
func (s *BookService) Ingest(ctx context.Context, fields map[string]string, pdf, image *Part) (*models.Book, error) {
	book := models.NewBook()
	problems := ApplyFields(book, fields)
	if pdf == nil {
		return nil, apperr.New(apperr.MissingRequiredFile, "PDF file is required")
	}
	if err := validateBook(book, problems, "FileURL", "FileFormat"); err != nil {
		return nil, err
	}
	if image != nil {
		if err := CheckImage(image.Data); err != nil {
			return nil, err
		}
	}

	log := s.log().WithField("op", "ingest")
	pdfURL, err := s.upload(ctx, UploadRequest{
		Folder:      BookFolder,
		Prefix:      "book",
		Filename:    pdf.Filename,
		ContentType: contentTypePDF,
		Data:        pdf.Data,
		Raw:         true,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.UploadFailed, "Failed to upload PDF file", err)
	}
	book.FileURL = pdfURL
	book.FileFormat = models.FileFormatPDF
	book.ImageURL = nil
	uploaded := []string{pdfURL}

	if image != nil {
		imageURL, err := s.uploadImage(ctx, image)
		switch {
		case err == nil:
			book.ImageURL = &imageURL
			uploaded = append(uploaded, imageURL)
		case s.ImagePolicy == config.ImagePolicyIgnore:
			log.WithError(err).Warn("cover upload failed, creating book without image")
		default:
			s.discard(ctx, uploaded...)
			return nil, apperr.Wrap(apperr.UploadFailed, "Failed to upload cover image", err)
		}
	}

	if err := validateBook(book, nil); err != nil {
		s.discard(ctx, uploaded...)
		return nil, err
	}
	book.CreatedAt = s.now()
	id, err := s.Store.InsertBook(ctx, book)
	if err != nil {
		s.discard(ctx, uploaded...)
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to save book", err)
	}
	book.ID = id
	log.WithField("id", id.Hex()).Info("book created")
	return book, nil
}

func (s *BookService) List(ctx context.Context) ([]models.Book, error) {
	return s.find(ctx, store.BookFilter{})
}

func (s *BookService) ListByCategory(ctx context.Context, category string) ([]models.Book, error) {
	return s.find(ctx, store.BookFilter{Category: &category})
}

func (s *BookService) ListPublic(ctx context.Context) ([]models.Book, error) {
	return s.find(ctx, store.BookFilter{PublicOnly: true})
}

func (s *BookService) Get(ctx context.Context, id string) (*models.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	book, err := s.Store.BookByID(ctx, oid)
	if err != nil {
		return nil, storeError(err)
	}
	return book, nil
}

// Update applies a partial set of fields and re-validates the whole document.
func (s *BookService) Update(ctx context.Context, id string, fields map[string]string) (*models.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	problems := ApplyFields(book, fields)
	if err := validateBook(book, problems); err != nil {
		return nil, err
	}
	updated, err := s.Store.UpdateBook(ctx, book.ID, book)
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

// Delete removes the document only; its stored files stay in the media sink.
func (s *BookService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteBook(ctx, oid); err != nil {
		return storeError(err)
	}
	return nil
}

// ReplaceImage uploads a new cover for an existing book.
func (s *BookService) ReplaceImage(ctx context.Context, id string, image *Part) (*models.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, apperr.New(apperr.MissingRequiredFile, "Image file is required")
	}
	if err := CheckImage(image.Data); err != nil {
		return nil, err
	}
	if _, err := s.Store.BookByID(ctx, oid); err != nil {
		return nil, storeError(err)
	}
	imageURL, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, apperr.Wrap(apperr.UploadFailed, "Failed to upload cover image", err)
	}
	book, err := s.Store.UpdateBookImage(ctx, oid, imageURL)
	if err != nil {
		s.discard(ctx, imageURL)
		return nil, storeError(err)
	}
	return book, nil
}

// OpenFile opens the stored PDF of a book. Caller must close the reader.
func (s *BookService) OpenFile(ctx context.Context, id string) (*models.Book, io.ReadCloser, string, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, "", err
	}
	body, contentType, err := s.Media.Open(ctx, book.FileURL)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, nil, "", apperr.New(apperr.NotFound, "File not found")
	}
	if err != nil {
		return nil, nil, "", apperr.Wrap(apperr.StoreUnavailable, "failed to open file", err)
	}
	if contentType == "" {
		contentType = contentTypePDF
	}
	return book, body, contentType, nil
}

// DownloadName is the filename offered to clients downloading the book's file.
func DownloadName(book *models.Book) string {
	name := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r == '/' || r < 0x20 {
			return '_'
		}
		return r
	}, strings.TrimSpace(book.Title))
	if name == "" {
		name = book.ID.Hex()
	}
	ext := strings.ToLower(filepath.Ext(book.FileURL))
	if ext == "" {
		ext = "." + strings.ToLower(book.FileFormat)
	}
	return name + ext
}

func (s *BookService) find(ctx context.Context, filter store.BookFilter) ([]models.Book, error) {
	books, err := s.Store.FindBooks(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to list books", err)
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

func (s *BookService) uploadImage(ctx context.Context, image *Part) (string, error) {
	return s.upload(ctx, UploadRequest{
		Folder:      ImageFolder,
		Prefix:      "img",
		Filename:    image.Filename,
		ContentType: image.ContentType,
		Data:        image.Data,
		MaxEdge:     s.maxEdge(),
	})
}

func (s *BookService) upload(ctx context.Context, req UploadRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	url, err := s.Media.Upload(ctx, req)
	if err != nil {
		s.log().WithError(err).WithField("folder", req.Folder).Error("media upload failed")
		return "", err
	}
	return url, nil
}

// discard deletes objects that ended up referenced by no document. It outlives a
// cancelled request so cleanup still runs after a client disconnect.
func (s *BookService) discard(ctx context.Context, urls ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout())
	defer cancel()
	for _, u := range urls {
		if err := s.Media.Delete(ctx, u); err != nil {
			s.log().WithError(err).WithField("url", u).Warn("failed to remove orphaned upload")
		}
	}
}

func (s *BookService) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

func (s *BookService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *BookService) timeout() time.Duration {
	if s.UploadTimeout > 0 {
		return s.UploadTimeout
	}
	return time.Minute
}

func (s *BookService) maxEdge() int {
	if s.ImageMaxEdge > 0 {
		return s.ImageMaxEdge
	}
	return 500
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Wrap(apperr.InvalidIdentifier, "Invalid book ID format", err)
	}
	return oid, nil
}

func storeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.NotFound, "Book not found")
	}
	return apperr.Wrap(apperr.StoreUnavailable, "content store failure", err)
}
