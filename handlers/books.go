package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/skillspark/apperr"
	"github.com/kevinaaaquil/skillspark/models"
	"github.com/kevinaaaquil/skillspark/service"
	"github.com/sirupsen/logrus"
)

type BooksHandler struct {
	Books  *service.BookService
	Intake Intake
	Log    logrus.FieldLogger
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.Books.List(r.Context())
	h.writeBooks(w, r, "list books", books, err)
}

func (h *BooksHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	books, err := h.Books.ListPublic(r.Context())
	h.writeBooks(w, r, "list public books", books, err)
}

func (h *BooksHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	// chi routes on RawPath when it is set, leaving the parameter escaped.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(category)
		if err != nil {
			writeError(w, r, h.Log, "list books by category", apperr.Wrap(apperr.InvalidIdentifier, "Invalid category", err))
			return
		}
		category = unescaped
	}
	books, err := h.Books.ListByCategory(r.Context(), category)
	h.writeBooks(w, r, "list books by category", books, err)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.Books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, "get book", err)
		return
	}
	writeData(w, http.StatusOK, book)
}

// Create accepts a multipart book submission: fields, a PDF and an optional cover.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := h.Intake.Parse(w, r)
	if err != nil {
		writeError(w, r, h.Log, "create book", err)
		return
	}
	book, err := h.Books.Ingest(r.Context(), form.Fields, form.PDF, form.Image)
	if err != nil {
		writeError(w, r, h.Log, "create book", err)
		return
	}
	writeData(w, http.StatusCreated, book)
}

func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	form, err := h.Intake.Parse(w, r)
	if err != nil {
		writeError(w, r, h.Log, "update book", err)
		return
	}
	book, err := h.Books.Update(r.Context(), chi.URLParam(r, "id"), form.Fields)
	if err != nil {
		writeError(w, r, h.Log, "update book", err)
		return
	}
	writeData(w, http.StatusOK, book)
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Books.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.Log, "delete book", err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}

// ReplaceImage swaps the cover of an existing book. PATCH /books/{id}/image
func (h *BooksHandler) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	form, err := h.Intake.Parse(w, r)
	if err != nil {
		writeError(w, r, h.Log, "replace image", err)
		return
	}
	book, err := h.Books.ReplaceImage(r.Context(), chi.URLParam(r, "id"), form.Image)
	if err != nil {
		writeError(w, r, h.Log, "replace image", err)
		return
	}
	writeData(w, http.StatusOK, book)
}

// Download streams the stored PDF. GET /books/download/{id}
func (h *BooksHandler) Download(w http.ResponseWriter, r *http.Request) {
	book, body, contentType, err := h.Books.OpenFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, "download book", err)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(service.DownloadName(book))))
	if _, err := io.Copy(w, body); err != nil {
		h.log().WithError(err).WithField("id", book.ID.Hex()).Warn("download interrupted")
	}
}

func (h *BooksHandler) writeBooks(w http.ResponseWriter, r *http.Request, op string, books []models.Book, err error) {
	if err != nil {
		writeError(w, r, h.Log, op, err)
		return
	}
	writeList(w, books, len(books))
}

func (h *BooksHandler) log() logrus.FieldLogger {
	if h.Log == nil {
		return logrus.StandardLogger()
	}
	return h.Log
}
