package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/kevinaaaquil/skillspark/apperr"
	"github.com/kevinaaaquil/skillspark/service"
)

const (
	defaultMaxUpload = 25 << 20
	defaultMaxFile   = 10 << 20
)

// pdfFields are the part names a book file may arrive under.
var pdfFields = []string{"pdf", "bookContent"}

// Intake turns an incoming request into text fields and in-memory file parts.
// Nothing is uploaded here.
type Intake struct {
	MaxUploadBytes int64
	MaxFileBytes   int64
}

// BookForm is what a create, update or image request carried.
type BookForm struct {
	Fields map[string]string
	PDF    *service.Part
	Image  *service.Part
}

func (in Intake) Parse(w http.ResponseWriter, r *http.Request) (*BookForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, in.maxUpload())
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return in.parseMultipart(r)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err, "request body is not a valid form")
		}
		return &BookForm{Fields: firstValues(r.PostForm)}, nil
	default:
		fields, err := decodeFields(r.Body)
		if err != nil {
			return nil, err
		}
		return &BookForm{Fields: fields}, nil
	}
}

func (in Intake) parseMultipart(r *http.Request) (*BookForm, error) {
	if err := r.ParseMultipartForm(in.maxUpload()); err != nil {
		return nil, bodyError(err, "request body is not a valid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	form := &BookForm{Fields: map[string]string{}}
	if sidecar := r.MultipartForm.Value["bookData"]; len(sidecar) > 0 && strings.TrimSpace(sidecar[0]) != "" {
		fields, err := decodeFields(strings.NewReader(sidecar[0]))
		if err != nil {
			return nil, err
		}
		form.Fields = fields
	}
	for key, values := range r.MultipartForm.Value {
		if key == "bookData" || len(values) == 0 {
			continue
		}
		form.Fields[key] = values[0]
	}

	for _, name := range pdfFields {
		header := firstFile(r.MultipartForm, name)
		if header == nil {
			continue
		}
		if mediaTypeOf(header) != "application/pdf" {
			return nil, apperr.New(apperr.UnsupportedMediaType, "Only PDF files are allowed")
		}
		part, err := in.readPart(header)
		if err != nil {
			return nil, err
		}
		form.PDF = part
		break
	}
	if header := firstFile(r.MultipartForm, "image"); header != nil {
		if !strings.HasPrefix(mediaTypeOf(header), "image/") {
			return nil, apperr.New(apperr.UnsupportedMediaType, "Invalid file type. Only image files are allowed.")
		}
		part, err := in.readPart(header)
		if err != nil {
			return nil, err
		}
		form.Image = part
	}
	return form, nil
}

func (in Intake) readPart(header *multipart.FileHeader) (*service.Part, error) {
	limit := in.maxFile()
	if header.Size > limit {
		return nil, apperr.New(apperr.PayloadTooLarge, fmt.Sprintf("File too large. Maximum size is %dMB", limit>>20))
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %q: %w", header.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read part %q: %w", header.Filename, err)
	}
	if int64(len(data)) > limit {
		return nil, apperr.New(apperr.PayloadTooLarge, fmt.Sprintf("File too large. Maximum size is %dMB", limit>>20))
	}
	return &service.Part{
		Filename:    header.Filename,
		ContentType: mediaTypeOf(header),
		Data:        data,
	}, nil
}

func (in Intake) maxUpload() int64 {
	if in.MaxUploadBytes > 0 {
		return in.MaxUploadBytes
	}
	return defaultMaxUpload
}

func (in Intake) maxFile() int64 {
	if in.MaxFileBytes > 0 {
		return in.MaxFileBytes
	}
	return defaultMaxFile
}

// decodeFields reads a JSON object and renders each value as text, the form the
// field coercion expects. An empty body yields no fields.
func decodeFields(body io.Reader) (map[string]string, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, bodyError(err, "request body must be a JSON object")
	}
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		fields[key] = fieldText(value)
	}
	return fields, nil
}

func fieldText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func bodyError(err error, msg string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) ||
		strings.Contains(err.Error(), "request body too large") {
		return apperr.Wrap(apperr.PayloadTooLarge, fmt.Sprintf("Request too large. Maximum size is %dMB", tooLargeLimit(tooLarge)), err)
	}
	return &apperr.Error{Kind: apperr.ValidationFailed, Message: msg, Messages: []string{msg}, Err: err}
}

func tooLargeLimit(e *http.MaxBytesError) int64 {
	if e == nil {
		return defaultMaxUpload >> 20
	}
	return e.Limit >> 20
}

func firstFile(form *multipart.Form, name string) *multipart.FileHeader {
	if files := form.File[name]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func firstValues(values map[string][]string) map[string]string {
	fields := make(map[string]string, len(values))
	for key, v := range values {
		if len(v) > 0 {
			fields[key] = v[0]
		}
	}
	return fields
}

func mediaTypeOf(header *multipart.FileHeader) string {
	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}
