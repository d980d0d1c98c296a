package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/kevinaaaquil/skillspark/apperr"
	"github.com/kevinaaaquil/skillspark/config"
	"github.com/kevinaaaquil/skillspark/internal/testutils"
	"github.com/kevinaaaquil/skillspark/models"
	"github.com/kevinaaaquil/skillspark/service"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, policy config.ImagePolicy) (*service.BookService, *testutils.BookStore, *testutils.Sink, *require.Assertions) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	st, sink := testutils.NewBookStore(), testutils.NewSink()
	svc := &service.BookService{
		Store:         st,
		Media:         sink,
		Log:           logger,
		ImagePolicy:   policy,
		UploadTimeout: 5 * time.Second,
	}
	return svc, st, sink, require.New(t)
}

func pdfPart() *service.Part {
	return &service.Part{Filename: "go.pdf", ContentType: "application/pdf", Data: testutils.PDF}
}

func imagePart() *service.Part {
	return &service.Part{Filename: "cover.png", ContentType: "image/png", Data: testutils.PNG()}
}

func TestIngestWithoutImage(t *testing.T) {
	svc, st, sink, assert := setup(t, config.ImagePolicyAbort)
	book, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), nil)
	assert.NoError(err)
	assert.False(book.ID.IsZero(), "store assigns an id")
	assert.Equal(models.FileFormatPDF, book.FileFormat)
	assert.Nil(book.ImageURL)
	assert.Equal(9.99, *book.Price)
	assert.Equal(120, *book.Pages)
	assert.True(book.IsPublic)
	assert.Equal(models.ContentTypeBook, book.ContentType)
	assert.False(book.CreatedAt.IsZero())
	assert.Equal(1, st.Len())

	assert.Len(sink.Uploads, 1)
	up := sink.Uploads[0]
	assert.Equal(service.BookFolder, up.Folder)
	assert.True(up.Raw, "pdf is stored as a raw object")
	assert.Equal("application/pdf", up.ContentType)
	assert.Equal(testutils.SinkBaseURL+"/skillspark_books/book-1", book.FileURL)
}

func TestIngestUploadsPDFBeforeImage(t *testing.T) {
	svc, _, sink, assert := setup(t, config.ImagePolicyAbort)
	book, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), imagePart())
	assert.NoError(err)
	assert.Len(sink.Uploads, 2)
	assert.Equal(service.BookFolder, sink.Uploads[0].Folder)
	assert.Equal(service.ImageFolder, sink.Uploads[1].Folder)
	assert.Equal(500, sink.Uploads[1].MaxEdge)
	assert.False(sink.Uploads[1].Raw)
	assert.NotNil(book.ImageURL)
}

func TestIngestMissingPDF(t *testing.T) {
	svc, st, sink, assert := setup(t, config.ImagePolicyAbort)
	fields := testutils.BookFields()
	fields["price"] = "abc"
	_, err := svc.Ingest(context.Background(), fields, nil, imagePart())
	assert.True(apperr.Is(err, apperr.MissingRequiredFile), "got %v", err)
	assert.Equal(0, sink.UploadCount(), "no media call without a pdf")
	assert.Equal(0, st.Len())
}

func TestIngestNonNumericPrice(t *testing.T) {
	svc, st, sink, assert := setup(t, config.ImagePolicyAbort)
	fields := testutils.BookFields()
	fields["price"] = "abc"
	_, err := svc.Ingest(context.Background(), fields, pdfPart(), nil)
	assert.True(apperr.Is(err, apperr.ValidationFailed))
	var ae *apperr.Error
	assert.True(errors.As(err, &ae))
	assert.Equal([]string{"price must be a number"}, ae.Messages)
	assert.Equal(0, sink.UploadCount(), "invalid metadata never reaches the sink")
	assert.Equal(0, st.Len())
}

func TestIngestCollectsAllMessages(t *testing.T) {
	svc, _, _, assert := setup(t, config.ImagePolicyAbort)
	_, err := svc.Ingest(context.Background(), map[string]string{
		"pages":      "0",
		"difficulty": "Expert",
	}, pdfPart(), nil)
	var ae *apperr.Error
	assert.True(errors.As(err, &ae))
	assert.Equal(apperr.ValidationFailed, ae.Kind)
	assert.ElementsMatch([]string{
		"title is required",
		"description is required",
		"category is required",
		"price is required",
		"pages must be at least 1",
		"author is required",
		"difficulty must be one of: Beginner, Intermediate, Advanced",
	}, ae.Messages)
}

func TestIngestIsPublicCoercion(t *testing.T) {
	cases := map[string]struct {
		value *string
		want  bool
	}{
		"omitted": {nil, true},
		"false":   {strPtr("false"), false},
		"yes":     {strPtr("yes"), false},
		"TRUE":    {strPtr("TRUE"), false},
		"true":    {strPtr("true"), true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, _, assert := setup(t, config.ImagePolicyAbort)
			fields := testutils.BookFields()
			delete(fields, "isPublic")
			if tc.value != nil {
				fields["isPublic"] = *tc.value
			}
			book, err := svc.Ingest(context.Background(), fields, pdfPart(), nil)
			assert.NoError(err)
			assert.Equal(tc.want, book.IsPublic)
		})
	}
}

func TestIngestPDFUploadFailure(t *testing.T) {
	svc, st, sink, assert := setup(t, config.ImagePolicyIgnore)
	sink.FailFolders[service.BookFolder] = errors.New("sink down")
	_, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), imagePart())
	assert.True(apperr.Is(err, apperr.UploadFailed))
	assert.Len(sink.Uploads, 1, "image is not attempted after a failed pdf")
	assert.Equal(0, st.Len())
}

func TestIngestImageFailureAbort(t *testing.T) {
	svc, st, sink, assert := setup(t, config.ImagePolicyAbort)
	sink.FailFolders[service.ImageFolder] = errors.New("bad image")
	_, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), imagePart())
	assert.True(apperr.Is(err, apperr.UploadFailed))
	assert.Equal(0, st.Len())
	assert.Equal(0, sink.Stored(), "the uploaded pdf is removed")
	assert.Len(sink.Deletes, 1)
}

func TestIngestImageFailureIgnore(t *testing.T) {
	svc, st, sink, assert := setup(t, config.ImagePolicyIgnore)
	sink.FailFolders[service.ImageFolder] = errors.New("bad image")
	book, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), imagePart())
	assert.NoError(err)
	assert.Nil(book.ImageURL)
	assert.Equal(1, st.Len())
	assert.Equal(1, sink.Stored())
}

func TestIngestStoreFailureRemovesUploads(t *testing.T) {
	svc, st, sink, assert := setup(t, config.ImagePolicyAbort)
	st.InsertErr = errors.New("mongo down")
	_, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), imagePart())
	assert.True(apperr.Is(err, apperr.StoreUnavailable))
	assert.Equal(500, apperr.Status(err))
	assert.Equal(0, sink.Stored())
}

func TestIngestCancelledContext(t *testing.T) {
	svc, st, _, assert := setup(t, config.ImagePolicyAbort)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Ingest(ctx, testutils.BookFields(), pdfPart(), nil)
	assert.True(apperr.Is(err, apperr.UploadFailed))
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(0, st.Len())
}

func TestGetUpdateDelete(t *testing.T) {
	svc, _, _, assert := setup(t, config.ImagePolicyAbort)
	ctx := context.Background()
	created, err := svc.Ingest(ctx, testutils.BookFields(), pdfPart(), nil)
	assert.NoError(err)
	id := created.ID.Hex()

	got, err := svc.Get(ctx, id)
	assert.NoError(err)
	assert.Equal("X", got.Title)

	updated, err := svc.Update(ctx, id, map[string]string{"title": "  Go in Action ", "price": "19.99"})
	assert.NoError(err)
	assert.Equal("Go in Action", updated.Title)
	assert.Equal(19.99, *updated.Price)
	assert.Equal(120, *updated.Pages, "fields not sent are kept")
	assert.True(updated.CreatedAt.Equal(created.CreatedAt))

	_, err = svc.Update(ctx, id, map[string]string{"pages": "12.5", "contentType": "Podcast"})
	var ae *apperr.Error
	assert.True(errors.As(err, &ae))
	assert.ElementsMatch([]string{"pages must be an integer", "contentType must be one of: Book, Course"}, ae.Messages)

	assert.NoError(svc.Delete(ctx, id))
	_, err = svc.Get(ctx, id)
	assert.True(apperr.Is(err, apperr.NotFound))
}

func TestIdentifierErrors(t *testing.T) {
	svc, _, _, assert := setup(t, config.ImagePolicyAbort)
	ctx := context.Background()

	err := svc.Delete(ctx, "not-an-id")
	assert.True(apperr.Is(err, apperr.InvalidIdentifier))
	assert.Equal(400, apperr.Status(err))

	err = svc.Delete(ctx, "65f1c0ffee0000000000abcd")
	assert.True(apperr.Is(err, apperr.NotFound))
	assert.Equal(404, apperr.Status(err))

	_, err = svc.Update(ctx, "65f1c0ffee0000000000abcd", map[string]string{"title": "x"})
	assert.True(apperr.Is(err, apperr.NotFound))
	_, err = svc.Get(ctx, "123")
	assert.True(apperr.Is(err, apperr.InvalidIdentifier))
}

func TestListFilters(t *testing.T) {
	svc, _, _, assert := setup(t, config.ImagePolicyAbort)
	ctx := context.Background()
	for _, f := range []map[string]string{
		{"category": "Programming", "isPublic": "true"},
		{"category": "Programming", "isPublic": "false"},
		{"category": "Art", "isPublic": "true"},
	} {
		fields := testutils.BookFields()
		for k, v := range f {
			fields[k] = v
		}
		_, err := svc.Ingest(ctx, fields, pdfPart(), nil)
		assert.NoError(err)
	}

	all, err := svc.List(ctx)
	assert.NoError(err)
	assert.Len(all, 3)

	prog, err := svc.ListByCategory(ctx, "Programming")
	assert.NoError(err)
	assert.Len(prog, 2)

	public, err := svc.ListPublic(ctx)
	assert.NoError(err)
	assert.Len(public, 2)

	none, err := svc.ListByCategory(ctx, "nonexistent-category")
	assert.NoError(err)
	assert.NotNil(none)
	assert.Empty(none)
}

func TestReplaceImage(t *testing.T) {
	svc, _, sink, assert := setup(t, config.ImagePolicyAbort)
	ctx := context.Background()
	created, err := svc.Ingest(ctx, testutils.BookFields(), pdfPart(), nil)
	assert.NoError(err)

	_, err = svc.ReplaceImage(ctx, created.ID.Hex(), nil)
	assert.True(apperr.Is(err, apperr.MissingRequiredFile))

	_, err = svc.ReplaceImage(ctx, "65f1c0ffee0000000000abcd", imagePart())
	assert.True(apperr.Is(err, apperr.NotFound))
	assert.Equal(1, sink.UploadCount(), "no upload for a missing book")

	updated, err := svc.ReplaceImage(ctx, created.ID.Hex(), imagePart())
	assert.NoError(err)
	assert.NotNil(updated.ImageURL)
	assert.Equal(service.ImageFolder, sink.Uploads[1].Folder)
}

func TestOpenFile(t *testing.T) {
	svc, _, sink, assert := setup(t, config.ImagePolicyAbort)
	ctx := context.Background()
	created, err := svc.Ingest(ctx, testutils.BookFields(), pdfPart(), nil)
	assert.NoError(err)

	book, body, contentType, err := svc.OpenFile(ctx, created.ID.Hex())
	assert.NoError(err)
	defer body.Close()
	data, err := io.ReadAll(body)
	assert.NoError(err)
	assert.Equal(testutils.PDF, data)
	assert.Equal("application/pdf", contentType)
	assert.Equal("X.pdf", service.DownloadName(book))

	assert.NoError(sink.Delete(ctx, created.FileURL))
	_, _, _, err = svc.OpenFile(ctx, created.ID.Hex())
	assert.True(apperr.Is(err, apperr.NotFound))
}

func TestDefaultLogger(t *testing.T) {
	svc := &service.BookService{Store: testutils.NewBookStore(), Media: testutils.NewSink()}
	logrus.SetOutput(io.Discard)
	_, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), nil)
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func TestIngestIgnoresClientImageURL(t *testing.T) {
	fields := testutils.BookFields()
	fields["imageUrl"] = "https://elsewhere.example.com/x.png"

	svc, st, sink, assert := setup(t, config.ImagePolicyAbort)
	book, err := svc.Ingest(context.Background(), fields, pdfPart(), nil)
	assert.NoError(err)
	assert.Nil(book.ImageURL)
	assert.Equal(1, sink.UploadCount())
	stored, err := st.BookByID(context.Background(), book.ID)
	assert.NoError(err)
	assert.Nil(stored.ImageURL)

	svc, _, sink, assert = setup(t, config.ImagePolicyIgnore)
	sink.FailFolders[service.ImageFolder] = errors.New("bad image")
	book, err = svc.Ingest(context.Background(), fields, pdfPart(), imagePart())
	assert.NoError(err)
	assert.Nil(book.ImageURL, "a failed cover leaves no url behind")
}

func TestIngestRejectsUndecodableImage(t *testing.T) {
	svc, st, sink, assert := setup(t, config.ImagePolicyIgnore)
	webp := &service.Part{Filename: "cover.webp", ContentType: "image/webp", Data: []byte("RIFF\x1a\x00\x00\x00WEBPVP8 ")}
	_, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), webp)
	assert.True(apperr.Is(err, apperr.UnsupportedMediaType))
	assert.Equal(400, apperr.Status(err))
	assert.Zero(sink.UploadCount())
	assert.Zero(st.Len())

	created, err := svc.Ingest(context.Background(), testutils.BookFields(), pdfPart(), nil)
	assert.NoError(err)
	_, err = svc.ReplaceImage(context.Background(), created.ID.Hex(), webp)
	assert.True(apperr.Is(err, apperr.UnsupportedMediaType))
	assert.Equal(1, sink.UploadCount())
}
