package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edustack/content-engine/api/handlers"
	"github.com/edustack/content-engine/api/middleware"
	"github.com/edustack/content-engine/api/routes"
	"github.com/edustack/content-engine/internal/models"
	"github.com/edustack/content-engine/internal/service/ingest"
	"github.com/edustack/content-engine/internal/service/study"
	"github.com/edustack/content-engine/pkg/logger"
	"github.com/edustack/content-engine/pkg/queue"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var (
	_ ingest.Service = (*fakeIngest)(nil)
	_ study.Service  = (*fakeStudy)(nil)
)

type fakeIngest struct {
	receipt *ingest.Receipt
	upload  *models.Upload
	uploads []*models.Upload
	status  *ingest.UploadStatus
	task    *queue.TaskStatus
	err     error

	lastRequest *ingest.Request
	lastForce   bool
	lastUserID  uuid.UUID
	lastSubject *uuid.UUID
	deleted     []uuid.UUID
	cancelled   []string
}

func (f *fakeIngest) Ingest(_ context.Context, req *ingest.Request) (*ingest.Receipt, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

func (f *fakeIngest) Reprocess(_ context.Context, _, userID uuid.UUID, force bool) (*ingest.Receipt, error) {
	f.lastUserID = userID
	f.lastForce = force
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

func (f *fakeIngest) Process(context.Context, uuid.UUID, ingest.ProgressFunc) (*models.Upload, error) {
	return f.upload, f.err
}

func (f *fakeIngest) HandleIngestTask(context.Context, *queue.Task) error { return f.err }

func (f *fakeIngest) Status(_ context.Context, _, _ uuid.UUID) (*ingest.UploadStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func (f *fakeIngest) Get(_ context.Context, _, _ uuid.UUID) (*models.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.upload, nil
}

func (f *fakeIngest) List(_ context.Context, userID uuid.UUID, subjectID *uuid.UUID) ([]*models.Upload, error) {
	f.lastUserID = userID
	f.lastSubject = subjectID
	if f.err != nil {
		return nil, f.err
	}
	return f.uploads, nil
}

func (f *fakeIngest) Delete(_ context.Context, id, _ uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIngest) TaskStatus(_ context.Context, _ string) (*queue.TaskStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.task, nil
}

func (f *fakeIngest) CancelTask(_ context.Context, taskID string) error {
	f.cancelled = append(f.cancelled, taskID)
	return f.err
}

func (f *fakeIngest) Cleanup(context.Context, time.Time) error { return f.err }

type fakeStudy struct {
	quiz        *models.Quiz
	quizzes     []*models.Quiz
	exam        *models.Exam
	exams       []*models.Exam
	conceptMap  *models.ConceptMap
	conceptMaps []*models.ConceptMap
	err         error

	lastQuizReq *study.QuizRequest
	lastExamReq *study.ExamRequest
	lastMapReq  *study.ConceptMapRequest
	lastUserID  uuid.UUID
	deleted     []uuid.UUID
}

func (f *fakeStudy) GenerateQuiz(_ context.Context, userID uuid.UUID, req *study.QuizRequest) (*models.Quiz, error) {
	f.lastUserID = userID
	f.lastQuizReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.quiz, nil
}

func (f *fakeStudy) GetQuiz(_ context.Context, _, _ uuid.UUID) (*models.Quiz, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quiz, nil
}

func (f *fakeStudy) ListQuizzes(_ context.Context, _ uuid.UUID, _ *uuid.UUID) ([]*models.Quiz, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quizzes, nil
}

func (f *fakeStudy) DeleteQuiz(_ context.Context, id, _ uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeStudy) GenerateExam(_ context.Context, userID uuid.UUID, req *study.ExamRequest) (*models.Exam, error) {
	f.lastUserID = userID
	f.lastExamReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.exam, nil
}

func (f *fakeStudy) GetExam(_ context.Context, _, _ uuid.UUID) (*models.Exam, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.exam, nil
}

func (f *fakeStudy) ListExams(_ context.Context, _ uuid.UUID, _ *uuid.UUID) ([]*models.Exam, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.exams, nil
}

func (f *fakeStudy) DeleteExam(_ context.Context, id, _ uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeStudy) GenerateConceptMap(_ context.Context, userID uuid.UUID, req *study.ConceptMapRequest) (*models.ConceptMap, error) {
	f.lastUserID = userID
	f.lastMapReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.conceptMap, nil
}

func (f *fakeStudy) GetConceptMap(_ context.Context, _, _ uuid.UUID) (*models.ConceptMap, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conceptMap, nil
}

func (f *fakeStudy) ListConceptMaps(_ context.Context, _ uuid.UUID, _ *uuid.UUID) ([]*models.ConceptMap, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conceptMaps, nil
}

func (f *fakeStudy) DeleteConceptMap(_ context.Context, id, _ uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

const handlerSecret = "handler-test-secret"

func newRouter(ing ingest.Service, st study.Service) *gin.Engine {
	log := logger.NewTestLogger()
	r := gin.New()
	routes.SetupRoutes(r,
		handlers.NewHandlers(ing, st, log),
		middleware.NewAuthMiddleware(handlerSecret, log),
	)
	return r
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(handlerSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func do(r *gin.Engine, method, path, auth string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth_NoAuthRequired(t *testing.T) {
	r := newRouter(&fakeIngest{}, &fakeStudy{})

	w := do(r, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRoutes_RejectUnauthenticated(t *testing.T) {
	r := newRouter(&fakeIngest{}, &fakeStudy{})

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/uploads"},
		{http.MethodPost, "/api/v1/uploads"},
		{http.MethodGet, "/api/v1/tasks/abc"},
		{http.MethodPost, "/api/v1/quizzes/generate"},
		{http.MethodGet, "/api/v1/concept-maps"},
	}
	for _, p := range paths {
		w := do(r, p.method, p.path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestUpload_Accepted(t *testing.T) {
	userID := uuid.New()
	subjectID := uuid.New()
	uploadID := uuid.New()
	fake := &fakeIngest{receipt: &ingest.Receipt{
		Upload: &models.Upload{ID: uploadID, UserID: userID, Status: models.StatusProcessing},
		TaskID: "task-123",
	}}
	r := newRouter(fake, &fakeStudy{})

	content := []byte("plain text notes")
	body, contentType := multipartUpload(t, "notes.txt", content, map[string]string{
		"subject_id": subjectID.String(),
		"kind":       "text",
	})

	w := do(r, http.MethodPost, "/api/v1/uploads", bearer(t, userID), body, contentType)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	resp := decodeBody(t, w)
	assert.Equal(t, "task-123", resp["task_id"])

	require.NotNil(t, fake.lastRequest)
	assert.Equal(t, userID, fake.lastRequest.UserID)
	assert.Equal(t, "notes.txt", fake.lastRequest.Filename)
	assert.Equal(t, "text", fake.lastRequest.DeclaredKind)
	assert.Equal(t, int64(len(content)), fake.lastRequest.SizeBytes)
	require.NotNil(t, fake.lastRequest.SubjectID)
	assert.Equal(t, subjectID, *fake.lastRequest.SubjectID)
}

func TestUpload_MissingFilePart(t *testing.T) {
	r := newRouter(&fakeIngest{}, &fakeStudy{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", "text"))
	require.NoError(t, mw.Close())

	w := do(r, http.MethodPost, "/api/v1/uploads", bearer(t, uuid.New()), &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_InvalidSubjectID(t *testing.T) {
	r := newRouter(&fakeIngest{}, &fakeStudy{})

	body, contentType := multipartUpload(t, "notes.txt", []byte("x"), map[string]string{
		"subject_id": "not-a-uuid",
	})
	w := do(r, http.MethodPost, "/api/v1/uploads", bearer(t, uuid.New()), body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid subject ID")
}

func TestUpload_ValidationErrorMapsTo422(t *testing.T) {
	fake := &fakeIngest{err: models.NewValidationError("unsupported file extension: .zip")}
	r := newRouter(fake, &fakeStudy{})

	body, contentType := multipartUpload(t, "a.zip", []byte("x"), nil)
	w := do(r, http.MethodPost, "/api/v1/uploads", bearer(t, uuid.New()), body, contentType)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "Failed to accept upload", resp["message"])
	assert.Contains(t, resp["error"], "unsupported file extension")
}

func TestGetUpload_NotFound(t *testing.T) {
	fake := &fakeIngest{err: gorm.ErrRecordNotFound}
	r := newRouter(fake, &fakeStudy{})

	w := do(r, http.MethodGet, "/api/v1/uploads/"+uuid.NewString(), bearer(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUpload_InvalidID(t *testing.T) {
	r := newRouter(&fakeIngest{}, &fakeStudy{})

	w := do(r, http.MethodGet, "/api/v1/uploads/not-a-uuid", bearer(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid upload ID")
}

func TestListUploads(t *testing.T) {
	subjectID := uuid.New()
	fake := &fakeIngest{uploads: []*models.Upload{
		{ID: uuid.New(), Status: models.StatusCompleted},
		{ID: uuid.New(), Status: models.StatusFailed},
	}}
	r := newRouter(fake, &fakeStudy{})

	w := do(r, http.MethodGet, "/api/v1/uploads?subject_id="+subjectID.String(), bearer(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.EqualValues(t, 2, resp["count"])
	require.NotNil(t, fake.lastSubject)
	assert.Equal(t, subjectID, *fake.lastSubject)

	w = do(r, http.MethodGet, "/api/v1/uploads?subject_id=junk", bearer(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadStatus_ReportsErrorVerbatim(t *testing.T) {
	msg := "extract pdf: invalid pdf container: EOF"
	fake := &fakeIngest{status: &ingest.UploadStatus{
		ID:     uuid.New(),
		Status: models.StatusFailed,
		Error:  &msg,
	}}
	r := newRouter(fake, &fakeStudy{})

	w := do(r, http.MethodGet, "/api/v1/uploads/"+uuid.NewString()+"/status", bearer(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, msg, resp["processing_error"])
}

func TestReprocess_BodyIsOptional(t *testing.T) {
	fake := &fakeIngest{receipt: &ingest.Receipt{
		Upload: &models.Upload{ID: uuid.New(), Status: models.StatusProcessing},
		TaskID: "task-9",
	}}
	r := newRouter(fake, &fakeStudy{})
	path := "/api/v1/uploads/" + uuid.NewString() + "/reprocess"

	w := do(r, http.MethodPost, path, bearer(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.False(t, fake.lastForce)

	w = do(r, http.MethodPost, path, bearer(t, uuid.New()),
		bytes.NewReader([]byte(`{"force":true}`)), "application/json")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, fake.lastForce)

	w = do(r, http.MethodPost, path, bearer(t, uuid.New()),
		bytes.NewReader([]byte(`{"force":`)), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReprocess_StateConflictMapsTo422(t *testing.T) {
	fake := &fakeIngest{err: models.NewValidationError("upload is completed; reprocessing it requires force")}
	r := newRouter(fake, &fakeStudy{})

	w := do(r, http.MethodPost, "/api/v1/uploads/"+uuid.NewString()+"/reprocess",
		bearer(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "requires force")
}

func TestDeleteUpload(t *testing.T) {
	fake := &fakeIngest{}
	r := newRouter(fake, &fakeStudy{})
	id := uuid.New()

	w := do(r, http.MethodDelete, "/api/v1/uploads/"+id.String(), bearer(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Upload deleted successfully")
	assert.Equal(t, []uuid.UUID{id}, fake.deleted)

	fake.err = gorm.ErrRecordNotFound
	w = do(r, http.MethodDelete, "/api/v1/uploads/"+uuid.NewString(), bearer(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskStatus(t *testing.T) {
	fake := &fakeIngest{task: &queue.TaskStatus{TaskID: "task-1", Status: queue.StatusRunning, Progress: 0.6}}
	r := newRouter(fake, &fakeStudy{})

	w := do(r, http.MethodGet, "/api/v1/tasks/task-1", bearer(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "task-1")

	// Not-found detection works through wrapped errors.
	fake.err = fmt.Errorf("query inspector: %w", queue.ErrTaskNotFound)
	w = do(r, http.MethodGet, "/api/v1/tasks/gone", bearer(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelTask(t *testing.T) {
	fake := &fakeIngest{}
	r := newRouter(fake, &fakeStudy{})

	w := do(r, http.MethodDelete, "/api/v1/tasks/task-7", bearer(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Task cancelled successfully")
	assert.Equal(t, []string{"task-7"}, fake.cancelled)

	fake.err = fmt.Errorf("cancel task: %w", queue.ErrTaskNotFound)
	w = do(r, http.MethodDelete, "/api/v1/tasks/gone", bearer(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateQuiz(t *testing.T) {
	userID := uuid.New()
	fake := &fakeStudy{quiz: &models.Quiz{ID: uuid.New(), Title: "Bio"}}
	r := newRouter(&fakeIngest{}, fake)

	w := do(r, http.MethodPost, "/api/v1/quizzes/generate", bearer(t, userID),
		bytes.NewReader([]byte(`{"title":"Bio","num_questions":3}`)), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, fake.lastQuizReq)
	assert.Equal(t, "Bio", fake.lastQuizReq.Title)
	assert.Equal(t, 3, fake.lastQuizReq.QuestionCount)
	assert.Equal(t, userID, fake.lastUserID)
}

func TestGenerateQuiz_InvalidBody(t *testing.T) {
	r := newRouter(&fakeIngest{}, &fakeStudy{})

	w := do(r, http.MethodPost, "/api/v1/quizzes/generate", bearer(t, uuid.New()),
		bytes.NewReader([]byte(`not json`)), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateQuiz_NoContentMapsTo422(t *testing.T) {
	fake := &fakeStudy{err: models.NewValidationError("No content available for quiz generation")}
	r := newRouter(&fakeIngest{}, fake)

	w := do(r, http.MethodPost, "/api/v1/quizzes/generate", bearer(t, uuid.New()),
		bytes.NewReader([]byte(`{"title":"Bio"}`)), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "No content available for quiz generation")
}

func TestListQuizzes(t *testing.T) {
	fake := &fakeStudy{quizzes: []*models.Quiz{{ID: uuid.New(), Title: "One"}}}
	r := newRouter(&fakeIngest{}, fake)

	w := do(r, http.MethodGet, "/api/v1/quizzes", bearer(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.EqualValues(t, 1, resp["count"])
	assert.Contains(t, resp, "quizzes")
}

func TestGenerateExam(t *testing.T) {
	fake := &fakeStudy{exam: &models.Exam{ID: uuid.New(), Title: "Midterm", TotalPoints: 12}}
	r := newRouter(&fakeIngest{}, fake)

	w := do(r, http.MethodPost, "/api/v1/exams/generate", bearer(t, uuid.New()),
		bytes.NewReader([]byte(`{"title":"Midterm","passing_score":70}`)), "application/json")
	require.Equal(t, http.StatusCreated, w.Code)

	require.NotNil(t, fake.lastExamReq)
	assert.Equal(t, 70, fake.lastExamReq.PassingScore)
	assert.Contains(t, w.Body.String(), "total_points")
}

func TestDeleteExam_NotFound(t *testing.T) {
	fake := &fakeStudy{err: gorm.ErrRecordNotFound}
	r := newRouter(&fakeIngest{}, fake)

	w := do(r, http.MethodDelete, "/api/v1/exams/"+uuid.NewString(), bearer(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateConceptMap(t *testing.T) {
	fake := &fakeStudy{conceptMap: &models.ConceptMap{ID: uuid.New(), Title: "Map"}}
	r := newRouter(&fakeIngest{}, fake)

	w := do(r, http.MethodPost, "/api/v1/concept-maps/generate", bearer(t, uuid.New()),
		bytes.NewReader([]byte(`{"title":"Map","source_upload_ids":["`+uuid.NewString()+`"]}`)), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, fake.lastMapReq)
	assert.Len(t, fake.lastMapReq.SourceUploadIDs, 1)
}

func TestGetConceptMap_InvalidID(t *testing.T) {
	r := newRouter(&fakeIngest{}, &fakeStudy{})

	w := do(r, http.MethodGet, "/api/v1/concept-maps/nope", bearer(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid concept map ID")
}
