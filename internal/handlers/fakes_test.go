package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/codewithrodrick/portfolio-backend/internal/handlers"
	"github.com/codewithrodrick/portfolio-backend/internal/models"
	"github.com/codewithrodrick/portfolio-backend/internal/routes"
	"github.com/codewithrodrick/portfolio-backend/internal/services"
)

const testCookie = "portfolio.sid"

// fakeAdmins enforces the single-admin rule atomically, like the Postgres store.
type fakeAdmins struct {
	mu   sync.Mutex
	user *models.AdminUser
}

func (f *fakeAdmins) copyUser() *models.AdminUser {
	u := *f.user
	return &u
}

func (f *fakeAdmins) GetByID(_ context.Context, id uuid.UUID) (*models.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil || f.user.ID != id {
		return nil, nil
	}
	return f.copyUser(), nil
}

func (f *fakeAdmins) GetByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil || f.user.Username != username {
		return nil, nil
	}
	return f.copyUser(), nil
}

func (f *fakeAdmins) Exists(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user != nil, nil
}

func (f *fakeAdmins) Create(_ context.Context, username, passwordHash string) (*models.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user != nil {
		return nil, services.ErrAdminExists
	}
	f.user = &models.AdminUser{ID: uuid.New(), Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	return f.copyUser(), nil
}

func (f *fakeAdmins) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil || f.user.ID != id {
		return false, nil
	}
	f.user.PasswordHash = passwordHash
	return true, nil
}

func (f *fakeAdmins) UpdateProfileImage(_ context.Context, id uuid.UUID, imageURL *string) (*models.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil || f.user.ID != id {
		return nil, nil
	}
	f.user.ProfileImageURL = imageURL
	return f.copyUser(), nil
}

type fakeContent struct {
	mu             sync.Mutex
	projects       []models.Project
	profile        *models.Profile
	profileCreates int
	profileErr     error
}

func (f *fakeContent) ListProjects(context.Context) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Project{}, f.projects...), nil
}

func (f *fakeContent) find(id string) int {
	pid, err := uuid.Parse(id)
	if err != nil {
		return -1
	}
	for i, p := range f.projects {
		if p.ID == pid {
			return i
		}
	}
	return -1
}

func (f *fakeContent) GetProject(_ context.Context, id string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, nil
	}
	p := f.projects[i]
	return &p, nil
}

func (f *fakeContent) CreateProject(_ context.Context, in models.ProjectInput) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Project{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ImageURLs:   pq.StringArray(in.ImageURLs),
		DeviceType:  in.DeviceType,
		Tags:        pq.StringArray(in.Tags),
		OrderIndex:  in.OrderIndex,
		CreatedAt:   time.Now(),
	}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeContent) UpdateProject(_ context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, nil
	}
	p := &f.projects[i]
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.ImageURLs != nil {
		p.ImageURLs = *patch.ImageURLs
	}
	if patch.DeviceType != nil {
		p.DeviceType = *patch.DeviceType
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
	}
	if patch.OrderIndex != nil {
		p.OrderIndex = *patch.OrderIndex
	}
	out := *p
	return &out, nil
}

func (f *fakeContent) DeleteProject(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return false, nil
	}
	f.projects = append(f.projects[:i], f.projects[i+1:]...)
	return true, nil
}

func (f *fakeContent) ensureProfile() {
	if f.profile == nil {
		p := services.DefaultProfile
		p.Skills = append(pq.StringArray{}, services.DefaultProfile.Skills...)
		p.UpdatedAt = time.Now()
		f.profile = &p
		f.profileCreates++
	}
}

func (f *fakeContent) GetProfile(context.Context) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	f.ensureProfile()
	p := *f.profile
	return &p, nil
}

func (f *fakeContent) UpdateProfile(_ context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureProfile()
	if patch.ProfileImageURL.Set {
		f.profile.ProfileImageURL = patch.ProfileImageURL.Value
	}
	if patch.Bio1 != nil {
		f.profile.Bio1 = *patch.Bio1
	}
	if patch.Bio2 != nil {
		f.profile.Bio2 = *patch.Bio2
	}
	if patch.Bio3 != nil {
		f.profile.Bio3 = *patch.Bio3
	}
	if patch.Skills != nil {
		f.profile.Skills = *patch.Skills
	}
	if patch.ContactEmail != nil {
		f.profile.ContactEmail = *patch.ContactEmail
	}
	f.profile.UpdatedAt = time.Now()
	p := *f.profile
	return &p, nil
}

type storedBlob struct {
	name        string
	contentType string
	size        int
}

type fakeBlobs struct {
	mu        sync.Mutex
	uploads   []storedBlob
	deleted   []string
	err       error
	deleteErr error
}

func (f *fakeBlobs) Upload(_ context.Context, name, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", &services.UploadError{Name: name, Err: f.err}
	}
	f.uploads = append(f.uploads, storedBlob{name: name, contentType: contentType, size: len(data)})
	return "https://cdn.example.com/" + name, nil
}

func (f *fakeBlobs) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeBlobs) deletedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []services.Email
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg services.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeArchive struct {
	mu       sync.Mutex
	messages []models.ContactMessage
}

func (f *fakeArchive) Save(_ context.Context, msg *models.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeArchive) Recent(_ context.Context, limit int64) ([]models.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ContactMessage{}
	for i := len(f.messages) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(out)) == limit {
			break
		}
		out = append(out, f.messages[i])
	}
	return out, nil
}

// testAPI is the full router wired to in-memory stores and a miniredis-backed
// session store.
type testAPI struct {
	t        *testing.T
	router   http.Handler
	mr       *miniredis.Miniredis
	admins   *fakeAdmins
	content  *fakeContent
	blobs    *fakeBlobs
	mailer   *fakeMailer
	archive  *fakeArchive
	sessions *services.SessionStore
}

type apiOption func(*handlers.Options)

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	api := &testAPI{
		t:        t,
		mr:       mr,
		admins:   &fakeAdmins{},
		content:  &fakeContent{},
		blobs:    &fakeBlobs{},
		mailer:   &fakeMailer{},
		archive:  &fakeArchive{},
		sessions: services.NewSessionStore(rdb, time.Hour),
	}

	hopts := handlers.Options{
		CookieName:           testCookie,
		SessionTTL:           time.Hour,
		ContactFallbackEmail: "fallback@example.com",
		UploadsDir:           t.TempDir(),
	}
	for _, o := range opts {
		o(&hopts)
	}

	h := handlers.New(handlers.Deps{
		Admins:   api.admins,
		Content:  api.content,
		Sessions: api.sessions,
		Blobs:    api.blobs,
		Mailer:   api.mailer,
		Archive:  api.archive,
		Logger:   discardLogger(),
	}, hopts)
	api.router = routes.NewRouter(h, routes.Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         discardLogger(),
	})
	return api
}

// do sends a JSON request, attaching the session cookie when token is set.
func (a *testAPI) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.serve(req, token)
}

func (a *testAPI) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates the admin and returns its session token.
func (a *testAPI) register(username, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", map[string]string{"username": username, "password": password}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	token := sessionToken(rec)
	require.NotEmpty(a.t, token)
	return token
}

func sessionToken(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			return c.Value
		}
	}
	return ""
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// multipartRequest builds a form with explicit per-part content types;
// multipart.Writer.CreateFormFile would force application/octet-stream.
func multipartRequest(t *testing.T, method, path string, parts ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
)

var errGateway = errors.New("gateway unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
