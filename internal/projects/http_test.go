package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lighted-app/lighted-backend/internal/auth"
	"github.com/lighted-app/lighted-backend/internal/realtime"
)

type updateCall struct {
	title        string
	thumbnail    *string
	setThumbnail bool
}

type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	items      map[int64]*Project
	lastUpdate *updateCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[int64]*Project)}
}

func (f *fakeStore) List(_ context.Context, ownerID int64) ([]Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Project{}
	for _, p := range f.items {
		if p.UserID == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id, ownerID int64) (*Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.UserID != ownerID {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, ownerID int64, title string, thumbnailURL *string) (*Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := &Project{ID: f.nextID, UserID: ownerID, Title: title, ThumbnailURL: thumbnailURL, CreatedAt: time.Now()}
	f.items[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, id, ownerID int64, title string, thumbnailURL *string, setThumbnail bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = &updateCall{title: title, thumbnail: thumbnailURL, setThumbnail: setThumbnail}
	p, ok := f.items[id]
	if !ok || p.UserID != ownerID {
		return 0, nil
	}
	p.Title = title
	if setThumbnail {
		p.ThumbnailURL = thumbnailURL
	}
	return 1, nil
}

func (f *fakeStore) Delete(_ context.Context, id, ownerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.UserID != ownerID {
		return 0, nil
	}
	delete(f.items, id)
	return 1, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeUploader struct {
	url   string
	err   error
	calls []string
}

func (f *fakeUploader) UploadImage(_ context.Context, dataURL string) (string, error) {
	f.calls = append(f.calls, dataURL)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (n *recordingNotifier) ProjectsChanged(action string, projectID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, realtime.Event{Action: action, ProjectID: projectID})
}

func (n *recordingNotifier) all() []realtime.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]realtime.Event{}, n.events...)
}

func newProjectsRouter(store Store, uploads Uploader, notify Notifier) (*gin.Engine, *auth.Issuer) {
	gin.SetMode(gin.TestMode)
	issuer := auth.NewIssuer("test-secret")

	r := gin.New()
	g := r.Group("/api/projects")
	g.Use(auth.RequireUser(issuer))
	Register(g, NewHandler(store, uploads, notify))

	return r, issuer
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func mustToken(t *testing.T, issuer *auth.Issuer, id int64, email string) string {
	t.Helper()
	token, err := issuer.Issue(id, email)
	require.NoError(t, err)
	return token
}

func TestCreateProject(t *testing.T) {
	store := newFakeStore()
	notify := &recordingNotifier{}
	r, issuer := newProjectsRouter(store, nil, notify)
	token := mustToken(t, issuer, 1, "a@x.com")

	rr := doJSON(r, http.MethodPost, "/api/projects", token, gin.H{"title": "Trip"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var p Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "Trip", p.Title)
	assert.Equal(t, int64(1), p.UserID, "owner must come from the token, not the body")
	assert.Nil(t, p.ThumbnailURL)

	assert.Equal(t, []realtime.Event{{Action: realtime.ActionCreate, ProjectID: p.ID}}, notify.all())
}

func TestCreateRequiresTitle(t *testing.T) {
	store := newFakeStore()
	r, issuer := newProjectsRouter(store, nil, nil)
	token := mustToken(t, issuer, 1, "a@x.com")

	for _, body := range []gin.H{{}, {"title": ""}, {"title": "   "}} {
		rr := doJSON(r, http.MethodPost, "/api/projects", token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}
	assert.Equal(t, 0, store.count())
}

func TestCreateUploadsInlineThumbnail(t *testing.T) {
	store := newFakeStore()
	uploads := &fakeUploader{url: "https://bucket.s3.eu-west-1.amazonaws.com/projects/x.png"}
	r, issuer := newProjectsRouter(store, uploads, nil)
	token := mustToken(t, issuer, 1, "a@x.com")

	inline := "data:image/png;base64,aGVsbG8="
	rr := doJSON(r, http.MethodPost, "/api/projects", token, gin.H{"title": "Trip", "thumbnailUrl": inline})
	require.Equal(t, http.StatusCreated, rr.Code)

	var p Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.NotNil(t, p.ThumbnailURL)
	assert.Equal(t, uploads.url, *p.ThumbnailURL)
	assert.Equal(t, []string{inline}, uploads.calls)
}

func TestCreateKeepsPlainThumbnailReference(t *testing.T) {
	store := newFakeStore()
	uploads := &fakeUploader{url: "unused"}
	r, issuer := newProjectsRouter(store, uploads, nil)
	token := mustToken(t, issuer, 1, "a@x.com")

	rr := doJSON(r, http.MethodPost, "/api/projects", token, gin.H{"title": "Trip", "thumbnailUrl": "https://cdn.example.com/t.png"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var p Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.NotNil(t, p.ThumbnailURL)
	assert.Equal(t, "https://cdn.example.com/t.png", *p.ThumbnailURL)
	assert.Empty(t, uploads.calls, "plain references must not hit the object store")
}

func TestCreateUploadFailureAbortsMutation(t *testing.T) {
	store := newFakeStore()
	uploads := &fakeUploader{err: errors.New("s3 down")}
	notify := &recordingNotifier{}
	r, issuer := newProjectsRouter(store, uploads, notify)
	token := mustToken(t, issuer, 1, "a@x.com")

	rr := doJSON(r, http.MethodPost, "/api/projects", token, gin.H{"title": "Trip", "thumbnailUrl": "data:image/png;base64,aGVsbG8="})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to upload image")
	assert.Equal(t, 0, store.count())
	assert.Empty(t, notify.all(), "no event for a failed mutation")
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	store := newFakeStore()
	r, issuer := newProjectsRouter(store, nil, nil)
	owner := mustToken(t, issuer, 1, "a@x.com")
	other := mustToken(t, issuer, 2, "b@x.com")

	rr := doJSON(r, http.MethodPost, "/api/projects", owner, gin.H{"title": "Trip"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var p Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	path := fmt.Sprintf("/api/projects/%d", p.ID)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, path, owner, nil).Code)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodPut, path, other, gin.H{"title": "Stolen"}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, path, other, nil).Code)

	// Still there, still the owner's.
	got, err := store.Get(context.Background(), p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Trip", got.Title)
}

func TestUpdateThumbnailFieldSemantics(t *testing.T) {
	store := newFakeStore()
	notify := &recordingNotifier{}
	r, issuer := newProjectsRouter(store, nil, notify)
	token := mustToken(t, issuer, 1, "a@x.com")

	thumb := "https://cdn.example.com/t.png"
	p, err := store.Create(context.Background(), 1, "Trip", &thumb)
	require.NoError(t, err)
	path := fmt.Sprintf("/api/projects/%d", p.ID)

	// Omitted field: thumbnail untouched.
	rr := doJSON(r, http.MethodPut, path, token, gin.H{"title": "Trip 2"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, store.lastUpdate)
	assert.False(t, store.lastUpdate.setThumbnail)

	got, err := store.Get(context.Background(), p.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, got.ThumbnailURL)
	assert.Equal(t, thumb, *got.ThumbnailURL)

	// Explicit null: thumbnail cleared.
	rr = doJSON(r, http.MethodPut, path, token, map[string]any{"title": "Trip 3", "thumbnailUrl": nil})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, store.lastUpdate.setThumbnail)
	assert.Nil(t, store.lastUpdate.thumbnail)

	got, err = store.Get(context.Background(), p.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, got.ThumbnailURL)

	// Explicit value: thumbnail replaced.
	rr = doJSON(r, http.MethodPut, path, token, gin.H{"title": "Trip 4", "thumbnailUrl": "https://cdn.example.com/new.png"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, store.lastUpdate.setThumbnail)
	require.NotNil(t, store.lastUpdate.thumbnail)
	assert.Equal(t, "https://cdn.example.com/new.png", *store.lastUpdate.thumbnail)

	events := notify.all()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, realtime.ActionUpdate, ev.Action)
		assert.Equal(t, p.ID, ev.ProjectID)
	}
}

func TestUpdateRequiresTitle(t *testing.T) {
	store := newFakeStore()
	r, issuer := newProjectsRouter(store, nil, nil)
	token := mustToken(t, issuer, 1, "a@x.com")

	p, err := store.Create(context.Background(), 1, "Trip", nil)
	require.NoError(t, err)

	rr := doJSON(r, http.MethodPut, fmt.Sprintf("/api/projects/%d", p.ID), token, gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteProject(t *testing.T) {
	store := newFakeStore()
	notify := &recordingNotifier{}
	r, issuer := newProjectsRouter(store, nil, notify)
	token := mustToken(t, issuer, 1, "a@x.com")

	p, err := store.Create(context.Background(), 1, "Trip", nil)
	require.NoError(t, err)
	path := fmt.Sprintf("/api/projects/%d", p.ID)

	rr := doJSON(r, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, store.count())
	assert.Equal(t, []realtime.Event{{Action: realtime.ActionDelete, ProjectID: p.ID}}, notify.all())

	// Second delete is NotFound and emits nothing.
	rr = doJSON(r, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Len(t, notify.all(), 1)
}

func TestRoutesRequireToken(t *testing.T) {
	r, _ := newProjectsRouter(newFakeStore(), nil, nil)

	rr := doJSON(r, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetNonNumericIDIsNotFound(t *testing.T) {
	r, issuer := newProjectsRouter(newFakeStore(), nil, nil)
	token := mustToken(t, issuer, 1, "a@x.com")

	rr := doJSON(r, http.MethodGet, "/api/projects/abc", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
