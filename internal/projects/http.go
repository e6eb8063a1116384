package projects

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lighted-app/lighted-backend/internal/auth"
	"github.com/lighted-app/lighted-backend/internal/realtime"
)

// Store is the persistence the handlers need. *Repo satisfies it; tests plug
// in fakes.
type Store interface {
	List(ctx context.Context, ownerID int64) ([]Project, error)
	Get(ctx context.Context, id, ownerID int64) (*Project, error)
	Create(ctx context.Context, ownerID int64, title string, thumbnailURL *string) (*Project, error)
	Update(ctx context.Context, id, ownerID int64, title string, thumbnailURL *string, setThumbnail bool) (int64, error)
	Delete(ctx context.Context, id, ownerID int64) (int64, error)
}

// Uploader stores an inline-encoded image and returns a durable URL.
type Uploader interface {
	UploadImage(ctx context.Context, dataURL string) (string, error)
}

// Notifier receives fire-and-forget change events after a mutation commits.
type Notifier interface {
	ProjectsChanged(action string, projectID int64)
}

type Handler struct {
	store   Store
	uploads Uploader
	notify  Notifier
}

func NewHandler(store Store, uploads Uploader, notify Notifier) *Handler {
	return &Handler{store: store, uploads: uploads, notify: notify}
}

// Register wires the project CRUD routes. rg must already be gated by
// auth.RequireUser.
func Register(rg *gin.RouterGroup, h *Handler) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

// OptionalString distinguishes an omitted JSON field from an explicit null,
// so PUT can leave the thumbnail untouched when the field is absent.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// resolveThumbnail uploads inline image payloads to the object store and
// passes plain references through untouched.
func (h *Handler) resolveThumbnail(ctx context.Context, ref *string) (*string, error) {
	if ref == nil || !strings.HasPrefix(*ref, "data:image") {
		return ref, nil
	}
	if h.uploads == nil {
		return nil, errors.New("no uploader configured")
	}
	url, err := h.uploads.UploadImage(ctx, *ref)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

func (h *Handler) changed(action string, projectID int64) {
	if h.notify != nil {
		h.notify.ProjectsChanged(action, projectID)
	}
}

func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

func (h *Handler) list(c *gin.Context) {
	identity, _ := auth.CurrentUser(c)

	items, err := h.store.List(c.Request.Context(), identity.ID)
	if err != nil {
		log.Printf("list projects failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch projects"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) get(c *gin.Context) {
	identity, _ := auth.CurrentUser(c)

	id, ok := projectID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return
	}

	p, err := h.store.Get(c.Request.Context(), id, identity.ID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return
	}
	if err != nil {
		log.Printf("get project failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch project"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type createReq struct {
	Title        string  `json:"title"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

func (h *Handler) create(c *gin.Context) {
	identity, _ := auth.CurrentUser(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title is required"})
		return
	}

	thumb, err := h.resolveThumbnail(c.Request.Context(), req.ThumbnailURL)
	if err != nil {
		log.Printf("thumbnail upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload image"})
		return
	}

	p, err := h.store.Create(c.Request.Context(), identity.ID, strings.TrimSpace(req.Title), thumb)
	if err != nil {
		log.Printf("create project failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create project"})
		return
	}

	h.changed(realtime.ActionCreate, p.ID)
	c.JSON(http.StatusCreated, p)
}

type updateReq struct {
	Title        string         `json:"title"`
	ThumbnailURL OptionalString `json:"thumbnailUrl"`
}

func (h *Handler) update(c *gin.Context) {
	identity, _ := auth.CurrentUser(c)

	id, ok := projectID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title is required"})
		return
	}

	thumb := req.ThumbnailURL.Value
	if req.ThumbnailURL.Set {
		var err error
		thumb, err = h.resolveThumbnail(c.Request.Context(), thumb)
		if err != nil {
			log.Printf("thumbnail upload failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload image"})
			return
		}
	}

	changes, err := h.store.Update(c.Request.Context(), id, identity.ID, strings.TrimSpace(req.Title), thumb, req.ThumbnailURL.Set)
	if err != nil {
		log.Printf("update project failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating project"})
		return
	}
	if changes == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return
	}

	h.changed(realtime.ActionUpdate, id)
	c.JSON(http.StatusOK, gin.H{"message": "Project updated", "changes": changes})
}

func (h *Handler) delete(c *gin.Context) {
	identity, _ := auth.CurrentUser(c)

	id, ok := projectID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return
	}

	changes, err := h.store.Delete(c.Request.Context(), id, identity.ID)
	if err != nil {
		log.Printf("delete project failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting project"})
		return
	}
	if changes == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return
	}

	h.changed(realtime.ActionDelete, id)
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted", "changes": changes})
}
