package http

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/covers"
)

type fakeCoverStore struct {
	files       map[string]string
	invalidated []string
}

func (f *fakeCoverStore) GetCover(isbn string) (string, error) {
	path, ok := f.files[isbn]
	if !ok {
		return "", covers.ErrNoCover
	}
	return path, nil
}

func (f *fakeCoverStore) InvalidateCover(isbn string) error {
	f.invalidated = append(f.invalidated, isbn)
	delete(f.files, isbn)
	return nil
}

type fakeCoverWarmer struct {
	warmed []string
}

func (f *fakeCoverWarmer) EnqueueCoverFetch(isbn string) error {
	f.warmed = append(f.warmed, isbn)
	return nil
}

func coversRouter(store *fakeCoverStore, warmer CoverWarmer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewCoversController(store, warmer)

	router := gin.New()
	router.GET("/covers/:isbn", controller.GetCover)
	router.DELETE("/api/covers/:isbn", controller.InvalidateCover)
	return router
}

func TestGetCoverServesCachedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "9783161484100.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	store := &fakeCoverStore{files: map[string]string{"9783161484100": path}}
	router := coversRouter(store, nil)

	w := doJSON(t, router, http.MethodGet, "/covers/9783161484100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("cache-control = %q", cc)
	}
	if w.Body.String() != "jpeg bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestGetCoverMissingIs404(t *testing.T) {
	router := coversRouter(&fakeCoverStore{files: map[string]string{}}, nil)

	w := doJSON(t, router, http.MethodGet, "/covers/000", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestInvalidateCoverSchedulesRefetch(t *testing.T) {
	store := &fakeCoverStore{files: map[string]string{"9783161484100": "/tmp/x.jpg"}}
	warmer := &fakeCoverWarmer{}
	router := coversRouter(store, warmer)

	w := doJSON(t, router, http.MethodDelete, "/api/covers/9783161484100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(store.invalidated) != 1 || store.invalidated[0] != "9783161484100" {
		t.Errorf("invalidated = %v", store.invalidated)
	}
	if len(warmer.warmed) != 1 || warmer.warmed[0] != "9783161484100" {
		t.Errorf("warmed = %v", warmer.warmed)
	}
}
