package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"mailtrace/internal/model"
	"mailtrace/internal/service"
)

// fakeRecorder 只记下收到的调用
type fakeRecorder struct {
	openCalls []string
	lastHit   service.Hit
	err       error
}

func (f *fakeRecorder) RecordOpen(_ context.Context, emailID string, hit service.Hit) (*model.EmailOpen, error) {
	f.openCalls = append(f.openCalls, emailID)
	f.lastHit = hit
	if f.err != nil {
		return nil, f.err
	}
	return &model.EmailOpen{ID: "e1", EmailID: emailID}, nil
}

func (f *fakeRecorder) RecordDownload(_ context.Context, attachmentID string, hit service.Hit) (*model.AttachmentDownload, error) {
	return &model.AttachmentDownload{ID: "d1", AttachmentID: attachmentID}, nil
}

func newPixelRouter(recorder service.EventRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/track/:id/pixel.png", TrackPixel(recorder))
	return router
}

func doPixel(router *gin.Engine, id string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/track/"+id+"/pixel.png", nil)
	r.RemoteAddr = "203.0.113.7:1234"
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	router.ServeHTTP(w, r)
	return w
}

func TestTrackPixel(t *testing.T) {
	recorder := &fakeRecorder{}
	router := newPixelRouter(recorder)

	w := doPixel(router, "00112233445566778899aabbccddeeff", map[string]string{
		"User-Agent":      "Mozilla/5.0",
		"Accept-Language": "en-US,en;q=0.9",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.NotEmpty(t, w.Body.Bytes())

	assert.Equal(t, []string{"00112233445566778899aabbccddeeff"}, recorder.openCalls)
	assert.Equal(t, "203.0.113.7", recorder.lastHit.IP)
	assert.Equal(t, "en-US", recorder.lastHit.Language)
}

func TestTrackPixelUnknownEmail(t *testing.T) {
	// 记录失败时照样返回200和图片
	recorder := &fakeRecorder{err: service.ErrNotFound}
	router := newPixelRouter(recorder)

	w := doPixel(router, "00112233445566778899aabbccddeeff", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestTrackPixelInvalidID(t *testing.T) {
	recorder := &fakeRecorder{}
	router := newPixelRouter(recorder)

	// 格式不合法的ID不进记录流程，但仍有图片
	w := doPixel(router, "not-a-tracking-id", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, recorder.openCalls, 0)
}
