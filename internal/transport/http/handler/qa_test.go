package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilrm794/Context-QA/internal/app"
	"github.com/sahilrm794/Context-QA/internal/index"
	"github.com/sahilrm794/Context-QA/internal/model"
	"github.com/sahilrm794/Context-QA/internal/session"
)

type stubIngestor struct {
	id string
}

func (s *stubIngestor) Ingest(context.Context, []model.UploadedFile, index.SearchOptions) (string, error) {
	return s.id, nil
}

type stubEngine struct {
	answer string
}

func (s *stubEngine) Answer(context.Context, string, []model.Turn) (string, error) {
	return s.answer, nil
}

type stubLoader struct {
	engine *stubEngine
}

func (s *stubLoader) LoadIndex(string, index.SearchOptions) (app.AnswerEngine, error) {
	return s.engine, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *session.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	layout := session.Layout{
		IndexRoot: filepath.Join(root, "index"),
		DataRoot:  filepath.Join(root, "data"),
	}
	require.NoError(t, os.MkdirAll(layout.IndexRoot, 0o755))
	require.NoError(t, os.MkdirAll(layout.DataRoot, 0o755))

	log := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	registry := session.NewRegistry()
	reaper := session.NewReaper(layout, 24*time.Hour, log)
	svc := app.NewQAService(layout, registry, reaper,
		&stubIngestor{id: "sess-http"},
		&stubLoader{engine: &stubEngine{answer: "42"}},
		index.SearchOptions{}, index.SearchOptions{}, log)

	qaHandler := NewQAHandler(svc)
	healthHandler := NewHealthHandler("context-qa", "test", layout.IndexRoot, layout.DataRoot, time.Now())

	router := gin.New()
	api := router.Group("/api")
	api.GET("/healthcheck", healthHandler.Check)
	api.POST("/upload", qaHandler.Upload)
	api.POST("/chat", qaHandler.Chat)
	return router, registry
}

func multipartUpload(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("file body"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthcheck(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestUploadEndpoint(t *testing.T) {
	t.Run("returns session id", func(t *testing.T) {
		router, registry := newTestRouter(t)
		body, contentType := multipartUpload(t, "A.pdf")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Code int            `json:"code"`
			Data UploadResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "sess-http", resp.Data.SessionID)
		assert.True(t, resp.Data.Indexed)
		assert.True(t, registry.Has("sess-http"))
	})

	t.Run("no files is a client error", func(t *testing.T) {
		router, _ := newTestRouter(t)
		body, contentType := multipartUpload(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestChatEndpoint(t *testing.T) {
	uploadFirst := func(t *testing.T, router *gin.Engine) {
		t.Helper()
		body, contentType := multipartUpload(t, "A.pdf")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("answers within an uploaded session", func(t *testing.T) {
		router, registry := newTestRouter(t)
		uploadFirst(t, router)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat",
			strings.NewReader(`{"session_id":"sess-http","message":"hello"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data ChatResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "42", resp.Data.Answer)

		history, ok := registry.History("sess-http")
		require.True(t, ok)
		require.Len(t, history, 2)
		assert.Equal(t, "hello", history[0].Content)
		assert.Equal(t, "42", history[1].Content)
	})

	t.Run("unknown session rejected without mutation", func(t *testing.T) {
		router, registry := newTestRouter(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat",
			strings.NewReader(`{"session_id":"made-up","message":"hello"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, registry.Len())
	})

	t.Run("empty message rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)
		uploadFirst(t, router)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat",
			strings.NewReader(`{"session_id":"sess-http","message":"  "}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed payload rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
