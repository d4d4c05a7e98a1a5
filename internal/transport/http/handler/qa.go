package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sahilrm794/Context-QA/internal/app"
	"github.com/sahilrm794/Context-QA/internal/model"
	"github.com/sahilrm794/Context-QA/internal/transport/http/response"
)

const maxUploadSize = 25 << 20 // per file

type QAHandler struct {
	qaService *app.QAService
}

type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

type UploadResponse struct {
	SessionID string `json:"session_id"`
	Indexed   bool   `json:"indexed"`
	Message   string `json:"message,omitempty"`
}

func NewQAHandler(qaService *app.QAService) *QAHandler {
	return &QAHandler{qaService: qaService}
}

// Upload accepts a multipart form with one or more "files" entries,
// builds a session-scoped index, and returns the new session id.
func (h *QAHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, app.ErrNoFiles.Error())
		return
	}

	files := make([]model.UploadedFile, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxUploadSize {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 25MB)")
			return
		}
		data, err := readMultipartFile(header)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read uploaded file")
			return
		}
		name := header.Filename
		if name == "" {
			name = "file"
		}
		files = append(files, model.UploadedFile{Name: name, Data: data})
	}

	sessionID, err := h.qaService.Upload(c.Request.Context(), files)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoFiles):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}

	response.OK(c, UploadResponse{
		SessionID: sessionID,
		Indexed:   true,
		Message:   "indexing complete",
	})
}

// Chat answers a message within an existing session.
func (h *QAHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.qaService.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusBadRequest, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "chat failed")
		}
		return
	}

	response.OK(c, ChatResponse{Answer: answer})
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
