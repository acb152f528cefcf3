package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/importers"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

const defaultMaxImportBytes = 10 << 20

// ImportResponse is returned by a completed synchronous import.
type ImportResponse struct {
	Summary   *services.Summary `json:"summary"`
	Applied   int               `json:"applied"`
	Conflicts int               `json:"conflicts"`
	Partial   bool              `json:"partial"`
}

// ImportController accepts exported user data and reconciles it into the store.
type ImportController struct {
	importer Importer
	queue    TaskQueue
	sessions SessionLister
	maxBytes int64
	logger   *zap.Logger
}

// NewImportController creates a new ImportController. queue and sessions may be nil.
func NewImportController(importer Importer, queue TaskQueue, sessions SessionLister, maxBytes int64, logger *zap.Logger) *ImportController {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImportBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportController{
		importer: importer,
		queue:    queue,
		sessions: sessions,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Import handles POST /api/import/:format
// The payload is the raw request body or a multipart "file" field.
// With ?async=true the import is enqueued and 202 is returned with the task id.
func (ic *ImportController) Import(c *gin.Context) {
	format, ok := parseFormatParam(c)
	if !ok {
		return
	}

	data, ok := ic.readPayload(c)
	if !ok {
		return
	}

	userID := GetUserID(c)

	if c.Query("async") == "true" {
		ic.enqueue(c, userID, format, data)
		return
	}

	summary, err := ic.importer.Import(c.Request.Context(), userID, format, data)
	if err != nil {
		ic.respondImportError(c, err)
		return
	}

	c.JSON(http.StatusOK, ImportResponse{
		Summary:   summary,
		Applied:   summary.Applied(),
		Conflicts: summary.Conflicts(),
		Partial:   summary.Partial(),
	})
}

// ListSessions handles GET /api/import/sessions
func (ic *ImportController) ListSessions(c *gin.Context) {
	if ic.sessions == nil {
		respondNotFound(c, "import sessions")
		return
	}
	limit, ok := parseLimitQuery(c, 20, 100)
	if !ok {
		return
	}

	sessions, err := ic.sessions.GetImportSessionsForUser(c.Request.Context(), GetUserID(c), limit)
	if err != nil {
		respondInternalError(c, err, "list import sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (ic *ImportController) readPayload(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxBytes)

	var (
		data []byte
		err  error
	)
	if c.ContentType() == "multipart/form-data" {
		data, err = readFormFile(c)
	} else {
		data, err = io.ReadAll(c.Request.Body)
	}

	if err != nil {
		if isMaxBytesError(err) {
			respondError(c, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "import payload too large",
				Code:    CodePayloadTooLarge,
				Details: gin.H{"max_bytes": ic.maxBytes},
			})
			return nil, false
		}
		respondBadRequest(c, "failed to read import payload: "+err.Error())
		return nil, false
	}

	if len(bytes.TrimSpace(data)) == 0 {
		respondError(c, http.StatusBadRequest, ErrorResponse{
			Error: "import payload is empty",
			Code:  CodeEmptyPayload,
		})
		return nil, false
	}
	return data, true
}

func readFormFile(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required: %w", err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (ic *ImportController) enqueue(c *gin.Context, userID uint, format importers.Format, data []byte) {
	if ic.queue == nil {
		respondBadRequest(c, "background tasks are disabled")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	taskID, err := ic.queue.Enqueue(ctx, tasks.ImportSnapshotTask{
		UserID:    userID,
		Format:    string(format),
		Payload:   data,
		RequestID: services.RequestIDFromContext(c.Request.Context()),
	})
	if err != nil {
		respondInternalError(c, err, "enqueue import")
		return
	}

	ic.logger.Info("import enqueued",
		zap.Uint("user_id", userID),
		zap.String("format", string(format)),
		zap.String("task_id", taskID),
		zap.Int("bytes", len(data)),
	)
	respondAccepted(c, "import enqueued", gin.H{"task_id": taskID})
}

func (ic *ImportController) respondImportError(c *gin.Context, err error) {
	var malformed *importers.MalformedInputError
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		respondError(c, http.StatusNotFound, ErrorResponse{Error: "user not found", Code: CodeUserNotFound})
	case errors.As(err, &malformed):
		details := gin.H{"format": malformed.Format}
		if malformed.Line > 0 {
			details["line"] = malformed.Line
		}
		respondError(c, http.StatusBadRequest, ErrorResponse{
			Error:   malformed.Error(),
			Code:    CodeMalformedInput,
			Details: details,
		})
	case errors.Is(err, importers.ErrUnsupportedFormat):
		respondError(c, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeUnsupportedFormat})
	default:
		respondInternalError(c, err, "import")
	}
}
