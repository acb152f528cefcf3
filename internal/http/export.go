package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/exporters"
	"github.com/mrlokans/bookshelf/internal/services"
)

// ExportController serves a user's data in the import formats.
type ExportController struct {
	exporter Exporter
}

func NewExportController(exporter Exporter) *ExportController {
	return &ExportController{exporter: exporter}
}

// Export handles GET /api/export/:format
func (ec *ExportController) Export(c *gin.Context) {
	format, ok := parseFormatParam(c)
	if !ok {
		return
	}
	userID := GetUserID(c)

	// Buffered so a failed export still gets a JSON error response.
	var buf bytes.Buffer
	if err := ec.exporter.Export(c.Request.Context(), userID, format, &buf); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, ErrorResponse{Error: "user not found", Code: CodeUserNotFound})
			return
		}
		respondInternalError(c, err, "export")
		return
	}

	filename := fmt.Sprintf("bookshelf-%d.%s", userID, format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, exporters.ContentType(format), buf.Bytes())
}
