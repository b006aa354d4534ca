package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
)

const uploadField = "file"

// UploadHandler relays multipart uploads to the upload service.
type UploadHandler struct {
	service  ports.UploadService
	maxBytes int64
}

func NewUploadHandler(service ports.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{service: service, maxBytes: maxBytes}
}

// Upload handles POST /uploads.
//
// @Summary      Upload an image or video (editor, admin)
// @Tags         uploads
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Image or video, at most 10 MiB"
// @Success      201   {object}  domain.Block
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /uploads [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return fmt.Errorf("%w: multipart field %q is required", domain.ErrValidation, uploadField)
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return domain.ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	// Read one byte past the limit so oversize bodies are caught even when
	// the part header lies about the size.
	reader := io.Reader(f)
	if h.maxBytes > 0 {
		reader = io.LimitReader(f, h.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	mimeType := fh.Header.Get(echo.HeaderContentType)
	if mimeType == "" || mimeType == echo.MIMEOctetStream {
		mimeType = http.DetectContentType(data)
	}

	block, err := h.service.Upload(c.Request().Context(), ports.UploadInput{
		Filename: fh.Filename,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, block)
}
