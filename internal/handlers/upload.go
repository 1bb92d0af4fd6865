package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"redvibe/internal/middleware"
	"redvibe/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 表单里除文件外的描述等字段的余量
const multipartOverhead = 1 << 20

type UploadHandler struct {
	interactions *services.Interactions
	maxBytes     int64
	log          *zap.Logger
}

func NewUploadHandler(interactions *services.Interactions, maxBytes int64, log *zap.Logger) *UploadHandler {
	return &UploadHandler{interactions: interactions, maxBytes: maxBytes, log: log}
}

func (h *UploadHandler) Show(c *gin.Context) {
	Render(c, http.StatusOK, "upload.html", gin.H{
		"Title":    "Upload",
		"MaxBytes": h.maxBytes,
	})
}

// Create POST /upload/
func (h *UploadHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			rej := &services.RejectionError{Reason: services.RejectTooLarge, Detail: services.FormatMB(h.maxBytes)}
			redirectWithFlash(c, "/upload/", FlashError, rej.Message())
			return
		}
		if errors.Is(err, http.ErrMissingFile) {
			redirectWithFlash(c, "/upload/", FlashError, "Please choose a file to upload.")
			return
		}
		// 请求体读到一半断开或超时
		h.log.Warn("read upload body", zap.Uint("user_id", user.ID), zap.Error(err))
		redirectWithFlash(c, "/upload/", FlashError, "The upload was interrupted. Please try again.")
		return
	}

	post, err := h.interactions.Upload(c.Request.Context(), user, fileSource(header), c.PostForm("description"))
	if err != nil {
		var rej *services.RejectionError
		switch {
		case errors.As(err, &rej):
			redirectWithFlash(c, "/upload/", FlashError, rej.Message())
		case errors.Is(err, services.ErrValidation):
			redirectWithFlash(c, "/upload/", FlashError, "Please choose a file to upload.")
		default:
			h.log.Error("upload failed", zap.Uint("user_id", user.ID), zap.String("file", header.Filename), zap.Error(err))
			redirectWithFlash(c, "/upload/", FlashError, "Upload failed. Please try again.")
		}
		return
	}

	h.log.Debug("upload stored", zap.Uint("post_id", post.ID))
	redirectWithFlash(c, "/", FlashSuccess, "Upload successful!")
}

func fileSource(header *multipart.FileHeader) services.UploadSource {
	return services.UploadSource{
		Name: header.Filename,
		Size: header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}
