package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"coinpal/internal/logger"
	"coinpal/internal/models"
	"coinpal/internal/pinning"
	"coinpal/internal/worker"
)

const (
	msgNoFile   = "No file uploaded"
	msgTooLarge = "File too large"
	msgInternal = "Internal Server Error"
	msgBusy     = "Server is busy, please retry"
)

// multipartSlack covers boundaries and part headers around the file itself.
const multipartSlack = 64 << 10

// Handler serves the upload endpoint. It pins every uploaded file and answers
// with a time-limited gateway URL.
type Handler struct {
	pinner         pinning.Pinner
	gateway        pinning.Gateway
	maxUploadBytes int64
}

// NewHandler constructs a Handler instance.
func NewHandler(pinner pinning.Pinner, gateway pinning.Gateway, maxUploadBytes int64) *Handler {
	return &Handler{
		pinner:         pinner,
		gateway:        gateway,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)
	api := router.Group("/api")
	api.POST("/upload", h.uploadFile)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) uploadFile(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartSlack)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, models.UploadResponse{Error: msgTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, models.UploadResponse{Error: msgNoFile})
		return
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.UploadResponse{Error: msgTooLarge})
		return
	}

	cid, err := h.pin(c, header)
	if err != nil {
		if errors.Is(err, worker.ErrDispatcherBusy) {
			c.JSON(http.StatusTooManyRequests, models.UploadResponse{Error: msgBusy})
			return
		}
		logger.WithFields(logger.Fields{
			"file": header.Filename,
			"size": header.Size,
		}).Errorf("pin upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.UploadResponse{Error: msgInternal})
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{URL: h.gateway.URL(cid)})
}

func (h *Handler) pin(c *gin.Context, header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.pinner.Pin(c.Request.Context(), filepath.Base(header.Filename), f)
}
