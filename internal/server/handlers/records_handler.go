package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// RecordWriter inserts documents into the backing store.
type RecordWriter interface {
	Insert(ctx context.Context, collection string, record models.Record) (string, error)
}

// Invalidator is told about every successful write.
type Invalidator interface {
	Invalidate(collection string)
}

// RecordsHandler accepts dashboard form submissions.
type RecordsHandler struct {
	writer      RecordWriter
	invalidator Invalidator
	logger      *zap.Logger
}

// NewRecordsHandler constructs the HTTP handler adapter.
func NewRecordsHandler(writer RecordWriter, invalidator Invalidator, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{writer: writer, invalidator: invalidator, logger: logger}
}

// Create inserts the JSON body into :collection and invalidates analytics.
func (h *RecordsHandler) Create(c *gin.Context) {
	collection := c.Param("collection")
	if !models.IsCollection(collection) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
		return
	}

	var record models.Record
	if err := c.ShouldBindJSON(&record); err != nil || len(record) == 0 {
		h.logger.Warn("invalid record payload", zap.String("collection", collection), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.writer.Insert(c.Request.Context(), collection, record)
	if err != nil {
		h.logger.Error("failed inserting record", zap.String("collection", collection), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to store record"})
		return
	}
	h.invalidator.Invalidate(collection)

	c.JSON(http.StatusCreated, models.InsertRecordResponse{ID: id, Collection: collection})
}
