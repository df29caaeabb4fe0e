package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkin/internal/attendance"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (h *Handler) listAttendance(c *gin.Context) {
	var (
		l   attendance.Listing
		err error
	)
	if h.attendance.Policy() == attendance.PolicyDaily {
		l, err = h.attendance.ListByDate(c.Request.Context(), h.attendance.Today())
	} else {
		l, err = h.attendance.List(c.Request.Context())
	}
	if err != nil {
		h.logger.Error("attendance fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching attendance data"})
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) listAttendanceByDate(c *gin.Context) {
	l, err := h.attendance.ListByDate(c.Request.Context(), c.Param("date"))
	var ve *attendance.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		return
	case err != nil:
		h.logger.Error("attendance fetch failed", zap.Error(err), zap.String("date", c.Param("date")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching attendance data"})
		return
	}
	c.JSON(http.StatusOK, l)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record id"})
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	err = h.attendance.UpdateStatus(c.Request.Context(), id, req.Status)
	var ve *attendance.ValidationError
	switch {
	case errors.Is(err, attendance.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		return
	case errors.Is(err, attendance.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	case err != nil:
		h.logger.Error("status update failed", zap.Error(err), zap.Int64("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating status"})
		return
	}
	h.logger.Info("attendance status updated", zap.Int64("id", id), zap.String("status", req.Status))
	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully"})
}

type exportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=csv xlsx"`
	Date   string `form:"date"`
}

// records loads the export rows: one date when given, everything otherwise.
func (h *Handler) records(c *gin.Context, date string) ([]attendance.Record, bool) {
	var (
		l   attendance.Listing
		err error
	)
	if date != "" {
		l, err = h.attendance.ListByDate(c.Request.Context(), date)
	} else {
		l, err = h.attendance.List(c.Request.Context())
	}
	var ve *attendance.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		return nil, false
	case err != nil:
		h.logger.Error("export fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching attendance data"})
		return nil, false
	}
	return l.Data, true
}

func exportName(date, ext string) string {
	if date == "" {
		date = "all-dates"
	}
	return "attendance-" + date + "." + ext
}

func (h *Handler) export(c *gin.Context) {
	var q exportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": FormatBindingError(err)})
		return
	}
	if q.Format == "" {
		q.Format = "csv"
	}
	records, ok := h.records(c, q.Date)
	if !ok {
		return
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch q.Format {
	case "xlsx":
		err = attendance.WriteXLSX(&buf, records)
		contentType = xlsxContentType
	default:
		err = attendance.WriteCSV(&buf, records)
		contentType = csvContentType
	}
	if err != nil {
		h.logger.Error("export render failed", zap.Error(err), zap.String("format", q.Format))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error exporting attendance data"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportName(q.Date, q.Format)+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) archiveExport(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive storage not configured"})
		return
	}
	date := c.Query("date")
	records, ok := h.records(c, date)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := attendance.WriteCSV(&buf, records); err != nil {
		h.logger.Error("export render failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error exporting attendance data"})
		return
	}
	obj, err := h.archive.PutCSV(c.Request.Context(), buf.Bytes())
	if err != nil {
		h.logger.Error("archive upload failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "archive upload failed"})
		return
	}
	h.logger.Info("attendance archived", zap.String("bucket", obj.Bucket), zap.String("key", obj.Key), zap.Int("rows", len(records)))
	c.JSON(http.StatusOK, obj)
}
