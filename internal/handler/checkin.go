package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkin/internal/attendance"
	"checkin/internal/metrics"
)

// phoneField accepts the phone number as a JSON string or a bare number.
type phoneField string

func (p *phoneField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = phoneField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("Field 'phone_number' should be a string or number")
	}
	*p = phoneField(n.String())
	return nil
}

type checkInRequest struct {
	PhoneNumber phoneField `json:"phone_number"`
	Name        string `json:"name"`
	CollegeName string `json:"college_name"`
	Title       string `json:"title"`
	Category    string `json:"category"`
}

func (h *Handler) checkIn(c *gin.Context) {
	var req checkInRequest
	// An empty body falls through to "Phone number is required".
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.metrics.CheckIn(metrics.OutcomeInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": FormatBindingError(err)})
		return
	}

	res, err := h.attendance.CheckIn(c.Request.Context(), attendance.CheckInInput{
		PhoneNumber: string(req.PhoneNumber),
		Name:        req.Name,
		CollegeName: req.CollegeName,
		Title:       req.Title,
		Category:    req.Category,
	})

	var (
		ve  *attendance.ValidationError
		dup *attendance.DuplicateError
	)
	switch {
	case errors.As(err, &ve):
		h.metrics.CheckIn(metrics.OutcomeInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		return
	case errors.As(err, &dup):
		h.metrics.CheckIn(metrics.OutcomeDuplicate)
		c.JSON(http.StatusConflict, gin.H{"message": "Already checked in today", "data": dup.Existing})
		return
	case err != nil:
		h.metrics.CheckIn(metrics.OutcomeError)
		h.logger.Error("check-in failed", zap.Error(err), zap.String("phone_number", string(req.PhoneNumber)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error during check-in"})
		return
	}

	msg := "Successfully registered"
	switch {
	case !res.Created:
		h.metrics.CheckIn(metrics.OutcomeUpdated)
		msg = "Record updated and attendance marked as present"
	case h.attendance.Policy() == attendance.PolicyDaily:
		h.metrics.CheckIn(metrics.OutcomeCreated)
		msg = "Attendance marked successfully"
	default:
		h.metrics.CheckIn(metrics.OutcomeCreated)
	}

	body := gin.H{"message": msg, "phone_number": res.Record.PhoneNumber}
	if res.Record.RegistrationID != "" {
		body["registration_id"] = res.Record.RegistrationID
	}
	c.JSON(http.StatusOK, body)
}
