package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sport_sessions/internal/booking"
)

type ReportService interface {
	ActivityReport(ctx context.Context, from, to time.Time) (*booking.ActivityReport, error)
}

type ReportController struct {
	svc ReportService
}

func NewReportController(svc ReportService) *ReportController {
	return &ReportController{svc: svc}
}

const dateLayout = "2006-01-02"

// parseReportDate accepts YYYY-MM-DD or RFC3339. A bare end date covers the
// whole day.
func parseReportDate(raw string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD or RFC3339 date", raw)
	}
	if end {
		d = d.Add(24*time.Hour - time.Microsecond)
	}
	return d, nil
}

// ActivityReport handles GET /admin/reports?start_date=&end_date=.
func (h *ReportController) ActivityReport(c *gin.Context) {
	rawFrom, rawTo := c.Query("start_date"), c.Query("end_date")
	if rawFrom == "" || rawTo == "" {
		badRequest(c, "start_date and end_date are required")
		return
	}
	from, err := parseReportDate(rawFrom, false)
	if err != nil {
		badRequest(c, "start_date: "+err.Error())
		return
	}
	to, err := parseReportDate(rawTo, true)
	if err != nil {
		badRequest(c, "end_date: "+err.Error())
		return
	}

	report, err := h.svc.ActivityReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
