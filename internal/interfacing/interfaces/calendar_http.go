package interfaces

import (
	"errors"
	"net/http"
	"strconv"

	"franchise-interfacing/internal/calendar"
)

// CalendarHandler serves working-day queries.
type CalendarHandler struct {
	calendar *calendar.Calendar
}

// NewCalendarHandler constructs a handler.
func NewCalendarHandler(cal *calendar.Calendar) (*CalendarHandler, error) {
	if cal == nil {
		return nil, errors.New("calendar handler: nil calendar")
	}
	return &CalendarHandler{calendar: cal}, nil
}

type workingDaysResponse struct {
	Period        calendar.Period        `json:"period"`
	WorkingDays   int                    `json:"working_days"`
	DueUntil      string                 `json:"due_until"`
	ReleaseStatus calendar.ReleaseStatus `json:"release_status,omitempty"`
}

// ServeHTTP handles GET /api/v1/calendar/working-days?period=YYYYMM[&start_day=&end_day=&release_date=].
func (h *CalendarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/calendar/working-days" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	period, err := calendar.ParsePeriod(q.Get("period"))
	if err != nil {
		http.Error(w, "period must be YYYYMM", http.StatusBadRequest)
		return
	}
	startDay, err := dayQuery(q.Get("start_day"), calendar.DefaultWindowStartDay)
	if err != nil {
		http.Error(w, "start_day must be 1-31", http.StatusBadRequest)
		return
	}
	endDay, err := dayQuery(q.Get("end_day"), calendar.DefaultWindowEndDay)
	if err != nil || endDay < startDay {
		http.Error(w, "end_day must be 1-31 and not before start_day", http.StatusBadRequest)
		return
	}
	release, err := parseDate(q.Get("release_date"))
	if err != nil {
		http.Error(w, "release_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	resp := workingDaysResponse{
		Period:      period,
		WorkingDays: h.calendar.WorkingDays(period, startDay, endDay),
		DueUntil:    calendar.DateKey(calendar.DueUntilDate(period)),
	}
	if !release.IsZero() {
		resp.ReleaseStatus = calendar.ReleaseStatusOf(period, release)
	}
	writeJSON(w, http.StatusOK, resp)
}

func dayQuery(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	day, err := strconv.Atoi(value)
	if err != nil || day < 1 || day > 31 {
		return 0, errors.New("invalid day")
	}
	return day, nil
}
