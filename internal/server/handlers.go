package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/thurmanmarka/duskgrid"
	"github.com/thurmanmarka/duskgrid/internal/report"
)

const (
	formatJSON = "json"
	formatFull = "full"
	formatCSV  = "csv"
	formatText = "text"
)

// scheduleQuery is a parsed /v1/schedule request.
type scheduleQuery struct {
	coords  duskgrid.Coordinates
	tz      string
	loc     *time.Location
	start   *civil.Date
	days    int
	samples int
	format  string
}

func (s *Server) parseScheduleQuery(v url.Values) (scheduleQuery, error) {
	q := scheduleQuery{
		tz:      s.cfg.TimeZone,
		days:    s.cfg.Days,
		samples: s.cfg.Samples,
		format:  formatJSON,
	}
	var err error
	if q.coords.Lat, err = requiredFloat(v, "lat"); err != nil {
		return q, err
	}
	if q.coords.Lon, err = requiredFloat(v, "lon"); err != nil {
		return q, err
	}
	if tz := v.Get("tz"); tz != "" {
		q.tz = tz
	}
	if q.loc, err = time.LoadLocation(q.tz); err != nil {
		return q, fmt.Errorf("unknown time zone %q", q.tz)
	}
	if start := v.Get("start"); start != "" {
		d, err := civil.ParseDate(start)
		if err != nil {
			return q, fmt.Errorf("start %q is not a YYYY-MM-DD date", start)
		}
		q.start = &d
	}
	if q.days, err = optionalInt(v, "days", q.days); err != nil {
		return q, err
	}
	if q.days < 0 || q.days > s.cfg.HTTP.MaxDays {
		return q, fmt.Errorf("days %d outside [0, %d]", q.days, s.cfg.HTTP.MaxDays)
	}
	if q.samples, err = optionalInt(v, "samples", q.samples); err != nil {
		return q, err
	}
	if q.samples > s.cfg.HTTP.MaxSamples {
		return q, fmt.Errorf("samples %d above limit %d", q.samples, s.cfg.HTTP.MaxSamples)
	}
	if f := strings.ToLower(v.Get("format")); f != "" {
		switch f {
		case formatJSON, formatFull, formatCSV, formatText:
			q.format = f
		default:
			return q, fmt.Errorf("unsupported format %q", f)
		}
	}
	return q, nil
}

func requiredFloat(v url.Values, name string) (float64, error) {
	raw := v.Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s %q is not a number", name, raw)
	}
	return f, nil
}

func optionalInt(v url.Values, name string, def int) (int, error) {
	raw := v.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", name, raw)
	}
	return n, nil
}

// cacheKey identifies the response for q. Without an explicit start the
// dates depend on the current year, which is folded into the key.
func (q scheduleQuery) cacheKey(now time.Time) string {
	start := "year:" + strconv.Itoa(now.UTC().Year())
	if q.start != nil {
		start = q.start.String()
	}
	return fmt.Sprintf("%.6f,%.6f|%s|%s|%d|%d|%s",
		q.coords.Lat, q.coords.Lon, q.tz, start, q.days, q.samples, q.format)
}

func (q scheduleQuery) request(now time.Time) duskgrid.Request {
	var offsets []int
	if q.days > 0 {
		offsets = make([]int, q.days)
		for i := range offsets {
			offsets[i] = i
		}
	}
	return duskgrid.Request{
		Location:   q.coords,
		Offsets:    duskgrid.CachedOffsets(duskgrid.LocationOffsets(q.loc), 0),
		Start:      q.start,
		DayOffsets: offsets,
		Reference:  civil.DateOf(now.UTC()),
	}
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseScheduleQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now := s.now()
	key := q.cacheKey(now)
	if s.cache != nil {
		if resp, ok := s.cache.GetIfPresent(key); ok {
			s.metrics.cache.WithLabelValues("hit").Inc()
			w.Header().Set("X-Cache", "hit")
			writeBody(w, resp)
			return
		}
		s.metrics.cache.WithLabelValues("miss").Inc()
	}

	resp, err := s.render(r.Context(), q, now)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, context.Canceled) {
			s.logger.Debug().Err(err).Msg("schedule request canceled")
		} else if status >= http.StatusInternalServerError {
			s.logger.Error().Err(err).Str("query", r.URL.RawQuery).Msg("schedule request failed")
		}
		writeError(w, status, err.Error())
		return
	}
	if s.cache != nil {
		s.cache.Set(key, resp)
		w.Header().Set("X-Cache", "miss")
	}
	writeBody(w, resp)
}

func (s *Server) render(ctx context.Context, q scheduleQuery, now time.Time) (cachedResponse, error) {
	opts := append(slices.Clone(s.baseOpts),
		duskgrid.WithSampleCount(q.samples),
		duskgrid.WithMetrics(s.registry),
		duskgrid.WithLogger(s.logger),
		duskgrid.WithClock(s.now),
	)
	computer, err := duskgrid.NewComputer(opts...)
	if err != nil {
		return cachedResponse{}, err
	}
	res, err := computer.Compute(ctx, q.request(now))
	if err != nil {
		return cachedResponse{}, err
	}

	var buf bytes.Buffer
	resp := cachedResponse{contentType: "application/json"}
	switch q.format {
	case formatFull:
		err = report.WriteJSON(&buf, res)
	case formatCSV:
		resp.contentType = "text/csv; charset=utf-8"
		err = report.WriteCSV(&buf, report.Summarize(res))
	case formatText:
		resp.contentType = "text/plain; charset=utf-8"
		err = report.WriteText(&buf, report.Summarize(res), report.TextOptions{StripWidth: 48})
	default:
		err = report.WriteJSON(&buf, report.NewSummary(res, q.tz))
	}
	if err != nil {
		return cachedResponse{}, fmt.Errorf("render %s: %w", q.format, err)
	}
	resp.body = buf.Bytes()
	return resp, nil
}

type bandInfo struct {
	Band       string   `json:"band"`
	Index      int      `json:"index"`
	LowerBound *float64 `json:"lower_bound"` // degrees; null for night
}

func (s *Server) handleBands(w http.ResponseWriter, _ *http.Request) {
	classifier, err := duskgrid.NewClassifier(s.cfg.Thresholds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]bandInfo, 0, duskgrid.NumBands)
	for _, b := range duskgrid.Bands() {
		info := bandInfo{Band: b.String(), Index: int(b)}
		if lb := classifier.LowerBound(b); !math.IsInf(lb, 0) {
			info.LowerBound = &lb
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps computation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, duskgrid.ErrInvalidLocation),
		errors.Is(err, duskgrid.ErrInvalidRange),
		errors.Is(err, duskgrid.ErrEmptySample):
		return http.StatusBadRequest
	case errors.Is(err, duskgrid.ErrProviderFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeBody(w http.ResponseWriter, resp cachedResponse) {
	w.Header().Set("Content-Type", resp.contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
