// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/archive"
	"github.com/tomtom215/tidewatch/internal/config"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/dispatch"
	"github.com/tomtom215/tidewatch/internal/ingest"
	"github.com/tomtom215/tidewatch/internal/models"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	handler    *Handler
	server     http.Handler
	store      *tracking.Store
	correlator *alerts.Correlator
	engine     *detection.Engine
	dispatcher *dispatch.Dispatcher
}

type envOption func(*Deps, *ChiMiddlewareConfig)

func withArchive(a *archive.Archive) envOption {
	return func(d *Deps, _ *ChiMiddlewareConfig) { d.Archive = a }
}

func withRateLimit(n int) envOption {
	return func(_ *Deps, m *ChiMiddlewareConfig) { m.IngestRateLimit = n }
}

func withCheck(name string, err error) envOption {
	return func(d *Deps, _ *ChiMiddlewareConfig) {
		d.Checks = append(d.Checks, ReadinessCheck{Name: name, Check: func(ctx context.Context) error { return err }})
	}
}

func withoutDispatcher() envOption {
	return func(d *Deps, _ *ChiMiddlewareConfig) { d.Dispatcher = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store := tracking.NewStore()
	correlator := alerts.NewCorrelator()
	engine := detection.NewDefaultEngine(store, nil)
	dispatcher := dispatch.NewDispatcher(dispatch.DefaultConfig(), nil)

	deps := Deps{
		Store:      store,
		Correlator: correlator,
		Engine:     engine,
		Dispatcher: dispatcher,
		Config:     config.Default(),
	}
	mw := DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = []string{"*"}
	mw.IngestRateLimit = 0
	for _, opt := range opts {
		opt(&deps, mw)
	}

	var notifier ingest.Notifier
	if deps.Dispatcher != nil {
		notifier = deps.Dispatcher
	}
	deps.Ingestor = ingest.NewIngestor(store, engine, correlator, notifier)

	h := NewHandler(deps)
	return &testEnv{
		handler:    h,
		server:     NewRouter(h, mw).SetupChi(),
		store:      store,
		correlator: correlator,
		engine:     engine,
		dispatcher: deps.Dispatcher,
	}
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode envelope: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, env envelope, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	if env.Status != models.StatusError || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %s, want %s", env.Error.Code, code)
	}
}

func reportJSON(id string, lat, lon, speed, course float64, at time.Time) string {
	return fmt.Sprintf(`{"vesselId":%q,"latitude":%v,"longitude":%v,"speedKnots":%v,"courseDegrees":%v,"headingDegrees":%v,"timestamp":%q}`,
		id, lat, lon, speed, course, course, at.Format(time.RFC3339Nano))
}

func TestIngestReport(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999001", 10, 70, 12, 90, t0))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%s)", rec.Code, rec.Body.String())
	}
	var ack models.IngestResponse
	decodeData(t, resp, &ack)
	if ack.Outcome != "applied" || ack.VesselID != "366999001" {
		t.Errorf("ack = %+v", ack)
	}
	if resp.Metadata.RequestID == "" {
		t.Error("metadata.request_id not set")
	}

	// Older than the last report: dropped, not an error.
	rec, resp = env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999001", 10.1, 70, 12, 90, t0.Add(-time.Second)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("stale status = %d, want 202", rec.Code)
	}
	decodeData(t, resp, &ack)
	if ack.Outcome != "stale" {
		t.Errorf("outcome = %s, want stale", ack.Outcome)
	}
	track, _ := env.store.Get("366999001")
	if track.Position.Lat != 10 {
		t.Errorf("stale report changed the track: %+v", track.Position)
	}
}

func TestIngestReportRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code string
	}{
		{"latitude out of range", reportJSON("366999001", 95, 70, 12, 90, t0), ErrCodeInvalidReport},
		{"longitude out of range", reportJSON("366999001", 10, 181, 12, 90, t0), ErrCodeInvalidReport},
		{"negative speed", reportJSON("366999001", 10, 70, -1, 90, t0), ErrCodeInvalidReport},
		{"blank vessel id", reportJSON("", 10, 70, 12, 90, t0), ErrCodeInvalidReport},
		{"missing timestamp", `{"vesselId":"366999001","latitude":10,"longitude":70}`, ErrCodeInvalidReport},
		{"malformed json", `{"vesselId":`, ErrCodeBadRequest},
		{"unknown field", `{"vesselId":"366999001","lat":10}`, ErrCodeBadRequest},
		{"empty body", "", ErrCodeBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			rec, resp := env.do(t, http.MethodPost, "/api/v1/reports", tt.body)
			expectError(t, rec, resp, http.StatusBadRequest, tt.code)
			if env.store.Len() != 0 {
				t.Errorf("rejected report created a track")
			}
		})
	}
}

func TestIngestReportCreatesCollisionAlert(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("V1", 10.0, 70.0, 15, 90, t0))
	rec, resp := env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("V2", 10.0, 70.2, 15, 270, t0))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}

	var ack models.IngestResponse
	decodeData(t, resp, &ack)
	if len(ack.Alerts) != 1 {
		t.Fatalf("alerts = %+v, want one collision change", ack.Alerts)
	}
	if ack.Alerts[0].Kind != detection.KindCollisionRisk || ack.Alerts[0].Change != alerts.ChangeCreated {
		t.Errorf("alert change = %+v", ack.Alerts[0])
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/alerts?kind=collision_risk", "")
	var list []alerts.Alert
	decodeData(t, resp, &list)
	if len(list) != 1 {
		t.Fatalf("collision alerts = %d, want 1", len(list))
	}
	if resp.Metadata.Count == nil || *resp.Metadata.Count != 1 {
		t.Errorf("metadata.count = %v, want 1", resp.Metadata.Count)
	}
}

func TestIngestBatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	body := "[" + strings.Join([]string{
		reportJSON("366999001", 10, 70, 5, 0, t0),
		reportJSON("366999001", 10.001, 70, 5, 0, t0.Add(time.Minute)),
		reportJSON("366999001", 10.002, 70, 5, 0, t0.Add(-time.Minute)),
		reportJSON("366999002", 95, 70, 5, 0, t0),
	}, ",") + "]"

	rec, resp := env.do(t, http.MethodPost, "/api/v1/reports/batch", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var got models.BatchResponse
	decodeData(t, resp, &got)
	want := models.BatchResponse{Applied: 2, Stale: 1, Invalid: 1}
	if got != want {
		t.Errorf("batch = %+v, want %+v", got, want)
	}
}

func TestIngestBatchTooLarge(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	parts := make([]string, maxBatchSize+1)
	for i := range parts {
		parts[i] = reportJSON("366999001", 10, 70, 5, 0, t0.Add(time.Duration(i)*time.Second))
	}
	rec, resp := env.do(t, http.MethodPost, "/api/v1/reports/batch", "["+strings.Join(parts, ",")+"]")
	expectError(t, rec, resp, http.StatusBadRequest, ErrCodeValidation)
	if env.store.Len() != 0 {
		t.Error("oversized batch was partially applied")
	}
}

func dischargeJSON(vessel string, confidence float64) string {
	return fmt.Sprintf(`{"vesselId":%q,"confidence":%v,"source":"sentinel-1","detail":"slick 2km astern","observedAt":%q}`,
		vessel, confidence, t0.Format(time.RFC3339))
}

func TestObserveDischarge(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999001", 10, 70, 3, 0, t0))

	rec, resp := env.do(t, http.MethodPost, "/api/v1/observations/discharge", dischargeJSON("366999001", 0.9))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var got models.DischargeResponse
	decodeData(t, resp, &got)
	if !got.Triggered || got.Alert == nil {
		t.Fatalf("response = %+v, want triggered alert", got)
	}
	if got.Alert.Kind != detection.KindIllegalDischarge || got.Alert.Severity != alerts.SeverityCritical {
		t.Errorf("alert = %s/%s", got.Alert.Kind, got.Alert.Severity)
	}
	if got.Alert.Position == nil || got.Alert.Position.Lat != 10 {
		t.Errorf("position = %v, want last known track position", got.Alert.Position)
	}

	_, resp = env.do(t, http.MethodPost, "/api/v1/observations/discharge", dischargeJSON("366999001", 0.05))
	decodeData(t, resp, &got)
	if got.Triggered {
		t.Error("low-confidence observation triggered an alert")
	}

	rec, resp = env.do(t, http.MethodPost, "/api/v1/observations/discharge", dischargeJSON("366999001", 1.5))
	expectError(t, rec, resp, http.StatusBadRequest, ErrCodeValidation)
}

// createDischargeAlert returns a critical alert through the public API.
func createDischargeAlert(t *testing.T, env *testEnv, vessel string) alerts.Alert {
	t.Helper()
	_, resp := env.do(t, http.MethodPost, "/api/v1/observations/discharge", dischargeJSON(vessel, 0.9))
	var got models.DischargeResponse
	decodeData(t, resp, &got)
	if got.Alert == nil {
		t.Fatalf("discharge did not create an alert: %s", resp.Data)
	}
	return *got.Alert
}

func TestAlertLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	a := createDischargeAlert(t, env, "366999001")
	base := "/api/v1/alerts/" + a.ID

	steps := []struct {
		action     string
		wantStatus int
		wantCode   string
		wantAlert  alerts.Status
	}{
		{"acknowledge", http.StatusOK, "", alerts.StatusAcknowledged},
		{"acknowledge", http.StatusOK, "", alerts.StatusAcknowledged},
		{"resolve", http.StatusOK, "", alerts.StatusResolved},
		{"resolve", http.StatusOK, "", alerts.StatusResolved},
		{"acknowledge", http.StatusConflict, ErrCodeInvalidTransition, ""},
	}

	for i, step := range steps {
		rec, resp := env.do(t, http.MethodPost, base+"/"+step.action, "")
		if step.wantCode != "" {
			expectError(t, rec, resp, step.wantStatus, step.wantCode)
			continue
		}
		if rec.Code != step.wantStatus {
			t.Fatalf("step %d %s: status = %d (%s)", i, step.action, rec.Code, rec.Body.String())
		}
		var got alerts.Alert
		decodeData(t, resp, &got)
		if got.Status != step.wantAlert {
			t.Errorf("step %d %s: alert status = %s, want %s", i, step.action, got.Status, step.wantAlert)
		}
	}

	_, resp := env.do(t, http.MethodGet, base, "")
	var got alerts.Alert
	decodeData(t, resp, &got)
	if got.Status != alerts.StatusResolved || got.ResolvedAt == nil {
		t.Errorf("GET after resolve = %s (resolvedAt %v)", got.Status, got.ResolvedAt)
	}
}

func TestAlertNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/alerts/nope"},
		{http.MethodPost, "/api/v1/alerts/nope/acknowledge"},
		{http.MethodPost, "/api/v1/alerts/nope/resolve"},
		{http.MethodGet, "/api/v1/alerts/nope/history"},
	} {
		rec, resp := env.do(t, tc.method, tc.path, "")
		expectError(t, rec, resp, http.StatusNotFound, ErrCodeNotFound)
	}
}

func TestListAlertsParams(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	createDischargeAlert(t, env, "366999001")
	createDischargeAlert(t, env, "366999002")

	invalid := []string{
		"kind=piracy",
		"severity=extreme",
		"status=open",
		"limit=0",
		"limit=1001",
		"limit=ten",
	}
	for _, q := range invalid {
		q := q
		t.Run(q, func(t *testing.T) {
			t.Parallel()
			rec, resp := env.do(t, http.MethodGet, "/api/v1/alerts?"+q, "")
			expectError(t, rec, resp, http.StatusBadRequest, ErrCodeValidation)
			if resp.Error.Details["field"] == nil {
				t.Errorf("details = %v, want field name", resp.Error.Details)
			}
		})
	}

	valid := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"limit=1", 1},
		{"vessel=366999002", 1},
		{"q=SENTINEL", 2},
		{"severity=critical&status=active", 2},
		{"kind=loitering", 0},
		{"open=true", 2},
	}
	for _, tt := range valid {
		tt := tt
		t.Run("valid "+tt.query, func(t *testing.T) {
			t.Parallel()
			rec, resp := env.do(t, http.MethodGet, "/api/v1/alerts?"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var list []alerts.Alert
			decodeData(t, resp, &list)
			if len(list) != tt.want {
				t.Errorf("len = %d, want %d", len(list), tt.want)
			}
		})
	}
}

func TestAlertHistory(t *testing.T) {
	t.Parallel()

	t.Run("archive disabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		a := createDischargeAlert(t, env, "366999001")
		rec, resp := env.do(t, http.MethodGet, "/api/v1/alerts/"+a.ID+"/history", "")
		expectError(t, rec, resp, http.StatusNotFound, ErrCodeNotFound)
	})

	t.Run("archived changes", func(t *testing.T) {
		t.Parallel()
		arc, err := archive.Open(archive.Config{InMemory: true})
		if err != nil {
			t.Fatalf("archive.Open: %v", err)
		}
		t.Cleanup(func() { _ = arc.Close() })

		env := newTestEnv(t, withArchive(arc))
		a := createDischargeAlert(t, env, "366999001")
		if err := arc.Record(alerts.Event{Change: alerts.ChangeCreated, Alert: a, At: a.CreatedAt}); err != nil {
			t.Fatalf("Record: %v", err)
		}
		resolved, err := env.correlator.Resolve(a.ID)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if err := arc.Record(alerts.Event{Change: alerts.ChangeResolved, Alert: resolved, At: resolved.UpdatedAt}); err != nil {
			t.Fatalf("Record: %v", err)
		}

		rec, resp := env.do(t, http.MethodGet, "/api/v1/alerts/"+a.ID+"/history", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
		}
		var records []archive.Record
		decodeData(t, resp, &records)
		if len(records) != 2 {
			t.Fatalf("records = %d, want 2", len(records))
		}
		if records[0].Change != alerts.ChangeCreated || records[1].Change != alerts.ChangeResolved {
			t.Errorf("changes = %s, %s", records[0].Change, records[1].Change)
		}
	})
}

func TestVesselEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999001", 10+float64(i)*0.001, 70, 5, 0, t0.Add(time.Duration(i)*time.Minute)))
	}
	env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999002", 20, 70, 5, 0, t0.Add(time.Hour)))
	createDischargeAlert(t, env, "366999001")

	t.Run("list without history", func(t *testing.T) {
		_, resp := env.do(t, http.MethodGet, "/api/v1/vessels", "")
		var list []models.VesselView
		decodeData(t, resp, &list)
		if len(list) != 2 {
			t.Fatalf("vessels = %d, want 2", len(list))
		}
		for _, v := range list {
			if len(v.History) != 0 {
				t.Errorf("%s: history included without ?history=true", v.ID)
			}
		}
	})

	t.Run("list with history and status filter", func(t *testing.T) {
		_, resp := env.do(t, http.MethodGet, "/api/v1/vessels?history=true&status=danger", "")
		var list []models.VesselView
		decodeData(t, resp, &list)
		if len(list) != 1 || list[0].ID != "366999001" {
			t.Fatalf("danger vessels = %+v", list)
		}
		if len(list[0].History) != 3 {
			t.Errorf("history = %d samples, want 3", len(list[0].History))
		}
	})

	t.Run("invalid status filter", func(t *testing.T) {
		rec, resp := env.do(t, http.MethodGet, "/api/v1/vessels?status=sunk", "")
		expectError(t, rec, resp, http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("single vessel", func(t *testing.T) {
		_, resp := env.do(t, http.MethodGet, "/api/v1/vessels/366999001", "")
		var v models.VesselView
		decodeData(t, resp, &v)
		if v.Status != alerts.VesselDanger {
			t.Errorf("status = %s, want danger", v.Status)
		}
		if len(v.OpenAlerts) != 1 {
			t.Errorf("open alerts = %d, want 1", len(v.OpenAlerts))
		}

		_, resp = env.do(t, http.MethodGet, "/api/v1/vessels/366999002", "")
		decodeData(t, resp, &v)
		if v.Status != alerts.VesselNormal {
			t.Errorf("status = %s, want normal", v.Status)
		}
	})

	t.Run("unknown vessel", func(t *testing.T) {
		rec, resp := env.do(t, http.MethodGet, "/api/v1/vessels/404404404", "")
		expectError(t, rec, resp, http.StatusNotFound, ErrCodeNotFound)
	})
}

func TestSilentVessels(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.handler.SetClock(func() time.Time { return t0.Add(45 * time.Minute) })
	env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999001", 10, 70, 5, 0, t0))
	env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999002", 11, 70, 5, 0, t0.Add(40*time.Minute)))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"366999001"}},
		{"?period=1m", []string{"366999001", "366999002"}},
		{"?period=2h", nil},
	}
	for _, tt := range tests {
		_, resp := env.do(t, http.MethodGet, "/api/v1/vessels/silent"+tt.query, "")
		var list []tracking.VesselTrack
		decodeData(t, resp, &list)
		if len(list) != len(tt.want) {
			t.Fatalf("%q: silent = %d, want %d", tt.query, len(list), len(tt.want))
		}
		for i, id := range tt.want {
			if list[i].ID != id {
				t.Errorf("%q: silent[%d] = %s, want %s", tt.query, i, list[i].ID, id)
			}
		}
	}

	rec, resp := env.do(t, http.MethodGet, "/api/v1/vessels/silent?period=-5m", "")
	expectError(t, rec, resp, http.StatusBadRequest, ErrCodeValidation)
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999001", 10, 70, 5, 0, t0))
	env.do(t, http.MethodPost, "/api/v1/reports", reportJSON("366999002", 12, 70, 5, 0, t0))
	createDischargeAlert(t, env, "366999001")

	rec, resp := env.do(t, http.MethodGet, "/api/v1/statistics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats models.Statistics
	decodeData(t, resp, &stats)
	if stats.TotalVessels != 2 {
		t.Errorf("totalVessels = %d, want 2", stats.TotalVessels)
	}
	if stats.ActiveAlerts != 1 || stats.OilSpillRisks != 1 {
		t.Errorf("activeAlerts = %d, oilSpillRisks = %d, want 1/1", stats.ActiveAlerts, stats.OilSpillRisks)
	}
	if stats.Last24hIncidents != 1 {
		t.Errorf("last24hIncidents = %d, want 1", stats.Last24hIncidents)
	}
	// The critical alert is queued but no dispatcher loop is running.
	if stats.PendingNotifications != 1 {
		t.Errorf("pendingNotifications = %d, want 1", stats.PendingNotifications)
	}
	if stats.HistoryCapacity != tracking.DefaultHistoryCapacity {
		t.Errorf("historyCapacity = %d, want %d", stats.HistoryCapacity, tracking.DefaultHistoryCapacity)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	createDischargeAlert(t, env, "366999001")

	_, resp := env.do(t, http.MethodGet, "/api/v1/notifications/recent", "")
	var recent []dispatch.NotificationEvent
	decodeData(t, resp, &recent)
	if len(recent) != 1 || recent[0].TransitionKind != dispatch.TransitionCreated {
		t.Errorf("recent = %+v, want one created event", recent)
	}

	rec, resp := env.do(t, http.MethodGet, "/api/v1/notifications/undelivered", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var undelivered []dispatch.Undelivered
	decodeData(t, resp, &undelivered)
	if len(undelivered) != 0 {
		t.Errorf("undelivered = %d, want 0", len(undelivered))
	}

	off := newTestEnv(t, withoutDispatcher())
	rec, resp = off.do(t, http.MethodGet, "/api/v1/notifications/undelivered", "")
	expectError(t, rec, resp, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestDetectorAdministration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodGet, "/api/v1/detectors", "")
	var list []detection.DetectorInfo
	decodeData(t, resp, &list)
	names := make([]string, 0, len(list))
	for _, d := range list {
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "anomaly,collision,discharge,grounding,loitering" {
		t.Errorf("detectors = %s", got)
	}

	tests := []struct {
		name       string
		detector   string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"disable", "loitering", `{"enabled":false}`, http.StatusOK, ""},
		{"reconfigure", "loitering", `{"config":{"window_minutes":20,"radius_meters":300,"max_avg_speed_knots":0.5,"min_samples":4,"min_span_minutes":15}}`, http.StatusOK, ""},
		{"invalid config", "loitering", `{"config":{"window_minutes":20,"radius_meters":300,"max_avg_speed_knots":0.5,"min_samples":1}}`, http.StatusBadRequest, ErrCodeValidation},
		{"empty update", "loitering", `{}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown detector", "sonar", `{"enabled":true}`, http.StatusNotFound, ErrCodeNotFound},
	}
	for _, tt := range tests {
		rec, resp := env.do(t, http.MethodPut, "/api/v1/detectors/"+tt.detector, tt.body)
		if tt.wantCode != "" {
			expectError(t, rec, resp, tt.wantStatus, tt.wantCode)
			continue
		}
		if rec.Code != tt.wantStatus {
			t.Fatalf("%s: status = %d (%s)", tt.name, rec.Code, rec.Body.String())
		}
	}

	rule, ok := env.engine.GetRule("loitering")
	if !ok {
		t.Fatal("loitering detector missing")
	}
	if rule.Enabled() {
		t.Error("loitering still enabled after PUT enabled=false")
	}
	cfg, ok := rule.Settings().(detection.LoiteringConfig)
	if !ok || cfg.MinSamples != 4 {
		t.Errorf("settings = %+v, want min_samples 4 (invalid config must not apply)", rule.Settings())
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		rec, _ := env.do(t, http.MethodGet, "/health/live", "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, withCheck("feed", nil))
		rec, resp := env.do(t, http.MethodGet, "/health/ready", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
		}
		var h models.HealthStatus
		decodeData(t, resp, &h)
		if h.Status != "ready" || !h.Components["feed"].Healthy {
			t.Errorf("health = %+v", h)
		}
	})

	t.Run("failing check", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, withCheck("feed", errors.New("nats: connection closed")))
		rec, resp := env.do(t, http.MethodGet, "/health/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		var h models.HealthStatus
		decodeData(t, resp, &h)
		if h.Status != "degraded" || h.Components["feed"].Error == "" {
			t.Errorf("health = %+v", h)
		}
	})

	t.Run("closed archive", func(t *testing.T) {
		t.Parallel()
		arc, err := archive.Open(archive.Config{InMemory: true})
		if err != nil {
			t.Fatalf("archive.Open: %v", err)
		}
		_ = arc.Close()
		env := newTestEnv(t, withArchive(arc))
		rec, _ := env.do(t, http.MethodGet, "/health/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}
