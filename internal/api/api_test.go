package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cpseval/adapters/memory"
	"cpseval/domain/core"
	"cpseval/domain/scoring"
	"cpseval/internal/analysis"
	"cpseval/internal/config"
	"cpseval/internal/schema"
	"cpseval/internal/tcps"
	"cpseval/ports"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *gin.Engine
	ledger *memory.Ledger
	hub    *SSEHub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := schema.New([]schema.Entry{
		{Name: "A", Weight: 0.6, Polarity: scoring.HigherIsBetter},
		{Name: "B", Weight: 0.4, Polarity: scoring.LowerIsBetter},
	})
	require.NoError(t, err)

	hub := NewSSEHub()
	ledger := memory.NewLedger()
	engine := analysis.NewEngine(s).WithProgress(NewLoggingSink(hub))
	defaults := config.EngineConfig{
		Alpha:     tcps.DefaultAlpha,
		Beta:      tcps.DefaultBeta,
		Weighting: "fixed",
		Baseline:  "0.01",
		Alignment: "prefix",
		Workers:   2,
	}
	h := NewAnalysisHandler(engine, memory.NewReportRepository(), ledger, defaults)
	return &testServer{router: NewRouter(h, hub), ledger: ledger, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const analysisBody = `{
  "records": [
    {"model": "llama", "threshold": "threshold_0.01", "question_id": 1, "values": {"A": 0.50, "B": 3}},
    {"model": "llama", "threshold": "threshold_0.01", "question_id": 2, "values": {"A": 0.52, "B": 3}},
    {"model": "llama", "threshold": "threshold_0.01", "question_id": 3, "values": {"A": 0.48, "B": 3}},
    {"model": "llama", "threshold": "threshold_0.01", "question_id": 4, "values": {"A": 0.51, "B": null}},
    {"model": "llama", "threshold": 0.75, "question_id": 1, "values": {"A": 0.60, "B": 3}},
    {"model": "llama", "threshold": 0.75, "question_id": 2, "values": {"A": 0.58, "B": 3}},
    {"model": "llama", "threshold": 0.75, "question_id": 3, "values": {"A": 0.62, "B": 3}},
    {"model": "llama", "threshold": 0.75, "question_id": 4, "values": {"A": 0.59, "B": 3}}
  ],
  "options": {"alpha": 0.2}
}`

type runResponse struct {
	RunID  core.RunID `json:"run_id"`
	Report struct {
		Alpha float64 `json:"alpha"`
		Rows  []struct {
			Model     string  `json:"model"`
			Threshold float64 `json:"threshold"`
			Status    string  `json:"status"`
			N         int     `json:"n"`
		} `json:"rows"`
	} `json:"report"`
}

func TestCreateAnalysis_StoresAndServesReport(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/analyses", analysisBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.RunID)
	assert.Equal(t, 0.2, res.Report.Alpha)
	require.Len(t, res.Report.Rows, 1)
	assert.Equal(t, "llama", res.Report.Rows[0].Model)
	assert.Equal(t, 0.75, res.Report.Rows[0].Threshold)
	assert.Equal(t, "ok", res.Report.Rows[0].Status)
	assert.Equal(t, 4, res.Report.Rows[0].N)

	entries := s.ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, res.RunID, entries[0].RunID)

	base := "/v1/analyses/" + res.RunID.String()

	w = s.do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dataset_hash"`)

	w = s.do(t, http.MethodGet, base+"/report.md", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "llama")

	w = s.do(t, http.MethodGet, base+"/report.html", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "<table>")

	w = s.do(t, http.MethodGet, base+"/models", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"models"`)

	w = s.do(t, http.MethodGet, "/v1/analyses?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), res.RunID.String())
}

func TestCreateAnalysis_RejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"records": [`, http.StatusBadRequest},
		{"no records", `{"records": []}`, http.StatusBadRequest},
		{"bad threshold", `{"records": [{"model": "m", "threshold": "abc", "values": {"A": 1}}]}`, http.StatusBadRequest},
		{"unknown weighting", `{"records": [{"model": "m", "threshold": 0.5, "values": {"A": 1}}], "options": {"weighting": "adaptive"}}`, http.StatusBadRequest},
		{"bad run id", `{"records": [{"model": "m", "threshold": 0.5, "values": {"A": 1}}], "options": {"run_id": "nope"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/v1/analyses", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestGetAnalysis_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/analyses/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/v1/analyses/"+core.NewRunID().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestCreateComparison(t *testing.T) {
	s := newTestServer(t)
	body := `{
	  "series": [
	    {"model": "m", "threshold": 0.01, "cps": [0.50, 0.52, 0.48, 0.51]},
	    {"model": "m", "threshold": 0.75, "cps": [0.60, 0.58, 0.62, 0.59, null]}
	  ]
	}`

	w := s.do(t, http.MethodPost, "/v1/comparisons", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Report struct {
			Rows []struct {
				PValue       float64 `json:"p_value"`
				Significance string  `json:"significance"`
			} `json:"rows"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Report.Rows, 1)
	assert.InDelta(t, 0.0115, res.Report.Rows[0].PValue, 1e-3)
	assert.Equal(t, "*", res.Report.Rows[0].Significance)
}

func TestGetSchemaAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/schema", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"metrics"`)
}

func TestSSEHub_DeliversEventsForSubscribedRun(t *testing.T) {
	hub := NewSSEHub()
	runID := core.NewRunID()

	events, unsubscribe := hub.Subscribe(runID)
	require.Eventually(t, func() bool { return hub.ClientCount(runID) == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(analysis.ProgressEvent{RunID: core.NewRunID(), Seq: 99})
	hub.Publish(analysis.ProgressEvent{RunID: runID, Seq: 1, Phase: analysis.PhaseScoring})

	select {
	case e := <-events:
		assert.Equal(t, int64(1), e.Seq)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	unsubscribe()
	require.Eventually(t, func() bool { return hub.ClientCount(runID) == 0 }, time.Second, 5*time.Millisecond)
}

func TestThresholdValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input    string
		expected scoring.Threshold
	}{
		{`0.5`, 0.5},
		{`75`, 0.75},
		{`"threshold_0.30"`, 0.30},
		{`"no_filtering"`, scoring.NoFiltering},
	}
	for _, tt := range tests {
		var v thresholdValue
		require.NoError(t, json.Unmarshal([]byte(tt.input), &v), tt.input)
		assert.True(t, scoring.Threshold(v).Equal(tt.expected), "%s -> %v", tt.input, v)
	}

	var v thresholdValue
	assert.Error(t, json.Unmarshal([]byte(`"sideways"`), &v))
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Submit(ctx context.Context, entries []ports.LedgerEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func TestCreateAnalysis_LedgerFailureDoesNotFailRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, err := schema.New([]schema.Entry{
		{Name: "A", Weight: 0.6, Polarity: scoring.HigherIsBetter},
		{Name: "B", Weight: 0.4, Polarity: scoring.LowerIsBetter},
	})
	require.NoError(t, err)

	ledger := &mockLedger{}
	ledger.On("Submit", mock.Anything, mock.MatchedBy(func(entries []ports.LedgerEntry) bool {
		return len(entries) == 1 && entries[0].Model == "llama" && len(entries[0].Payload) == len(entries[0].Fields)
	})).Return(stderrors.New("ledger unavailable")).Once()

	defaults := config.EngineConfig{Alpha: tcps.DefaultAlpha, Beta: tcps.DefaultBeta, Weighting: "fixed", Baseline: "0.01", Alignment: "prefix", Workers: 1}
	h := NewAnalysisHandler(analysis.NewEngine(s), memory.NewReportRepository(), ledger, defaults)
	router := NewRouter(h, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(analysisBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ledger.AssertExpectations(t)
}
