package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonMunkholm/Ingest/internal/config"
	"github.com/JonMunkholm/Ingest/internal/pipeline"
)

type stubDispatcher struct {
	stats *pipeline.DispatchStats
	err   error
}

func (s *stubDispatcher) Run(context.Context) (*pipeline.DispatchStats, error) {
	return s.stats, s.err
}

type stubLoader struct {
	stats *pipeline.LoadStats
	err   error
}

func (s *stubLoader) Run(context.Context) (*pipeline.LoadStats, error) {
	return s.stats, s.err
}

func testServer(d DispatchRunner, l LoadRunner) *Server {
	return NewServer(d, l, &config.ServerConfig{
		Port:           8080,
		RequestTimeout: time.Minute,
	})
}

func TestHandleDispatch_ReturnsStats(t *testing.T) {
	srv := testServer(
		&stubDispatcher{stats: &pipeline.DispatchStats{Dispatched: 3, Invalid: 1}},
		&stubLoader{},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/dispatch", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got pipeline.DispatchStats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Dispatched != 3 || got.Invalid != 1 {
		t.Errorf("stats = %+v, want dispatched=3 invalid=1", got)
	}
}

func TestHandleRun_CombinesBothStages(t *testing.T) {
	srv := testServer(
		&stubDispatcher{stats: &pipeline.DispatchStats{Dispatched: 2}},
		&stubLoader{stats: &pipeline.LoadStats{FilesImported: 2, TablesCreated: 1}},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/run", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got RunResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Dispatch.Dispatched != 2 {
		t.Errorf("dispatch stats = %+v, want dispatched=2", got.Dispatch)
	}
	if got.Load.FilesImported != 2 || got.Load.TablesCreated != 1 {
		t.Errorf("load stats = %+v, want imported=2 tables_created=1", got.Load)
	}
}

func TestHandleLoad_MissingRootIsConflict(t *testing.T) {
	srv := testServer(
		&stubDispatcher{},
		&stubLoader{err: pipeline.ErrRootNotFound},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/load", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(&stubDispatcher{}, &stubLoader{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
