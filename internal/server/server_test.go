package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/pkg/metrics"
)

func TestServer_Health(t *testing.T) {
	set := gesture.NewCandidateSet()
	set.Add(gesture.Candidate{Name: "wave", Pattern: "ne_."})
	s := New(Config{Candidates: set})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if response["candidates"] != float64(1) {
			t.Errorf("expected 1 candidate, got %v", response["candidates"])
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/nonexistent", "/api/candidates", "/api/queues", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_Metrics(t *testing.T) {
	metrics.RecordGestureCompleted()
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "gestures_completed_total") {
		t.Errorf("expected gesture counter in metrics output")
	}
}

func TestServer_CandidatesAndMatch(t *testing.T) {
	set := gesture.NewCandidateSet()
	s := New(Config{Candidates: set, Thresholds: gesture.DefaultThresholds()})
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/candidates", "application/json",
		strings.NewReader(`{"name":"swipe_right","pattern":"j_."}`))
	if err != nil {
		t.Fatalf("POST /api/candidates error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	resp, err = ts.Client().Post(ts.URL+"/api/match", "application/json",
		strings.NewReader(`{"gesture":"j_.j_."}`))
	if err != nil {
		t.Fatalf("POST /api/match error = %v", err)
	}
	defer resp.Body.Close()

	var match struct {
		Result gesture.Result `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&match); err != nil {
		t.Fatalf("failed to decode match: %v", err)
	}
	if !match.Result.Matched || match.Result.Closest.Name != "swipe_right" {
		t.Errorf("unexpected match result %+v", match.Result)
	}
}

func TestServer_ResultStream(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/results/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.Results().Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Results().Publish(app.Outcome{
		Gesture: "j_.j_.",
		Results: []gesture.Result{{Scorer: gesture.ScorerDistance, Matched: true, Closest: gesture.Candidate{Name: "swipe_right"}}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error = %v", err)
	}

	var got app.Outcome
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("failed to decode outcome: %v", err)
	}
	if got.Gesture != "j_.j_." || len(got.Results) != 1 || got.Results[0].Closest.Name != "swipe_right" {
		t.Errorf("unexpected outcome %+v", got)
	}

	s.Results().Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close after Close()")
	}
}
