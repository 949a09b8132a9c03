package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthEndpoint(t *testing.T) {
	serverPipeline = &Pipeline{}
	serverStartTime = time.Now()
	lastSuccessTime = time.Time{}

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health endpoint returned %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if resp.UptimeSeconds < 0 {
		t.Errorf("uptime should be >= 0, got %d", resp.UptimeSeconds)
	}
}

func TestHealthEndpointDegraded(t *testing.T) {
	serverPipeline = &Pipeline{}
	serverStartTime = time.Now()

	// Last success over an hour ago
	lastSuccessTime = time.Now().Add(-2 * time.Hour)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handleHealth(w, req)

	var resp HealthResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.Status != "degraded" {
		t.Errorf("status = %q, want %q (last success > 1 hour ago)", resp.Status, "degraded")
	}

	lastSuccessTime = time.Time{}
}

func TestHealthEndpointCacheCount(t *testing.T) {
	cache := newTestCache(t)
	cache.Put("dQw4w9WgXcQ", "en", "title", "[00:00] hi")

	serverPipeline = &Pipeline{Cache: cache}
	serverStartTime = time.Now()
	lastSuccessTime = time.Time{}

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handleHealth(w, req)

	var resp HealthResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.CacheEntries != 1 {
		t.Errorf("CacheEntries = %d, want 1", resp.CacheEntries)
	}
}

func TestTranscriptEndpointInvalidJSON(t *testing.T) {
	serverPipeline = &Pipeline{}

	req := httptest.NewRequest("POST", "/transcript", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()

	handleTranscript(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.Error != ErrCodeInvalidRequest {
		t.Errorf("error = %q, want %q", resp.Error, ErrCodeInvalidRequest)
	}
}

func TestTranscriptEndpointMissingURL(t *testing.T) {
	serverPipeline = &Pipeline{}

	req := httptest.NewRequest("POST", "/transcript", bytes.NewBufferString(`{"language": "en"}`))
	w := httptest.NewRecorder()

	handleTranscript(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestTranscriptEndpointSuccess(t *testing.T) {
	backend := newTestBackend(t)
	serverPipeline = backend.pipeline(t)
	lastSuccessTime = time.Time{}

	body := fmt.Sprintf(`{"url": %q}`, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	req := httptest.NewRequest("POST", "/transcript", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handleTranscript(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp TranscriptResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("video_id = %q", resp.VideoID)
	}
	if resp.Language != "en" {
		t.Errorf("language = %q, want en", resp.Language)
	}
	if resp.Cached {
		t.Error("first request should not be cached")
	}
	if resp.Transcript != "[00:00] Hello & welcome\n[01:05] world" {
		t.Errorf("transcript = %q", resp.Transcript)
	}
	if lastSuccessTime.IsZero() {
		t.Error("lastSuccessTime should be updated on success")
	}
}

func TestTranscriptEndpointNoCaptions(t *testing.T) {
	backend := newTestBackend(t)
	backend.withTracks = false
	serverPipeline = backend.pipeline(t)

	req := httptest.NewRequest("POST", "/transcript", bytes.NewBufferString(`{"video_id": "dQw4w9WgXcQ"}`))
	w := httptest.NewRecorder()

	handleTranscript(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("got status %d, want %d", w.Code, http.StatusNotFound)
	}

	var resp ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.Error != ErrCodeNoCaptions {
		t.Errorf("error = %q, want %q", resp.Error, ErrCodeNoCaptions)
	}
	if resp.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("video_id = %q", resp.VideoID)
	}
}

func TestWriteRunError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{ErrInvalidConfig, http.StatusBadRequest, ErrCodeInvalidRequest},
		{ErrInvalidVideoID, http.StatusBadRequest, ErrCodeInvalidRequest},
		{ErrNoCaptions, http.StatusNotFound, ErrCodeNoCaptions},
		{ErrVideoUnavailable, http.StatusNotFound, ErrCodeVideoUnavailable},
		{ErrParse, http.StatusBadGateway, ErrCodeBadDocument},
		{ErrFileWrite, http.StatusInternalServerError, ErrCodeWriteFailed},
		{ErrNetwork, http.StatusBadGateway, ErrCodeFetchFailed},
		{errors.New("anything else"), http.StatusBadGateway, ErrCodeFetchFailed},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		writeRunError(w, tt.err, "dQw4w9WgXcQ")

		if w.Code != tt.wantStatus {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.wantStatus)
		}

		var resp ErrorResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Error != tt.wantCode {
			t.Errorf("%v: code = %q, want %q", tt.err, resp.Error, tt.wantCode)
		}
	}
}
