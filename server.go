package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

// Server configuration
const (
	maxRequestBodySize      = 1024 // only accepting JSON with URL + language
	serverReadTimeout       = 5 * time.Second
	serverWriteTimeout      = 60 * time.Second
	serverIdleTimeout       = 60 * time.Second
	gracefulShutdownTimeout = 30 * time.Second

	defaultLanguage = "en"
)

// API request/response types

type TranscriptRequest struct {
	URL      string `json:"url,omitempty"`
	VideoID  string `json:"video_id,omitempty"`
	Language string `json:"language,omitempty"` // defaults to "en"
}

type TranscriptResponse struct {
	VideoID    string `json:"video_id"`
	Title      string `json:"title,omitempty"`
	Transcript string `json:"transcript"`
	Language   string `json:"language"`
	OutputPath string `json:"output_path,omitempty"`
	Cached     bool   `json:"cached"`
	DurationMS int64  `json:"duration_ms"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	VideoID string `json:"video_id,omitempty"`
}

type HealthResponse struct {
	Status                string `json:"status"` // "ok", "degraded", "unhealthy"
	CacheEntries          int    `json:"cache_entries"`
	UptimeSeconds         int64  `json:"uptime_seconds"`
	LastSuccess           string `json:"last_success,omitempty"`
	LastSuccessAgeSeconds int64  `json:"last_success_age_seconds,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeNoCaptions       = "no_captions"
	ErrCodeVideoUnavailable = "video_unavailable"
	ErrCodeFetchFailed      = "fetch_failed"
	ErrCodeBadDocument      = "bad_document"
	ErrCodeWriteFailed      = "write_failed"
	ErrCodeRateLimited      = "rate_limited"
)

var (
	serverPipeline  *Pipeline
	serverStartTime time.Time
	lastSuccessTime time.Time
)

// startServer starts the HTTP server with graceful shutdown
func startServer(addr, apiKey string, pipeline *Pipeline) error {
	serverStartTime = time.Now()
	serverPipeline = pipeline

	// INFO level for production
	initLogger(slog.LevelInfo)
	logInfo("starting server", slog.String("addr", addr))

	mux := http.NewServeMux()

	// Wrap handlers with API key auth if configured
	authMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				providedKey := r.Header.Get("X-API-Key")
				if providedKey == "" {
					providedKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
				}
				if providedKey != apiKey {
					writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API key")
					return
				}
			}
			next(w, r)
		}
	}

	initRateLimiter()

	// Routes (rate limiting applied to all endpoints except health)
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /transcript", rateLimitMiddleware(authMiddleware(handleTranscript)))

	server := &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(http.MaxBytesHandler(mux, maxRequestBodySize)),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logInfo("shutdown signal received, gracefully stopping server")

		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logError("server forced to shutdown", slog.String("error", err.Error()))
		}
	}()

	logInfo("server started", slog.String("addr", addr), slog.Bool("auth_enabled", apiKey != ""))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logError("server error", slog.String("error", err.Error()))
		return fmt.Errorf("server error: %w", err)
	}

	logInfo("server stopped")
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	cacheCount := 0
	if serverPipeline != nil && serverPipeline.Cache != nil {
		n, err := serverPipeline.Cache.Count()
		if err != nil {
			status = "unhealthy"
		} else {
			cacheCount = n
		}
	}

	resp := HealthResponse{
		Status:        status,
		CacheEntries:  cacheCount,
		UptimeSeconds: int64(time.Since(serverStartTime).Seconds()),
	}

	if !lastSuccessTime.IsZero() {
		resp.LastSuccess = lastSuccessTime.Format(time.RFC3339)
		resp.LastSuccessAgeSeconds = int64(time.Since(lastSuccessTime).Seconds())

		// Degraded if no success in over an hour
		if resp.LastSuccessAgeSeconds > 3600 && status == "ok" {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func handleTranscript(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON: "+err.Error())
		return
	}

	cfg := &Config{VideoURL: req.URL, VideoID: req.VideoID}
	if err := cfg.validate(); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "url or video_id is required")
		return
	}

	lang := req.Language
	if lang == "" {
		lang = defaultLanguage
	}

	// Per-request copy so language selection does not race between requests
	pl := *serverPipeline
	pl.Language = lang
	pl.Select = trackForLanguage(lang)

	result, err := pl.Run(r.Context(), cfg)
	if err != nil {
		videoID, _ := cfg.resolveVideoID()
		writeRunError(w, err, videoID)
		return
	}

	reqCtx := getRequestContext(r)
	reqCtx.VideoID = result.VideoID
	reqCtx.CacheHit = result.Cached

	lastSuccessTime = time.Now()

	writeJSON(w, http.StatusOK, TranscriptResponse{
		VideoID:    result.VideoID,
		Title:      result.Title,
		Transcript: result.Transcript,
		Language:   lang,
		OutputPath: result.OutputPath,
		Cached:     result.Cached,
		DurationMS: time.Since(start).Milliseconds(),
	})
}

// writeRunError maps pipeline sentinel errors to stable API error codes.
func writeRunError(w http.ResponseWriter, err error, videoID string) {
	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidVideoID):
		writeErrorWithVideo(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error(), videoID)
	case errors.Is(err, ErrNoCaptions):
		writeErrorWithVideo(w, http.StatusNotFound, ErrCodeNoCaptions, "This video has no captions available", videoID)
	case errors.Is(err, ErrVideoUnavailable):
		writeErrorWithVideo(w, http.StatusNotFound, ErrCodeVideoUnavailable, err.Error(), videoID)
	case errors.Is(err, ErrParse):
		writeErrorWithVideo(w, http.StatusBadGateway, ErrCodeBadDocument, err.Error(), videoID)
	case errors.Is(err, ErrFileWrite):
		writeErrorWithVideo(w, http.StatusInternalServerError, ErrCodeWriteFailed, err.Error(), videoID)
	default:
		writeErrorWithVideo(w, http.StatusBadGateway, ErrCodeFetchFailed, err.Error(), videoID)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func writeErrorWithVideo(w http.ResponseWriter, status int, code, message, videoID string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		VideoID: videoID,
	})
}
