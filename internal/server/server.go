package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/pipeline"
	"podcast-insights-go/internal/store"
	"podcast-insights-go/internal/types"
)

// InsightPipeline is the core the HTTP layer drives.
type InsightPipeline interface {
	Run(ctx context.Context, ref types.EpisodeReference) (types.InsightResult, error)
}

// DocumentWriter consumes InsightResults on the user's behalf.
type DocumentWriter interface {
	Save(ctx context.Context, insight types.InsightResult, notes string) error
}

type Server struct {
	pipeline InsightPipeline
	writer   DocumentWriter
	recents  *store.RecentStore
}

func New(p InsightPipeline, writer DocumentWriter, recents *store.RecentStore) *Server {
	return &Server{pipeline: p, writer: writer, recents: recents}
}

// Routes wires the HTTP surface. The browser extension is the only expected
// client, so CORS is wide open.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /process-insight", s.handleProcessInsight)
	mux.HandleFunc("POST /save-to-notion", s.handleSaveToNotion)
	mux.HandleFunc("GET /insights/export", s.handleExport)
	mux.HandleFunc("GET /health", s.handleHealth)
	return withCORS(mux)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type processRequest struct {
	Title      string `json:"title"`
	ShowName   string `json:"showName"`
	Timestamp  int    `json:"timestamp"`
	SpotifyURL string `json:"spotifyUrl"`
}

func (s *Server) handleProcessInsight(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "process-insight")

	var body processRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		reqLog.WithError(err).Warn("malformed request body")
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid JSON body"})
		return
	}

	ref := types.EpisodeReference{
		Title:            body.Title,
		ShowName:         body.ShowName,
		TimestampSeconds: body.Timestamp,
		SourceURL:        body.SpotifyURL,
	}

	start := time.Now()
	result, err := s.pipeline.Run(r.Context(), ref)
	reqLog = reqLog.WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		kind := pipeline.KindOf(err)
		reqLog.WithError(err).WithField("kind", string(kind)).Warn("pipeline failed")
		writeJSON(w, statusFor(kind), apiResponse{Success: false, Message: publicMessage(kind)})
		return
	}

	s.recents.Add(result)
	reqLog.WithField("manual_mode", result.ManualMode).Info("pipeline finished")
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: result})
}

type saveRequest struct {
	Title        string   `json:"title"`
	ShowName     string   `json:"showName"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Transcript   string   `json:"transcript"`
	Summary      []string `json:"summary"`
	Timestamp    int      `json:"timestamp"`
	ManualMode   bool     `json:"manualMode"`
	Notes        string   `json:"notes"`
}

func (s *Server) handleSaveToNotion(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "save-to-notion")

	var body saveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid JSON body"})
		return
	}
	if body.Title == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "title is required"})
		return
	}

	insight := types.InsightResult{
		EpisodeTitle:     body.Title,
		ShowName:         body.ShowName,
		ThumbnailURL:     body.ThumbnailURL,
		Transcript:       body.Transcript,
		Summary:          body.Summary,
		TimestampSeconds: body.Timestamp,
		ManualMode:       body.ManualMode,
	}
	if err := s.writer.Save(r.Context(), insight, body.Notes); err != nil {
		reqLog.WithError(err).Error("notion save failed")
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "failed to save to Notion"})
		return
	}
	reqLog.Info("insight saved to notion")
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "export")

	buf, err := store.ExportXLSX(s.recents.Recent())
	if err != nil {
		reqLog.WithError(err).Error("export failed")
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "export failed"})
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=insights-%s.xlsx", time.Now().UTC().Format("2006-01-02")))
	w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps a failure kind to the outward HTTP status. A not-found match
// never reaches here; it is a successful manual-mode result.
func statusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindValidation:
		return http.StatusBadRequest
	case pipeline.KindNoAudio:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps upstream bodies out of responses; full detail stays in
// server logs.
func publicMessage(kind pipeline.Kind) string {
	switch kind {
	case pipeline.KindValidation:
		return "title is required"
	case pipeline.KindNoAudio:
		return "no audio available for this episode"
	case pipeline.KindResolver:
		return "podcast search is unavailable"
	case pipeline.KindExtraction:
		return "could not extract audio for this episode"
	case pipeline.KindTranscription:
		return "could not transcribe the audio snippet"
	case pipeline.KindEmptyTranscript:
		return "no transcript text found at this timestamp"
	case pipeline.KindSummarization:
		return "could not summarize the transcript"
	default:
		return "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		logger.Component("server").WithError(err).Error("failed to write response")
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
