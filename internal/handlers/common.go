package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/bookswap/internal/assessment"
	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/lehigh-university-libraries/bookswap/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config wires the handler to its collaborators
type Config struct {
	Store       storage.Store
	Assessor    assessment.Assessor
	Engine      *credit.Engine
	Provider    string
	UploadsDir  string
	StaticDir   string
	MaxUploadMB int
}

type Handler struct {
	store          storage.Store
	assessor       assessment.Assessor
	engine         *credit.Engine
	provider       string
	uploadsDir     string
	staticDir      string
	maxUploadBytes int64

	now   func() time.Time
	newID func() string
}

type ImageProcessResult struct {
	ImageFilename string
	ImageFilePath string
	ImageType     string
	Width         int
	Height        int
}

func New(cfg Config) *Handler {
	if cfg.Engine == nil {
		cfg.Engine = credit.NewEngine()
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = "uploads"
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "static"
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	return &Handler{
		store:          cfg.Store,
		assessor:       cfg.Assessor,
		engine:         cfg.Engine,
		provider:       cfg.Provider,
		uploadsDir:     cfg.UploadsDir,
		staticDir:      cfg.StaticDir,
		maxUploadBytes: int64(cfg.MaxUploadMB) * 1024 * 1024,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Routes registers every endpoint on a new ServeMux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/intake", h.HandleIntake)
	mux.HandleFunc("/api/intakes", h.HandleIntakes)
	mux.HandleFunc("/api/intakes/", h.HandleIntakeDetail)
	mux.HandleFunc("/api/score", h.HandleScore)
	mux.HandleFunc("/api/stats", h.HandleStats)
	mux.HandleFunc("/", h.HandleStatic)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// File operation helpers
func (h *Handler) ensureUploadsDir() error {
	return os.MkdirAll(h.uploadsDir, 0755)
}
