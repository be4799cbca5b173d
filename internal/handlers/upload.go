package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/assessment"
	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/lehigh-university-libraries/bookswap/internal/metrics"
	"github.com/lehigh-university-libraries/bookswap/internal/models"
)

// HandleIntake accepts the kiosk's labeled photos, grades them, scores the
// result and records a new intake session
func (h *Handler) HandleIntake(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*int64(len(assessment.PhotoLabels)))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ensureUploadsDir(); err != nil {
		h.writeError(w, "Failed to create uploads directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sessionID := h.newID()

	photos, images, err := h.readPhotos(sessionID, r.MultipartForm)
	if err != nil {
		h.discardUploads(sessionID)
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(photos) == 0 {
		h.writeError(w, "At least one photo is required. Use form fields: "+strings.Join(assessment.PhotoLabels, ", "), http.StatusBadRequest)
		return
	}

	factors := credit.ContextualFactors{
		BookTitle:        strings.TrimSpace(r.FormValue("title")),
		BookAuthor:       strings.TrimSpace(r.FormValue("author")),
		IsFirstTimeDonor: formBool(r, "first_time_donor"),
		IsThemeEvent:     formBool(r, "theme_event"),
		IsNewBook:        formBool(r, "new_book"),
		HasCraftMatch:    formBool(r, "craft_match"),
	}
	description := strings.TrimSpace(r.FormValue("description"))

	slog.Info("Assessing intake", "session_id", sessionID, "photos", len(photos), "provider", h.provider)

	start := time.Now()
	result, err := h.assessor.Assess(r.Context(), assessment.Request{Photos: photos, Description: description})
	metrics.AssessmentDuration.WithLabelValues(h.provider).Observe(time.Since(start).Seconds())
	metrics.AssessmentAttempts.WithLabelValues(h.provider).Add(float64(result.Attempts))
	if err != nil {
		metrics.IntakesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		h.discardUploads(sessionID)
		h.writeError(w, "Failed to assess book condition: "+err.Error(), http.StatusBadGateway)
		return
	}
	if result.Fallback {
		metrics.AssessmentFallbacks.Inc()
	}

	session := h.createIntakeSession(sessionID, description, images, factors, result)

	if err := h.store.Create(r.Context(), session); err != nil {
		h.discardUploads(sessionID)
		h.writeError(w, "Failed to save intake: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if session.Rejected() {
		metrics.IntakesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	} else {
		metrics.IntakesTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
		metrics.CreditsAwarded.Observe(session.Credit.FinalCredits)
	}

	slog.Info("Intake scored",
		"session_id", sessionID,
		"final_credits", session.Credit.FinalCredits,
		"rejected", session.Rejected(),
		"fallback", session.Fallback,
		"model", session.Model)

	h.writeJSONStatus(w, http.StatusCreated, session)
}

func (h *Handler) createIntakeSession(id, description string, images []models.ImageItem, factors credit.ContextualFactors, result assessment.Result) *models.IntakeSession {
	return &models.IntakeSession{
		ID:          id,
		Images:      images,
		Description: description,
		Factors:     factors,
		Visual:      result.Visual,
		Credit:      h.engine.Compute(result.Visual, factors),
		Provider:    h.provider,
		Model:       result.Model,
		Attempts:    result.Attempts,
		Fallback:    result.Fallback,
		CreatedAt:   h.now(),
	}
}

// readPhotos reads every file part whose field name is a known photo label
func (h *Handler) readPhotos(sessionID string, form *multipart.Form) ([]assessment.Photo, []models.ImageItem, error) {
	var photos []assessment.Photo
	var images []models.ImageItem

	for _, label := range assessment.PhotoLabels {
		for _, header := range form.File[label] {
			data, err := h.readPart(header)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read %s photo: %w", label, err)
			}

			mimeType := http.DetectContentType(data)
			if !strings.HasPrefix(mimeType, "image/") {
				return nil, nil, fmt.Errorf("%s photo is not an image (%s)", label, mimeType)
			}

			result, err := h.processImageFile(sessionID, data, mimeType, label)
			if err != nil {
				return nil, nil, err
			}

			photos = append(photos, assessment.Photo{Label: label, MIMEType: mimeType, Data: data})
			images = append(images, models.ImageItem{
				ID:          fmt.Sprintf("img_%d", len(images)+1),
				ImagePath:   result.ImageFilename,
				ImageURL:    "/uploads/" + result.ImageFilename,
				ImageType:   label,
				ImageWidth:  result.Width,
				ImageHeight: result.Height,
			})
		}
	}

	return photos, images, nil
}

func (h *Handler) readPart(header *multipart.FileHeader) ([]byte, error) {
	if header.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("file too large (max %dMB)", h.maxUploadBytes/1024/1024)
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, errors.New("file too large")
	}
	return data, nil
}

// formBool accepts strconv booleans plus the "on" value HTML checkboxes send
func formBool(r *http.Request, key string) bool {
	v := strings.TrimSpace(r.FormValue(key))
	if strings.EqualFold(v, "on") || strings.EqualFold(v, "yes") {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
