package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/promoraffle/promoraffle/internal/imaging"
	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/raffle"
	"github.com/promoraffle/promoraffle/internal/store"
)

// RegistrationsHandler serves the public participant endpoints.
type RegistrationsHandler struct {
	Service *raffle.Service
}

// CheckSerial handles GET /api/serials/{serial}.
func (h *RegistrationsHandler) CheckSerial(w http.ResponseWriter, r *http.Request) {
	check, err := h.Service.ValidateSerial(r.Context(), r.PathValue("serial"))
	if err != nil {
		domainError(w, "check serial", err)
		return
	}
	jsonResponse(w, http.StatusOK, check)
}

// Register handles POST /api/registrations.
func (h *RegistrationsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	res, err := h.Service.Register(r.Context(), req)
	if err != nil {
		domainError(w, "register", err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

// EvidenceHandler stores and serves proof-of-purchase images.
type EvidenceHandler struct {
	DB *sql.DB
}

type evidenceResponse struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Upload handles POST /api/evidence.
func (h *EvidenceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		badRequest(w, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "image file required")
		return
	}
	defer file.Close()

	ev, err := imaging.Process(file)
	if err != nil {
		domainError(w, "process evidence", err)
		return
	}

	id := uuid.NewString()
	if err := store.CreateEvidence(r.Context(), h.DB, id, ev.Data, ev.MIME); err != nil {
		domainError(w, "store evidence", err)
		return
	}

	slog.Info("evidence uploaded", "id", id, "bytes", len(ev.Data), "width", ev.Width, "height", ev.Height)
	jsonResponse(w, http.StatusCreated, evidenceResponse{Path: "evidence/" + id, Width: ev.Width, Height: ev.Height})
}

// Get handles GET /api/evidence/{id}.
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := store.GetEvidence(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		domainError(w, "get evidence", err)
		return
	}
	if ev == nil {
		jsonError(w, http.StatusNotFound, "evidence not found")
		return
	}

	w.Header().Set("Content-Type", ev.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(ev.Data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Write(ev.Data)
}
