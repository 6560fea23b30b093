package api

import (
	"database/sql"
	"net/http"

	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/store"
)

// ParticipantsHandler serves read-only participant, ticket and stats views.
type ParticipantsHandler struct {
	DB *sql.DB
}

type participantResponse struct {
	*model.Participant
	Tickets []model.Ticket `json:"tickets"`
}

// List handles GET /api/participants.
func (h *ParticipantsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	participants, err := store.ListParticipants(r.Context(), h.DB, limit)
	if err != nil {
		domainError(w, "list participants", err)
		return
	}
	if participants == nil {
		participants = []model.Participant{}
	}
	jsonResponse(w, http.StatusOK, participants)
}

// Get handles GET /api/participants/{id}.
func (h *ParticipantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := store.GetParticipant(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		domainError(w, "get participant", err)
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "participant not found")
		return
	}

	tickets, err := store.ListParticipantTickets(r.Context(), h.DB, p.ID)
	if err != nil {
		domainError(w, "get participant", err)
		return
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	jsonResponse(w, http.StatusOK, participantResponse{Participant: p, Tickets: tickets})
}

// Ticket handles GET /api/tickets/{id}.
func (h *ParticipantsHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	t, err := store.GetTicket(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		domainError(w, "get ticket", err)
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "ticket not found")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Stats handles GET /api/stats.
func (h *ParticipantsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetStats(r.Context(), h.DB)
	if err != nil {
		domainError(w, "stats", err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
