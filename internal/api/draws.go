package api

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/raffle"
	"github.com/promoraffle/promoraffle/internal/store"
)

// DrawsHandler handles raffle draws and the winners list.
type DrawsHandler struct {
	DB      *sql.DB
	Service *raffle.Service
}

// Draw handles POST /api/draws. The body is optional.
func (h *DrawsHandler) Draw(w http.ResponseWriter, r *http.Request) {
	var req raffle.DrawRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request body")
		return
	}
	req.DrawnBy = GetClaims(r.Context()).Username

	winner, err := h.Service.DrawWinner(r.Context(), req)
	if err != nil {
		domainError(w, "draw", err)
		return
	}
	jsonResponse(w, http.StatusCreated, winner)
}

// Winners handles GET /api/winners.
func (h *DrawsHandler) Winners(w http.ResponseWriter, r *http.Request) {
	winners, err := store.ListWinners(r.Context(), h.DB)
	if err != nil {
		domainError(w, "list winners", err)
		return
	}
	if winners == nil {
		winners = []model.Winner{}
	}
	jsonResponse(w, http.StatusOK, winners)
}

var winnersCSVHeader = []string{
	"ticket_id", "full_name", "national_id", "city", "email", "phone",
	"product_model", "serial", "drawn_at", "drawn_by", "times_drawn",
}

// ExportWinners handles GET /api/winners/export.
func (h *DrawsHandler) ExportWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := store.ListWinners(r.Context(), h.DB)
	if err != nil {
		domainError(w, "export winners", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=winners.csv")

	// BOM so spreadsheet tools detect UTF-8.
	w.Write([]byte("\xef\xbb\xbf"))

	cw := csv.NewWriter(w)
	cw.Write(winnersCSVHeader)
	for _, win := range winners {
		cw.Write([]string{
			win.TicketID, win.FullName, win.NationalID, win.City, win.Email, win.Phone,
			win.ProductModel, win.Serial, win.DrawnAt.UTC().Format(time.RFC3339), win.DrawnBy,
			strconv.Itoa(win.TimesDrawn),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("writing winners csv", "error", err)
	}
}
