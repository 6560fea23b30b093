package api

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/raffle"
	"github.com/promoraffle/promoraffle/internal/store"
)

// maxCSVUpload caps an inventory CSV upload.
const maxCSVUpload = 32 << 20

// InventoryHandler handles inventory import and lookup endpoints.
type InventoryHandler struct {
	DB      *sql.DB
	Service *raffle.Service
}

type importRequest struct {
	Rows []model.ImportRow `json:"rows"`
}

// importFailure reports how far a failed import got. Batches that committed
// before the failure stay imported.
type importFailure struct {
	errorResponse
	BatchID  string `json:"batch_id"`
	Imported int    `json:"imported"`
}

// Import handles POST /api/inventory/import.
func (h *InventoryHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	h.runImport(w, r, req.Rows)
}

// ImportCSV handles POST /api/inventory/import/csv.
func (h *InventoryHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCSVUpload)

	if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
		badRequest(w, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "csv file required")
		return
	}
	defer file.Close()

	rows, err := parseInventoryCSV(file)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	h.runImport(w, r, rows)
}

func (h *InventoryHandler) runImport(w http.ResponseWriter, r *http.Request, rows []model.ImportRow) {
	res, err := h.Service.ImportInventory(r.Context(), rows)
	if err != nil {
		if res == nil {
			domainError(w, "import inventory", err)
			return
		}
		status, body := errorBody("import inventory", err)
		writeError(w, status, importFailure{errorResponse: body, BatchID: res.BatchID, Imported: res.Imported})
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("inventory import requested", "user", claims.Username, "batch", res.BatchID, "rows", len(rows))
	jsonResponse(w, http.StatusOK, res)
}

// parseInventoryCSV reads SERIAL,MODEL[,PRODUCT] rows after a header line.
// Columns are located by header name; records without a serial are skipped.
func parseInventoryCSV(r io.Reader) ([]model.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	serialCol, modelCol, productCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "SERIAL", "CODE":
			serialCol = i
		case "MODEL":
			modelCol = i
		case "PRODUCT", "PRODUCT_REF":
			productCol = i
		}
	}
	if serialCol < 0 {
		return nil, errors.New("csv header must contain a SERIAL column")
	}

	field := func(record []string, col int) string {
		if col < 0 || col >= len(record) {
			return ""
		}
		return record[col]
	}

	var rows []model.ImportRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		serial := field(record, serialCol)
		if strings.TrimSpace(serial) == "" {
			slog.Debug("skipping csv record without serial", "record", record)
			continue
		}
		rows = append(rows, model.ImportRow{
			Code:       serial,
			Model:      field(record, modelCol),
			ProductRef: field(record, productCol),
		})
	}
	return rows, nil
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var consumed *bool
	if v := r.URL.Query().Get("consumed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "consumed must be true or false")
			return
		}
		consumed = &b
	}

	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	codes, err := store.ListInventory(r.Context(), h.DB, consumed, limit)
	if err != nil {
		domainError(w, "list inventory", err)
		return
	}
	if codes == nil {
		codes = []model.InventoryCode{}
	}
	jsonResponse(w, http.StatusOK, codes)
}

// Get handles GET /api/inventory/{code}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, err := store.GetInventoryCode(r.Context(), h.DB, model.NormalizeSerial(r.PathValue("code")))
	if err != nil {
		domainError(w, "get inventory code", err)
		return
	}
	if code == nil {
		jsonError(w, http.StatusNotFound, "inventory code not found")
		return
	}
	jsonResponse(w, http.StatusOK, code)
}

// defaultListLimit applies when a list request names no limit.
const defaultListLimit = 500

// queryLimit parses ?limit=, writing a 400 on bad input.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 1 {
		badRequest(w, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}
