package api

import (
	"net/http"

	"github.com/promoraffle/promoraffle/internal/auth"
	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/raffle"
)

// NewRouter creates the API router with all endpoints registered. catalog is
// the product list applied by POST /api/products/seed.
func NewRouter(svc *raffle.Service, tokens *auth.Tokens, catalog []model.Product) http.Handler {
	mux := http.NewServeMux()
	db := svc.DB

	authHandler := &AuthHandler{DB: db, Tokens: tokens}
	usersHandler := &UsersHandler{DB: db}
	registrationsHandler := &RegistrationsHandler{Service: svc}
	evidenceHandler := &EvidenceHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db, Service: svc}
	productsHandler := &ProductsHandler{DB: db, Catalog: catalog}
	drawsHandler := &DrawsHandler{DB: db, Service: svc}
	participantsHandler := &ParticipantsHandler{DB: db}
	configHandler := &ConfigHandler{Service: svc}

	authMW := AuthMiddleware(tokens, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireOperator := RequireRole(model.RoleOperator)
	requireViewer := RequireRole(model.RoleViewer)

	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }
	operator := func(h http.HandlerFunc) http.Handler { return authMW(requireOperator(h)) }
	viewer := func(h http.HandlerFunc) http.Handler { return authMW(requireViewer(h)) }

	// Public: participant flow and login.
	mux.HandleFunc("GET /api/serials/{serial}", registrationsHandler.CheckSerial)
	mux.HandleFunc("POST /api/registrations", registrationsHandler.Register)
	mux.HandleFunc("POST /api/evidence", evidenceHandler.Upload)
	mux.HandleFunc("GET /api/config", configHandler.Get)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Campaign config: write (admin).
	mux.Handle("PUT /api/config", admin(configHandler.Put))

	// Products: read (all roles), write (admin).
	mux.Handle("GET /api/products", viewer(productsHandler.List))
	mux.Handle("GET /api/products/{key}", viewer(productsHandler.Get))
	mux.Handle("PUT /api/products/{key}", admin(productsHandler.Put))
	mux.Handle("DELETE /api/products/{key}", admin(productsHandler.Delete))
	mux.Handle("POST /api/products/seed", admin(productsHandler.Seed))

	// Inventory: read (all roles), import (operator+).
	mux.Handle("GET /api/inventory", viewer(inventoryHandler.List))
	mux.Handle("GET /api/inventory/{code}", viewer(inventoryHandler.Get))
	mux.Handle("POST /api/inventory/import", operator(inventoryHandler.Import))
	mux.Handle("POST /api/inventory/import/csv", operator(inventoryHandler.ImportCSV))

	// Participants, tickets and stats (all roles).
	mux.Handle("GET /api/participants", viewer(participantsHandler.List))
	mux.Handle("GET /api/participants/{id}", viewer(participantsHandler.Get))
	mux.Handle("GET /api/tickets/{id}", viewer(participantsHandler.Ticket))
	mux.Handle("GET /api/stats", viewer(participantsHandler.Stats))

	// Evidence images carry personal data (operator+).
	mux.Handle("GET /api/evidence/{id}", operator(evidenceHandler.Get))

	// Draws (admin), winners (operator+).
	mux.Handle("POST /api/draws", admin(drawsHandler.Draw))
	mux.Handle("GET /api/winners", operator(drawsHandler.Winners))
	mux.Handle("GET /api/winners/export", operator(drawsHandler.ExportWinners))

	return mux
}
