package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safar/store-dashboard/internal/dashboard"
	"go.uber.org/zap"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the dashboard components behind the routes.
type Services struct {
	Stats     *dashboard.StatsAggregator
	Inventory *dashboard.InventoryEngine
	Orders    *dashboard.OrderCalculator
	Members   *dashboard.MemberDirectory
	Invoices  *dashboard.InvoiceLocator
	Store     Pinger
}

type Options struct {
	JWTSecret      string
	AllowedOrigins string
	MaxBodyBytes   int64
	DefaultPerPage int
	MaxPerPage     int
}

type Handler struct {
	svc  Services
	opts Options
	log  *zap.Logger
}

// NewRouter wires every dashboard route behind the capability gate.
func NewRouter(svc Services, opts Options, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultPerPage < 1 {
		opts.DefaultPerPage = 10
	}
	if opts.MaxPerPage < opts.DefaultPerPage {
		opts.MaxPerPage = 100
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	h := &Handler{svc: svc, opts: opts, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins))
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", h.health)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(opts.JWTSecret))
		r.Use(RequireCapability(CapabilityManageStore, CapabilityManageOptions))
		r.Use(RequestBodyLimit(opts.MaxBodyBytes))

		r.Get("/dashboard-stats", h.stats)

		r.Get("/inventory", h.listInventory)
		r.Get("/inventory/export", h.exportInventory)
		r.Post("/inventory/update", h.updateInventory)
		r.Post("/products", h.createProduct)

		r.Get("/members", h.listMembers)

		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id:[0-9]+}/invoice", h.invoice)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.svc.Store != nil {
		if err := h.svc.Store.Ping(r.Context()); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			writeError(w, r, "store unreachable", codeStoreUnavailable, http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats.Stats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r, h.opts.DefaultPerPage, h.opts.MaxPerPage)
	items, err := h.svc.Inventory.ListInventory(r.Context(), page, perPage)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// exportInventory buffers the whole CSV so a store failure can still be
// reported as a JSON error.
func (h *Handler) exportInventory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.Inventory.ExportInventoryCSV(r.Context(), &buf); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type updateResponse struct {
	Updated []int64 `json:"updated"`
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.svc.Inventory.UpdateInventory(r.Context(), decodePatches(req.Updates))
	if err != nil {
		if len(updated) > 0 {
			h.log.Warn("inventory update stopped part way",
				zap.Int64s("saved", updated),
				zap.String("request_id", requestIDFromContext(r.Context())))
		}
		resp, status := h.mapError(r, err)
		resp.Updated = updated
		writeErrorResponse(w, r, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, updateResponse{Updated: updated})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in dashboard.NewProduct
	if !decodeJSON(w, r, &in) {
		return
	}

	item, err := h.svc.Inventory.CreateProduct(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Members.ListMembers(r.Context()))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r, h.opts.DefaultPerPage, h.opts.MaxPerPage)
	orders, err := h.svc.Orders.ListOrders(r.Context(), page, perPage)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	url := h.svc.Invoices.Placeholder()
	if id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64); err == nil {
		url = h.svc.Invoices.InvoiceURL(r.Context(), id)
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
