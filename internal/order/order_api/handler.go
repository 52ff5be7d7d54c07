package order_api

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"bom-tracker/internal/auth"
	"bom-tracker/internal/bom"
	"bom-tracker/internal/logger"
	"bom-tracker/internal/models"
	"bom-tracker/internal/order"
	"bom-tracker/internal/sse"
	"bom-tracker/internal/utils"
	"bom-tracker/internal/view"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Events       *sse.OrderEventEmitter
	Logger       *logger.Logger
	// PublicBaseURL is what QR labels point at.
	PublicBaseURL string
}

func NewHandler(orderService *order.OrderService, events *sse.OrderEventEmitter, publicBaseURL string, log *logger.Logger) *Handler {
	return &Handler{
		OrderService:  orderService,
		Events:        events,
		Logger:        log,
		PublicBaseURL: publicBaseURL,
	}
}

// Routes mounts the order API. Every route expects auth.RequireSession in front.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/events", h.StreamOrderEvents)

		r.Route("/{orderId}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Put("/", h.UpdateOrder)
			r.Post("/boms", h.AppendVersion)
			r.Get("/boms/{version}", h.GetVersion)
			r.Get("/boms/{version}/export.csv", h.ExportCSV)
			r.Get("/boms/{version}/export.xlsx", h.ExportXLSX)
			r.Get("/boms/{version}/qr.png", h.QRCode)
		})
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, "ListOrders", err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	created, err := h.OrderService.CreateOrder(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.fail(w, "CreateOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	o, err := h.OrderService.GetOrder(r.Context(), orderID, auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, "GetOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req models.UpdateOrderRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	updated, err := h.OrderService.UpdateOrder(r.Context(), orderID, auth.UserID(r.Context()), req)
	if err != nil {
		h.fail(w, "UpdateOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) AppendVersion(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var draft models.BomDraft
	if !utils.DecodeJSON(w, r, &draft) {
		return
	}

	version, err := h.OrderService.AppendVersion(r.Context(), orderID, auth.UserID(r.Context()), draft)
	if err != nil {
		h.fail(w, "AppendVersion", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, version)
}

// GetVersion returns the version laid out against its predecessor.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	o, index, ok := h.loadVersion(w, r)
	if !ok {
		return
	}

	comparison, err := view.BuildComparison(*o, index)
	if err != nil {
		h.fail(w, "GetVersion", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, comparison)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	o, index, ok := h.loadVersion(w, r)
	if !ok {
		return
	}
	version := o.Boms[index]

	export, charset := bom.ExportCSV, "utf-8"
	if r.URL.Query().Get("encoding") == "gbk" {
		export, charset = bom.ExportCSVGBK, "gbk"
	}
	data, err := export(version)
	if err != nil {
		h.fail(w, "ExportCSV", err)
		return
	}

	setAttachment(w, "text/csv; charset="+charset, bom.FileName(o.OrderNumber, version.Version, "csv"))
	_, _ = w.Write(data)
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	o, index, ok := h.loadVersion(w, r)
	if !ok {
		return
	}
	version := o.Boms[index]

	f, err := bom.ExportXLSX(version, o.OrderNumber)
	if err != nil {
		h.fail(w, "ExportXLSX", err)
		return
	}
	defer f.Close()

	setAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		bom.FileName(o.OrderNumber, version.Version, "xlsx"))
	if _, err := f.WriteTo(w); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ExportXLSX: write: %v", err))
	}
}

func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	o, index, ok := h.loadVersion(w, r)
	if !ok {
		return
	}

	png, err := bom.QRCode(bom.VersionURL(h.PublicBaseURL, o.ID, o.Boms[index].Version))
	if err != nil {
		h.fail(w, "QRCode", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// Dashboard returns the order overview split into active and archived orders.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, "Dashboard", err)
		return
	}

	snapshot := view.New().WithSession(true)
	if mode := r.URL.Query().Get("mode"); mode != "" {
		snapshot = snapshot.WithHistoryViewMode(view.HistoryViewMode(mode))
	}
	if sort := r.URL.Query().Get("sort"); sort != "" {
		snapshot = snapshot.WithHistorySort(view.SortOrder(sort))
	}
	snapshot = snapshot.WithOrders(orders)

	utils.WriteJSON(w, http.StatusOK, snapshot)
}

// loadVersion resolves the {orderId} and 1-based {version} parameters to the
// order and the zero-based index of the version.
func (h *Handler) loadVersion(w http.ResponseWriter, r *http.Request) (*models.Order, int, bool) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return nil, 0, false
	}

	o, err := h.OrderService.GetOrder(r.Context(), orderID, auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, "GetVersion", err)
		return nil, 0, false
	}

	number, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || number < 1 || number > len(o.Boms) {
		utils.WriteServiceError(w, fmt.Errorf("%w: version %q of order %s", models.ErrIndexOutOfRange, chi.URLParam(r, "version"), o.OrderNumber))
		return nil, 0, false
	}
	return o, number - 1, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if order.IsClientError(err) {
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	}
	utils.WriteServiceError(w, err)
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "orderId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		utils.WriteError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("no order %q", raw))
		return 0, false
	}
	return id, true
}

func setAttachment(w http.ResponseWriter, contentType, fileName string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
}
