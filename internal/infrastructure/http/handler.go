package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	applisting "github.com/alinasirlou2020/mobile-shop/internal/application/listing"
	apppurchase "github.com/alinasirlou2020/mobile-shop/internal/application/purchase"
	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domainProduct "github.com/alinasirlou2020/mobile-shop/internal/domain/product"
	"github.com/alinasirlou2020/mobile-shop/internal/infrastructure/journal"
	"github.com/alinasirlou2020/mobile-shop/internal/observability"
)

const componentHTTPHandler = "http_server"

type Handler struct {
	listing  *applisting.AddProductUseCase
	purchase *apppurchase.BuyProductUseCase
	registry domainProduct.Registry
	journal  *journal.Worker
	log      observability.Logger
	tel      observability.Observability
}

func NewHandler(
	listing *applisting.AddProductUseCase,
	purchase *apppurchase.BuyProductUseCase,
	registry domainProduct.Registry,
	journalWorker *journal.Worker,
	logger observability.Logger,
	tel observability.Observability,
) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Handler{
		listing:  listing,
		purchase: purchase,
		registry: registry,
		journal:  journalWorker,
		log:      logger.With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(ObservabilityMiddleware(h.log, h.tel))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.handleAddProduct)
		r.Get("/{id}", h.handleGetProduct)
		r.Post("/{id}/purchase", h.handleBuyProduct)
	})
	r.Get("/sequence", h.handleSequence)
	r.Get("/journal", h.handleJournal)

	return r
}

type addProductRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Owner string `json:"owner"`
}

type productResponse struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Owner string `json:"owner"`
	Sold  bool   `json:"sold"`
}

func toProductResponse(p *domainProduct.Product) productResponse {
	return productResponse{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Owner: p.Owner.String(),
		Sold:  p.Sold,
	}
}

func (h *Handler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.listing.Execute(r.Context(), applisting.AddProductInput{
		Name:  req.Name,
		Price: req.Price,
		Owner: identity.ID(req.Owner),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.registry.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

type buyProductRequest struct {
	Buyer  string `json:"buyer"`
	Amount int64  `json:"amount"`
}

type receiptResponse struct {
	ProductID uint64 `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	NewOwner  string `json:"new_owner"`
	Sold      bool   `json:"sold"`
}

func (h *Handler) handleBuyProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req buyProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	receipt, err := h.purchase.Execute(r.Context(), apppurchase.BuyProductInput{
		ProductID: id,
		Buyer:     identity.ID(req.Buyer),
		Amount:    req.Amount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receiptResponse{
		ProductID: receipt.ProductID,
		Name:      receipt.Name,
		Price:     receipt.Price,
		NewOwner:  receipt.NewOwner.String(),
		Sold:      receipt.Sold,
	})
}

type sequenceResponse struct {
	Sequence uint64 `json:"sequence"`
}

func (h *Handler) handleSequence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sequenceResponse{Sequence: h.registry.Sequence(r.Context())})
}

type journalEntryResponse struct {
	Kind      string `json:"kind"`
	ProductID uint64 `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Party     string `json:"party"`
}

func (h *Handler) handleJournal(w http.ResponseWriter, _ *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusOK, []journalEntryResponse{})
		return
	}
	entries := h.journal.Entries()
	out := make([]journalEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, journalEntryResponse{
			Kind:      e.Kind,
			ProductID: e.ProductID,
			Name:      e.Name,
			Price:     e.Price,
			Party:     e.Party.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New("product id must be a positive integer")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainProduct.ErrNotFound),
		errors.Is(err, apppurchase.ErrInvalidID):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainProduct.ErrEmptyName),
		errors.Is(err, domainProduct.ErrZeroPrice),
		errors.Is(err, applisting.ErrValidation),
		errors.Is(err, apppurchase.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, apppurchase.ErrInsufficientPayment):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, apppurchase.ErrAlreadySold),
		errors.Is(err, apppurchase.ErrSelfPurchase),
		errors.Is(err, apppurchase.ErrReentrancy):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, apppurchase.ErrRefundTransfer),
		errors.Is(err, apppurchase.ErrSellerTransfer):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
