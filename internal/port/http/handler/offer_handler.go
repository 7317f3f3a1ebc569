package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/AlphaIsYour/creanomic-sub002/internal/port/http/middleware"
	"github.com/AlphaIsYour/creanomic-sub002/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxPhotoSize = 5 << 20 // 5 MiB

type OfferHandler struct {
	offers  service.OfferService
	logger  logger.Logger
	metrics *metrics.MetricsManager
}

func NewOfferHandler(offers service.OfferService, log logger.Logger, m *metrics.MetricsManager) *OfferHandler {
	return &OfferHandler{
		offers:  offers,
		logger:  log,
		metrics: m,
	}
}

type createOfferRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	MaterialType   string   `json:"materialType"`
	Weight         *float64 `json:"weight,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	OfferType      string   `json:"offerType"`
	SuggestedPrice *float64 `json:"suggestedPrice,omitempty"`
	Images         []string `json:"images,omitempty"`
	Address        string   `json:"address"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
}

func (h *OfferHandler) HandleCreateOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{Kind: KindUnauthenticated, Message: "authentication required"}})
		return
	}

	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "invalid request body"}})
		return
	}

	offer, err := h.offers.CreateOffer(r.Context(), userID, service.CreateOfferInput{
		Title:          req.Title,
		Description:    req.Description,
		MaterialType:   req.MaterialType,
		Weight:         req.Weight,
		Condition:      req.Condition,
		OfferType:      req.OfferType,
		SuggestedPrice: req.SuggestedPrice,
		Images:         req.Images,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
	})
	if err != nil {
		writeError(w, h.logger, h.metrics, "CreateOffer", err)
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

func (h *OfferHandler) HandleGetOffer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.offers.GetOffer(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, h.metrics, "GetOffer", err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *OfferHandler) HandleGetOfferStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{Kind: KindUnauthenticated, Message: "authentication required"}})
		return
	}

	stats, err := h.offers.GetOfferStats(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, h.metrics, "GetOfferStats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

type transitionStatusRequest struct {
	Status string `json:"status"`
}

func (h *OfferHandler) HandleTransitionStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{Kind: KindUnauthenticated, Message: "authentication required"}})
		return
	}

	id := chi.URLParam(r, "id")
	var req transitionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "invalid request body"}})
		return
	}

	detail, err := h.offers.TransitionStatus(r.Context(), id, userID, req.Status)
	if err != nil {
		writeError(w, h.logger, h.metrics, "TransitionStatus", err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *OfferHandler) HandleSearchOffers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	offers, err := h.offers.SearchOffers(r.Context(), query)
	if err != nil {
		writeError(w, h.logger, h.metrics, "SearchOffers", err)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) HandleListMyOffers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{Kind: KindUnauthenticated, Message: "authentication required"}})
		return
	}

	offers, err := h.offers.ListUserOffers(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, h.metrics, "ListMyOffers", err)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{Kind: KindUnauthenticated, Message: "authentication required"}})
		return
	}

	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "invalid multipart form"}})
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "photo file is required"}})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "failed to read photo"}})
		return
	}

	url, err := h.offers.UploadPhoto(r.Context(), id, userID, header.Filename, data)
	if err != nil {
		writeError(w, h.logger, h.metrics, "UploadPhoto", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
