package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dipwatch/dipwatch/internal/selection"
	"github.com/dipwatch/dipwatch/internal/user"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// UserStore is the part of the user repository the API needs.
type UserStore interface {
	Create(ctx context.Context, phoneNumber string, email *string) (*user.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*user.User, error)
	GetPreferences(ctx context.Context, userID int64) (*user.Preferences, error)
	SavePreferences(ctx context.Context, prefs *user.Preferences) error
	AddToWatchlist(ctx context.Context, userID int64, ticker string) error
	RemoveFromWatchlist(ctx context.Context, userID int64, ticker string) error
	Watchlist(ctx context.Context, userID int64) ([]string, error)
}

// UsersHandler manages subscribers and their preferences.
type UsersHandler struct {
	store  UserStore
	finder *selection.Finder
	logger *logger.Logger
}

func NewUsersHandler(store UserStore, finder *selection.Finder, log *logger.Logger) *UsersHandler {
	return &UsersHandler{
		store:  store,
		finder: finder,
		logger: log,
	}
}

type createUserRequest struct {
	PhoneNumber string  `json:"phone_number"`
	Email       *string `json:"email,omitempty"`
}

// Create handles POST /api/users. New users start on the default
// value-investing preset.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		respondError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	u, err := h.store.Create(r.Context(), req.PhoneNumber, req.Email)
	if err != nil {
		h.logger.WithError(err).Error("failed to create user")
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, u)
}

// GetPreferences handles GET /api/users/{phone}/preferences.
func (h *UsersHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	prefs, err := h.store.GetPreferences(r.Context(), u.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to load preferences")
		respondError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

// SavePreferences handles PUT /api/users/{phone}/preferences.
func (h *UsersHandler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	var prefs user.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !prefs.Band.Valid() {
		respondError(w, http.StatusBadRequest, "unknown alert band: "+string(prefs.Band))
		return
	}
	prefs.UserID = u.ID

	if err := h.store.SavePreferences(r.Context(), &prefs); err != nil {
		h.logger.WithError(err).Error("failed to save preferences")
		respondError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

// Opportunities handles GET /api/users/{phone}/opportunities, running
// the finder against the user's preferences without sending anything.
func (h *UsersHandler) Opportunities(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	prefs, err := h.store.GetPreferences(r.Context(), u.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to load preferences")
		respondError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}

	opps, err := h.finder.FindTop(r.Context(), prefs, 10)
	if err != nil {
		h.logger.WithError(err).Error("opportunity scan failed")
		respondError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	type entry struct {
		Ticker       string   `json:"ticker"`
		Score        float64  `json:"score"`
		DropFromHigh float64  `json:"drop_from_high"`
		Reasons      []string `json:"reasons"`
	}
	results := make([]entry, 0, len(opps))
	for _, opp := range opps {
		results = append(results, entry{
			Ticker:       opp.Ticker(),
			Score:        opp.Score,
			DropFromHigh: opp.DropFromHigh,
			Reasons:      opp.Reasons,
		})
	}

	respondJSON(w, http.StatusOK, results)
}

// Watchlist handles GET /api/users/{phone}/watchlist.
func (h *UsersHandler) Watchlist(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	tickers, err := h.store.Watchlist(r.Context(), u.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to load watchlist")
		respondError(w, http.StatusInternalServerError, "failed to load watchlist")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tickers": tickers})
}

// AddWatch handles POST /api/users/{phone}/watchlist/{ticker}.
func (h *UsersHandler) AddWatch(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	if err := h.store.AddToWatchlist(r.Context(), u.ID, ticker); err != nil {
		h.logger.WithError(err).Error("failed to add watchlist entry")
		respondError(w, http.StatusInternalServerError, "failed to update watchlist")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"ticker": ticker})
}

// RemoveWatch handles DELETE /api/users/{phone}/watchlist/{ticker}.
func (h *UsersHandler) RemoveWatch(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	if err := h.store.RemoveFromWatchlist(r.Context(), u.ID, ticker); err != nil {
		h.logger.WithError(err).Error("failed to remove watchlist entry")
		respondError(w, http.StatusInternalServerError, "failed to update watchlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) lookupUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	phone := mux.Vars(r)["phone"]

	u, err := h.store.GetByPhone(r.Context(), phone)
	if err != nil {
		h.logger.WithError(err).Error("user lookup failed")
		respondError(w, http.StatusInternalServerError, "user lookup failed")
		return nil, false
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return nil, false
	}

	return u, true
}
