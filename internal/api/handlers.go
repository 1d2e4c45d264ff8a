package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Owujuah/Finatera/internal/models"
)

const maxBodyBytes = 1 << 20

// AccountService registers, authenticates and looks up account holders.
type AccountService interface {
	Register(ctx context.Context, name, email, credential string) (string, error)
	Authenticate(ctx context.Context, email, credential string) (string, error)
	Profile(ctx context.Context, id string) (*models.Account, error)
}

// TransferService moves money and lists a sender's history.
type TransferService interface {
	Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferRecord, error)
	ListTransactions(ctx context.Context, senderID string, filter models.StatusFilter, search string) ([]models.TransferRecord, error)
	FormatDate(rec models.TransferRecord) string
}

// LoginLimiter caps login attempts per email.
type LoginLimiter interface {
	Consume(ctx context.Context, scope, subject string, limit int, window time.Duration) (allowed bool, retryAfter int, err error)
}

type Handler struct {
	accounts  AccountService
	transfers TransferService
	tokens    *TokenIssuer
	logger    *logrus.Logger

	limiter    LoginLimiter
	loginLimit int
}

func NewHandler(accounts AccountService, transfers TransferService, tokens *TokenIssuer, logger *logrus.Logger) *Handler {
	return &Handler{accounts: accounts, transfers: transfers, tokens: tokens, logger: logger}
}

// WithLoginLimit enables login throttling at perMinute attempts per email.
func (h *Handler) WithLoginLimit(limiter LoginLimiter, perMinute int) *Handler {
	h.limiter = limiter
	h.loginLimit = perMinute
	return h
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", models.ErrValidation)
	}
	return nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSession(w, http.StatusCreated, id)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if h.limiter != nil {
		allowed, retryAfter, err := h.limiter.Consume(r.Context(), "login", req.Email, h.loginLimit, time.Minute)
		switch {
		case err != nil:
			// fail open
			h.logger.WithError(err).Warn("login rate limiter unavailable")
		case !allowed:
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, models.ErrTooManyLoginAttempts)
			return
		}
	}

	id, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, id)
}

func (h *Handler) writeSession(w http.ResponseWriter, code int, accountID string) {
	token, err := h.tokens.Issue(accountID)
	if err != nil {
		h.logger.WithError(err).Error("failed to sign session token")
		writeError(w, err)
		return
	}
	writeJSON(w, code, sessionResponse{ID: accountID, Token: token})
}

type cardSummary struct {
	Masked string `json:"masked"`
	Brand  string `json:"brand"`
	Expiry string `json:"expiry"`
}

type accountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	Card      cardSummary     `json:"card"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *Handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.accounts.Profile(r.Context(), AccountIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		ID:      acc.ID,
		Name:    acc.Name,
		Email:   acc.Email,
		Balance: acc.Balance,
		Card: cardSummary{
			Masked: acc.Card.Masked(),
			Brand:  acc.Card.Brand(),
			Expiry: acc.Card.Expiry,
		},
		CreatedAt: acc.CreatedAt,
	})
}

type cardResponse struct {
	models.Card
	Brand string `json:"brand"`
}

func (h *Handler) handleCard(w http.ResponseWriter, r *http.Request) {
	acc, err := h.accounts.Profile(r.Context(), AccountIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, cardResponse{Card: acc.Card, Brand: acc.Card.Brand()})
}

type transferRequest struct {
	ReceiverName    string          `json:"receiver_name"`
	ReceiverAccount string          `json:"receiver_account"`
	Amount          json.RawMessage `json:"amount"`
}

// amountText accepts the amount as a JSON number or string.
func amountText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return ""
	}
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	return string(raw)
}

type transactionView struct {
	models.TransferRecord
	DisplayDate string `json:"display_date"`
}

func (h *Handler) view(rec models.TransferRecord) transactionView {
	return transactionView{TransferRecord: rec, DisplayDate: h.transfers.FormatDate(rec)}
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.transfers.Transfer(r.Context(), models.TransferRequest{
		SenderID:        AccountIDFromContext(r.Context()),
		ReceiverName:    req.ReceiverName,
		ReceiverAccount: req.ReceiverAccount,
		Amount:          amountText(req.Amount),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(*rec))
}

type historyResponse struct {
	Transactions []transactionView `json:"transactions"`
	Empty        bool              `json:"empty"`
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := models.ParseStatusFilter(query.Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	recs, err := h.transfers.ListTransactions(r.Context(), AccountIDFromContext(r.Context()), filter, query.Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]transactionView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, h.view(rec))
	}
	writeJSON(w, http.StatusOK, historyResponse{Transactions: views, Empty: len(views) == 0})
}
