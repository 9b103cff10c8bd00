package handlers

import (
	"errors"
	"net/http"

	"github.com/equitysim/paper-trading/internal/auth"
	"github.com/equitysim/paper-trading/internal/ledger"
	"github.com/equitysim/paper-trading/internal/models"
	"github.com/equitysim/paper-trading/internal/portfolio"
	"github.com/equitysim/paper-trading/internal/quotes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionCookie = "session"

// Handler wires the portfolio engine and collaborators to the HTTP surface.
type Handler struct {
	engine   *portfolio.Engine
	auth     *auth.Service
	sessions *auth.Sessions
	quotes   quotes.Service
	logger   *zap.Logger
}

// New creates the HTTP handler set.
func New(engine *portfolio.Engine, authSvc *auth.Service, sessions *auth.Sessions, quoteSvc quotes.Service, logger *zap.Logger) *Handler {
	return &Handler{
		engine:   engine,
		auth:     authSvc,
		sessions: sessions,
		quotes:   quoteSvc,
		logger:   logger,
	}
}

// Register handles POST /api/register
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSession(c, user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"cash":     user.Cash,
	})
}

// Login handles POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSession(c, user.ID)
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Logout handles POST /api/logout
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		h.sessions.Destroy(token)
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Quote handles GET /api/quote/:symbol
func (h *Handler) Quote(c *gin.Context) {
	q, err := h.quotes.Lookup(c.Request.Context(), c.Param("symbol"))
	if errors.Is(err, quotes.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid symbol"})
		return
	}
	if err != nil {
		h.logger.Error("Quote lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Quote lookup failed"})
		return
	}
	c.JSON(http.StatusOK, q)
}

// Buy handles POST /api/trades/buy
func (h *Handler) Buy(c *gin.Context) {
	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Buy(c.Request.Context(), currentUserID(c), req.Symbol, req.Shares); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trade executed successfully"})
}

// Sell handles POST /api/trades/sell
func (h *Handler) Sell(c *gin.Context) {
	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Sell(c.Request.Context(), currentUserID(c), req.Symbol, req.Shares); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shares sold successfully"})
}

// Portfolio handles GET /api/portfolio
func (h *Handler) Portfolio(c *gin.Context) {
	view, err := h.engine.View(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// History handles GET /api/history
func (h *Handler) History(c *gin.Context) {
	txns, err := h.engine.History(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": txns,
		"count":        len(txns),
	})
}

// ChangePassword handles POST /api/password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), currentUserID(c), req.Current, req.New, req.Confirmation)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

func (h *Handler) setSession(c *gin.Context, userID int64) {
	token := h.sessions.Create(userID)
	c.SetCookie(sessionCookie, token, 86400, "/", "", false, true)
}

// respondError maps the error taxonomy to HTTP responses. Anything outside
// the taxonomy is a storage-level failure: logged, answered generically.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, portfolio.ErrValidation), errors.Is(err, auth.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, portfolio.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, portfolio.ErrInsufficientShares):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient shares"})
	case errors.Is(err, portfolio.ErrSymbolNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid symbol"})
	case errors.Is(err, ledger.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ledger.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
