package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/internal/auth"
	"papertrade/internal/ledger"
	"papertrade/internal/models"
	"papertrade/internal/quote"
)

type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type registerRequest struct {
	Username     string `form:"username" binding:"required"`
	Password     string `form:"password" binding:"required"`
	Confirmation string `form:"confirmation" binding:"required"`
}

type quoteRequest struct {
	Symbol string `form:"symbol" binding:"required"`
}

type buyRequest struct {
	Symbol string `form:"symbol" binding:"required"`
	Shares int64  `form:"shares" binding:"required,gt=0"`
}

type sellRequest struct {
	HoldingID uint  `form:"holding_id" binding:"required"`
	Shares    int64 `form:"shares" binding:"required,gt=0"`
}

// serverError logs the cause and shows the user a detail-free apology.
func (s *Server) serverError(c *gin.Context, err error) {
	s.logger.Error("Unhandled error", zap.String("path", c.Request.URL.Path), zap.Error(err))
	s.apology(c, http.StatusInternalServerError, "something went wrong")
}

// startSession replaces whatever session exists with one for the given user.
func (s *Server) startSession(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, userID)
	return session.Save()
}

func (s *Server) loginForm(c *gin.Context) {
	// Reaching the login page forgets any logged-in user.
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		s.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, "login.html", nil)
}

func (s *Server) login(c *gin.Context) {
	// Reaching the login route forgets any logged-in user, whether or not
	// the attempt below succeeds.
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		s.serverError(c, err)
		return
	}

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.apology(c, http.StatusForbidden, "must provide username and password")
		return
	}

	user, err := s.auth.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.apology(c, http.StatusForbidden, "invalid username and/or password")
			return
		}
		s.serverError(c, err)
		return
	}

	if err := s.startSession(c, user.ID); err != nil {
		s.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) registerForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", nil)
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		s.apology(c, http.StatusForbidden, "must provide username, password and confirmation")
		return
	}
	if req.Password != req.Confirmation {
		s.apology(c, http.StatusForbidden, "passwords do not match")
		return
	}

	user, err := s.auth.Register(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			s.apology(c, http.StatusForbidden, "username is already taken")
			return
		}
		s.serverError(c, err)
		return
	}

	// A fresh registration counts as a login.
	if err := s.startSession(c, user.ID); err != nil {
		s.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		s.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// holdingRow is one line of the portfolio table.
type holdingRow struct {
	models.Holding
	Value decimal.Decimal
}

func (s *Server) index(c *gin.Context) {
	userID := currentUserID(c)

	cash, holdings, err := s.ledger.Portfolio(c.Request.Context(), userID)
	if err != nil {
		s.serverError(c, err)
		return
	}

	rows := make([]holdingRow, 0, len(holdings))
	grandTotal := cash
	for _, h := range holdings {
		value := h.Price.Mul(decimal.NewFromInt(h.Shares))
		rows = append(rows, holdingRow{Holding: h, Value: value})
		grandTotal = grandTotal.Add(value)
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Cash":       cash,
		"Holdings":   rows,
		"GrandTotal": grandTotal,
	})
}

func (s *Server) quoteForm(c *gin.Context) {
	c.HTML(http.StatusOK, "quote.html", gin.H{})
}

func (s *Server) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBind(&req); err != nil {
		s.apology(c, http.StatusBadRequest, "must provide a symbol")
		return
	}

	q, err := s.quotes.Lookup(c.Request.Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, quote.ErrUnknownSymbol) {
			s.apology(c, http.StatusBadRequest, "invalid symbol")
			return
		}
		s.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "quote.html", gin.H{"Quote": q})
}

func (s *Server) buyForm(c *gin.Context) {
	c.HTML(http.StatusOK, "buy.html", nil)
}

func (s *Server) buy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBind(&req); err != nil {
		s.apology(c, http.StatusBadRequest, "must provide a symbol and a positive number of shares")
		return
	}
	userID := currentUserID(c)

	q, err := s.quotes.Lookup(c.Request.Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, quote.ErrUnknownSymbol) {
			s.apology(c, http.StatusBadRequest, "invalid symbol")
			return
		}
		s.serverError(c, err)
		return
	}

	if err := s.ledger.Buy(c.Request.Context(), userID, *q, req.Shares); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			s.apology(c, http.StatusBadRequest, "insufficient funds")
			return
		}
		s.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) sellForm(c *gin.Context) {
	userID := currentUserID(c)
	holdings, err := s.ledger.ActiveHoldings(c.Request.Context(), userID)
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, "sell.html", gin.H{"Holdings": holdings})
}

func (s *Server) sell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBind(&req); err != nil {
		s.apology(c, http.StatusBadRequest, "must select a holding and a positive number of shares")
		return
	}
	userID := currentUserID(c)

	holding, err := s.ledger.Holding(c.Request.Context(), userID, req.HoldingID)
	if err != nil {
		if errors.Is(err, ledger.ErrHoldingNotFound) {
			s.apology(c, http.StatusBadRequest, "holding not found")
			return
		}
		s.serverError(c, err)
		return
	}

	q, err := s.quotes.Lookup(c.Request.Context(), holding.Symbol)
	if err != nil {
		if errors.Is(err, quote.ErrUnknownSymbol) {
			s.apology(c, http.StatusBadRequest, "invalid symbol")
			return
		}
		s.serverError(c, err)
		return
	}

	if err := s.ledger.Sell(c.Request.Context(), userID, holding.ID, req.Shares, q.Price); err != nil {
		if errors.Is(err, ledger.ErrOversell) {
			s.apology(c, http.StatusBadRequest,
				fmt.Sprintf("too many shares: you hold %d %s", holding.Shares, holding.Symbol))
			return
		}
		s.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) history(c *gin.Context) {
	userID := currentUserID(c)
	transactions, err := s.ledger.History(c.Request.Context(), userID)
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, "history.html", gin.H{"Transactions": transactions})
}
