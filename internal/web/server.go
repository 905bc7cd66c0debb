package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/internal/auth"
	"papertrade/internal/ledger"
	"papertrade/internal/quote"
)

//go:embed templates/*.html
var templatesFS embed.FS

const sessionName = "papertrade_session"

// Server is the HTTP surface of the application: routing, sessions and
// server-rendered templates over the auth, ledger and quote services.
type Server struct {
	router *gin.Engine
	logger *zap.Logger
	auth   *auth.Service
	ledger *ledger.Service
	quotes quote.Source
}

// NewServer creates the gin router with all routes, session middleware and
// templates wired up.
func NewServer(logger *zap.Logger, authSvc *auth.Service, ledgerSvc *ledger.Service, quotes quote.Source, sessionSecret string) *Server {
	s := &Server{
		logger: logger,
		auth:   authSvc,
		ledger: ledgerSvc,
		quotes: quotes,
	}

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic in handler", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		s.apology(c, http.StatusInternalServerError, "internal server error")
	}))
	router.Use(noCache())

	store := memstore.NewStore([]byte(sessionSecret))
	router.Use(sessions.Sessions(sessionName, store))

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"usd": usd,
	}).ParseFS(templatesFS, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)

	s.router = router
	s.routes()
	return s
}

// Handler exposes the router for an http.Server and for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.GET("/login", s.loginForm)
	s.router.POST("/login", s.login)
	s.router.GET("/register", s.registerForm)
	s.router.POST("/register", s.register)
	s.router.GET("/logout", s.logout)

	authed := s.router.Group("/", s.requireLogin())
	authed.GET("/", s.index)
	authed.GET("/quote", s.quoteForm)
	authed.POST("/quote", s.quote)
	authed.GET("/buy", s.buyForm)
	authed.POST("/buy", s.buy)
	authed.GET("/sell", s.sellForm)
	authed.POST("/sell", s.sell)
	authed.GET("/history", s.history)
}

// apology renders the uniform user-facing error page. Every error kind ends
// up here; nothing propagates to the client as a raw failure.
func (s *Server) apology(c *gin.Context, status int, message string) {
	c.HTML(status, "apology.html", gin.H{
		"Status":  status,
		"Message": message,
	})
	c.Abort()
}

func usd(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
