// Package web exposes a small status and admin API over the running bot.
// It only ever reads engine state through the bot's serialized accessors;
// the one mutation it offers, closing the open position, goes through the
// loop's command channel rather than touching the engine directly.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dipbot/journal"
	"dipbot/strategy"
)

// StatusSource is the slice of the bot the API needs.
type StatusSource interface {
	State() strategy.State
	ForceClose(reason string) bool
}

// TradeLister reads closed trades back out of the journal.
type TradeLister interface {
	ListTrades(limit int) ([]journal.TradeRecord, error)
	Summarize() (journal.Summary, error)
}

// Server serves the status endpoints for one bot instance.
type Server struct {
	Router *gin.Engine

	bot     StatusSource
	trades  TradeLister
	log     *zap.Logger
	started time.Time
}

// NewServer builds the router. trades may be nil when the journal backend
// cannot be read back (the CSV writer); the trade endpoints then return 404.
func NewServer(bot StatusSource, trades TradeLister, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		Router:  r,
		bot:     bot,
		trades:  trades,
		log:     log,
		started: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/status", s.status)
	if s.trades != nil {
		s.Router.GET("/trades", s.listTrades)
		s.Router.GET("/trades/summary", s.summary)
	}
	s.Router.POST("/admin/close", s.closePosition)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.bot.State())
}

func (s *Server) listTrades(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	recs, err := s.trades.ListTrades(limit)
	if err != nil {
		s.log.Error("list trades failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "journal read failed"})
		return
	}
	if recs == nil {
		recs = []journal.TradeRecord{}
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) summary(c *gin.Context) {
	sum, err := s.trades.Summarize()
	if err != nil {
		s.log.Error("summarize trades failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "journal read failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

type closeRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) closePosition(c *gin.Context) {
	var req closeRequest
	// An empty body is fine; the reason defaults to a manual close.
	_ = c.ShouldBindJSON(&req)

	if s.bot.State().Position == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no open position"})
		return
	}
	if !s.bot.ForceClose(req.Reason) {
		c.JSON(http.StatusConflict, gin.H{"error": "close already pending"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "close requested"})
}

// Start blocks serving on addr.
func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
