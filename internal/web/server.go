// Package web serves the engine's cached state over HTTP as read-only
// JSON, so the console can be inspected from a browser or curl while
// the terminal UI owns the screen.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradedesk/tradedesk/internal/engine"
	"github.com/tradedesk/tradedesk/pkg/logger"
)

type Server struct {
	engine *engine.MainEngine
	http   *http.Server
}

func New(e *engine.MainEngine, addr string) *Server {
	s := &Server{engine: e}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/gateways", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.engine.GatewayNames())
	})
	api.GET("/ticks", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.engine.OMS().GetAllTicks())
	})
	api.GET("/orders", func(c *gin.Context) {
		if c.Query("active") != "" {
			c.JSON(http.StatusOK, s.engine.OMS().GetAllActiveOrders(c.Query("symbol")))
			return
		}
		c.JSON(http.StatusOK, s.engine.OMS().GetAllOrders())
	})
	api.GET("/trades", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.engine.OMS().GetAllTrades())
	})
	api.GET("/positions", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.engine.OMS().GetAllPositions())
	})
	api.GET("/accounts", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.engine.OMS().GetAllAccounts())
	})
	api.GET("/contracts", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.engine.OMS().GetAllContracts())
	})

	return r
}

// Start serves in the background until Stop is called.
func (s *Server) Start() {
	go func() {
		logger.Infof("web: listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("web: serve: %v", err)
		}
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		logger.Warnf("web: shutdown: %v", err)
	}
}
