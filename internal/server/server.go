// Package server exposes the billing engine over HTTP: document lifecycle
// management and the signing webhook endpoint.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/billora/internal/client"
	"github.com/smallbiznis/billora/internal/company"
	"github.com/smallbiznis/billora/internal/config"
	"github.com/smallbiznis/billora/internal/document"
	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	"github.com/smallbiznis/billora/internal/notification"
	"github.com/smallbiznis/billora/internal/providers/email"
	"github.com/smallbiznis/billora/internal/recurrence"
	"github.com/smallbiznis/billora/internal/signature"
	"github.com/smallbiznis/billora/internal/signing"
	signingdomain "github.com/smallbiznis/billora/internal/signing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	company.Module,
	client.Module,
	document.Module,
	signature.Module,
	recurrence.Module,
	signing.Module,
	notification.Module,
	email.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	documentSvc documentdomain.Service
	signingSvc  signingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	DocumentSvc documentdomain.Service
	SigningSvc  signingdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		documentSvc: p.DocumentSvc,
		signingSvc:  p.SigningSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Documents --------
	v1.POST("/documents", s.CreateDocument)
	v1.GET("/documents/:id", s.GetDocumentByID)
	v1.PATCH("/documents/:id", s.EditDocument)
	v1.POST("/documents/:id/pay", s.MarkDocumentPaid)
	v1.POST("/documents/:id/send", s.SendDocument)
	v1.DELETE("/documents/:id", s.DeleteDocument)

	// -------- Signing Webhooks --------
	v1.POST("/webhooks/signing/:provider", s.HandleSigningWebhook)
}
