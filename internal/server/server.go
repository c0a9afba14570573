package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/josealejferFB/krizo-backend/internal/handler"
	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/metrics"
	appmw "github.com/josealejferFB/krizo-backend/internal/middleware"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/internal/service"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Options struct {
	// DB may be nil; it is injected later through SetDB.
	DB                  *gorm.DB
	Log                 logger.ILogger
	Auth                *appmw.AuthMiddleware
	Cache               service.ServiceSetCache
	Proofs              service.ProofStore
	AllowedOriginSuffix string
	MessageRatePerSec   float64
	GitSHA              string
	BuildTime           string
}

type Server struct {
	e        *echo.Echo
	log      logger.ILogger
	repos    []interface{ SetDB(*gorm.DB) }
	requests service.RequestService
	dbReady  atomic.Bool
	limiter  *appmw.RateLimiter
}

func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLogger(log.With(logger.String("component", "http"))))
	e.Use(metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.HeaderRequestID},
		ExposeHeaders:    []string{appmw.HeaderRequestID},
		AllowCredentials: true,
		AllowOriginFunc:  originAllowed(opts.AllowedOriginSuffix),
	}))

	requestRepo := repository.NewRequestRepository(opts.DB)
	quoteRepo := repository.NewQuoteRepository(opts.DB)
	chatRepo := repository.NewChatRepository(opts.DB)
	paymentRepo := repository.NewPaymentRepository(opts.DB)
	workerRepo := repository.NewWorkerRepository(opts.DB)
	notificationRepo := repository.NewNotificationRepository(opts.DB)
	earningRepo := repository.NewEarningRepository(opts.DB)

	svcLog := log.With(logger.String("component", "service"))
	notifySvc := service.NewNotificationService(notificationRepo, svcLog)
	earningsSvc := service.NewEarningsService(earningRepo)
	workerSvc := service.NewWorkerService(workerRepo, opts.Cache, svcLog)
	requestSvc := service.NewRequestService(requestRepo, quoteRepo, workerSvc, notifySvc, svcLog)
	quoteSvc := service.NewQuoteService(quoteRepo, requestRepo, chatRepo, notifySvc, svcLog)
	chatSvc := service.NewChatService(chatRepo, notifySvc, svcLog)
	paymentSvc := service.NewPaymentService(service.PaymentDeps{
		Payments: paymentRepo,
		Quotes:   quoteRepo,
		Requests: requestRepo,
		Chats:    chatRepo,
		Notify:   notifySvc,
		Proofs:   opts.Proofs,
	}, svcLog)

	hLog := log.With(logger.String("component", "handler"))
	workerHandler := handler.NewWorkerHandler(workerSvc, earningsSvc, hLog)
	requestHandler := handler.NewRequestHandler(requestSvc, quoteSvc, hLog)
	quoteHandler := handler.NewQuoteHandler(quoteSvc, paymentSvc, hLog)
	chatHandler := handler.NewChatHandler(chatSvc, hLog)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, hLog)
	notificationHandler := handler.NewNotificationHandler(notifySvc, hLog)

	rate := opts.MessageRatePerSec
	if rate <= 0 {
		rate = 5
	}
	s := &Server{
		e:        e,
		log:      log,
		requests: requestSvc,
		limiter:  appmw.NewRateLimiter(rate, int(rate)*2, log.With(logger.String("component", "ratelimit"))),
		repos: []interface{ SetDB(*gorm.DB) }{
			requestRepo, quoteRepo, chatRepo, paymentRepo, workerRepo, notificationRepo, earningRepo,
		},
	}
	s.dbReady.Store(opts.DB != nil)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, api.OK(api.Health{
			OK:        true,
			DBReady:   s.dbReady.Load(),
			GitSHA:    opts.GitSHA,
			BuildTime: opts.BuildTime,
		}))
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	requireAuth := rejectAll
	if opts.Auth != nil {
		requireAuth = opts.Auth.RequireAuth
	} else {
		log.Warning("auth is not configured; protected routes will answer 401")
	}

	pub := e.Group("/api")
	pub.GET("/workers", workerHandler.List)
	pub.GET("/workers/:uid", workerHandler.Get)

	a := e.Group("/api", requireAuth)
	a.PUT("/workers/me/services", workerHandler.ConfigureServices)
	a.GET("/me/earnings", workerHandler.Earnings)

	a.POST("/requests", requestHandler.Create)
	a.GET("/requests", requestHandler.List)
	a.GET("/requests/:id", requestHandler.Get)
	a.PUT("/requests/:id/status", requestHandler.UpdateStatus)
	a.GET("/requests/:id/quotes", requestHandler.Quotes)

	a.POST("/quotes", quoteHandler.Create)
	a.GET("/quotes/:id", quoteHandler.Get)
	a.PUT("/quotes/:id/respond", quoteHandler.Respond)
	a.PUT("/quotes/:id/pay", quoteHandler.Pay)

	a.GET("/chat/sessions", chatHandler.ListSessions)
	a.GET("/chat/sessions/search", chatHandler.Search)
	a.POST("/chat/session", chatHandler.CreateSession)
	a.PUT("/chat/sessions/:id/agreed-price", chatHandler.UpdateAgreedPrice)
	a.GET("/chat/messages/:sessionId", chatHandler.Messages)
	a.POST("/chat/messages", chatHandler.Send, s.limiter.Middleware)
	a.POST("/chat/purchase", chatHandler.Purchase, s.limiter.Middleware)
	a.POST("/chat/purchase/:messageId", chatHandler.PurchaseDecision)

	a.POST("/payments", paymentHandler.Submit)
	a.POST("/payments/proof", paymentHandler.UploadProof)
	a.GET("/payments/worker/:workerId", paymentHandler.ListForWorker)
	a.GET("/payments/client/:clientId", paymentHandler.ListForClient)
	a.PUT("/payments/:id/verify", paymentHandler.Verify)

	a.GET("/notifications", notificationHandler.List)
	a.POST("/notifications/read", notificationHandler.MarkAllRead)

	return s
}

func rejectAll(echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, api.Fail(workflow.CodeUnauthorized, "Inicia sesión para continuar"))
	}
}

// originAllowed accepts localhost on any port and hosts ending in suffix.
func originAllowed(suffix string) func(string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		if suffix != "" && strings.HasSuffix(u.Hostname(), suffix) {
			return true, nil
		}
		return false, nil
	}
}

func (s *Server) Start(addr string) error {
	s.log.Info("listening", logger.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// SetDB hands a connection established after startup to every repository.
func (s *Server) SetDB(db *gorm.DB) {
	for _, r := range s.repos {
		r.SetDB(db)
	}
	s.dbReady.Store(db != nil)
}

// Requests exposes the request service for background jobs.
func (s *Server) Requests() service.RequestService {
	return s.requests
}

// Limiter exposes the message rate limiter so its idle buckets can be pruned.
func (s *Server) Limiter() *appmw.RateLimiter {
	return s.limiter
}
