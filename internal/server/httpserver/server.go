// Package httpserver is the JSON API of the gift backend, built on gin.
// Handlers only decode requests, apply the per-route guards and map service
// results into the {success, data | error} envelope.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/ratelimit"
	"github.com/dmitrijs2005/giftauth/internal/server/auth"
	"github.com/dmitrijs2005/giftauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email, ip string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type GiftService interface {
	CreatePublic(ctx context.Context, in services.PublicGiftInput) (*services.CreatedGift, error)
	PublicSummary(ctx context.Context, id string) (*services.GiftSummary, error)
	Details(ctx context.Context, userID, id string) (*services.GiftDetails, error)
	DashboardSummary(ctx context.Context, userID string) (*services.DashboardSummary, error)
}

type LookupService interface {
	ByPhone(ctx context.Context, phone string) (*services.PublicProfile, error)
}

// TokenVerifier checks bearer access tokens.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Payload, error)
}

// Route limits.
var (
	LoginRule    = ratelimit.Rule{Limit: 5, Window: 15 * time.Minute}
	RegisterRule = ratelimit.Default
	ForgotRule   = ratelimit.Default
	GiftRule     = ratelimit.Rule{Limit: 10, Window: time.Minute}
	LookupRule   = ratelimit.Rule{Limit: 20, Window: time.Minute}
)

type Options struct {
	Address     string
	CheckOrigin bool
}

type Server struct {
	opts    Options
	auth    AuthService
	gifts   GiftService
	lookup  LookupService
	tokens  TokenVerifier
	limiter *ratelimit.Limiter
	logger  logging.Logger
}

func NewServer(opts Options, a AuthService, g GiftService, l LookupService, tokens TokenVerifier,
	limiter *ratelimit.Limiter, logger logging.Logger) *Server {
	return &Server{
		opts:    opts,
		auth:    a,
		gifts:   g,
		lookup:  l,
		tokens:  tokens,
		limiter: limiter,
		logger:  logger.With("module", "http_server"),
	}
}

// Router builds the gin engine with every route attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.POST("/auth/register", s.registerGuard(), s.limit("", RegisterRule, MsgTooManyRegistrations), s.register)
	r.POST("/auth/login", s.limit("", LoginRule, MsgTooManyLogins), s.login)
	r.POST("/auth/refresh", s.refresh)
	r.POST("/auth/logout", s.logout)
	r.POST("/auth/forgot-password", s.limit("forgot:", ForgotRule, MsgTooManyRequests), s.forgotPassword)
	r.POST("/auth/reset-password", s.resetPassword)

	r.GET("/users/lookup", s.limit("lookup:", LookupRule, MsgTooManyRequests), s.lookupByPhone)

	r.POST("/gifts/public", s.limit("gift:", GiftRule, MsgTooManyRequests), s.createPublicGift)
	r.GET("/gifts/public/:id/summary", s.publicGiftSummary)

	private := r.Group("")
	private.Use(s.bearerAuth())
	private.GET("/gifts/:id", s.giftDetails)
	private.GET("/dashboard/summary", s.dashboardSummary)

	return r
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
