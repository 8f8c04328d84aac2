package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/court-booking-engine/internal/auth"
	"github.com/nekogravitycat/court-booking-engine/internal/booking"
	bookingHttp "github.com/nekogravitycat/court-booking-engine/internal/booking/http"
	"github.com/nekogravitycat/court-booking-engine/internal/court"
	courtHttp "github.com/nekogravitycat/court-booking-engine/internal/court/http"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-engine/internal/review"
	reviewHttp "github.com/nekogravitycat/court-booking-engine/internal/review/http"
)

// Config carries what the router needs to assemble handlers.
type Config struct {
	IsProduction   bool
	ProdOrigins    string
	CourtService   court.Service
	BookingService booking.Service
	ReviewService  review.Service
	JWTManager     *auth.JWTManager
	JWTTTL         time.Duration
	CleanupTimeout time.Duration
	AutoComplete   bool
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := request.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register binding validators")
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information (gin's text logger in dev, zerolog in prod).
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	if cfg.IsProduction {
		r.Use(RequestLogger(), gin.Recovery())
	} else {
		r.Use(gin.Logger(), gin.Recovery())
	}

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	authHandler := NewAuthHandler(cfg.JWTManager, cfg.JWTTTL)
	courtHandler := courtHttp.NewHandler(cfg.CourtService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.CleanupTimeout, cfg.AutoComplete)
	reviewHandler := reviewHttp.NewHandler(cfg.ReviewService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		v1.GET("/me", authMiddleware, authHandler.Me)
		if !cfg.IsProduction {
			v1.POST("/auth/token", authHandler.IssueToken)
		}

		courtHttp.RegisterRoutes(v1, courtHandler, authMiddleware, RequireCourtManager())
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, RequireAdmin())
		reviewHttp.RegisterRoutes(v1, reviewHandler, authMiddleware)
	}

	return r
}
