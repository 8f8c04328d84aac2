package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/court-booking-engine/internal/api"
	"github.com/nekogravitycat/court-booking-engine/internal/auth"
	"github.com/nekogravitycat/court-booking-engine/internal/booking"
	"github.com/nekogravitycat/court-booking-engine/internal/court"
	"github.com/nekogravitycat/court-booking-engine/internal/notify"
	"github.com/nekogravitycat/court-booking-engine/internal/review"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	Notifier     notify.Notifier

	Location           *time.Location
	PendingWindow      time.Duration
	CleanupTimeout     time.Duration
	SweepInterval      time.Duration
	CancellationCutoff time.Duration
	AutoComplete       bool
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
	Monitor        *booking.Monitor
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Court Module
	courtRepo := court.NewPgxRepository(cfg.DBPool)
	courtService := court.NewService(courtRepo)

	// Review repository is needed by booking eligibility before the review service exists.
	// It also writes court ratings, inside the transaction that accepts a review.
	reviewRepo := review.NewPgxRepository(cfg.DBPool)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, courtService, reviewRepo, cfg.Notifier, booking.Options{
		Location:           cfg.Location,
		PendingWindow:      cfg.PendingWindow,
		CancellationCutoff: cfg.CancellationCutoff,
	})

	// Review Module
	reviewService := review.NewService(reviewRepo, bookingService)

	// Background sweeps
	monitor := booking.NewMonitor(bookingService, booking.MonitorConfig{
		Interval:       cfg.SweepInterval,
		CleanupTimeout: cfg.CleanupTimeout,
		AutoComplete:   cfg.AutoComplete,
	}, loggerFor("booking"))

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		CourtService:   courtService,
		BookingService: bookingService,
		ReviewService:  reviewService,
		JWTManager:     jwtManager,
		JWTTTL:         cfg.JWTTTL,
		CleanupTimeout: cfg.CleanupTimeout,
		AutoComplete:   cfg.AutoComplete,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		BookingService: bookingService,
		Monitor:        monitor,
	}
}
