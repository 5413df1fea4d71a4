package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/supportplatform/marketplace-api/docs"
	"github.com/supportplatform/marketplace-api/internal/api/handler"
	"github.com/supportplatform/marketplace-api/internal/api/middleware"
	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// Deps carries everything the HTTP layer needs. Construction of the
// services lives in cmd/supportd.
type Deps struct {
	JWTSecret string
	Logger    zerolog.Logger

	Auth      ports.AuthService
	Experts   ports.ExpertService
	Repairs   ports.RequestService
	Academics ports.RequestService
	Chats     ports.ChatService
	Reviews   ports.ReviewService
	Resources ports.ResourceService

	Relay ports.ChatRelay
	Hub   handler.RoomHub

	// Readiness lists the dependencies pinged by /health/ready, by name.
	Readiness map[string]handler.Pinger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddleware("support"))

	// --- Operational endpoints (no auth required) ---
	health := handler.NewHealthHandler(d.Readiness)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	auth := middleware.Auth(d.JWTSecret)
	experts := middleware.RBAC(domain.RoleTeacher, domain.RoleTechnician)

	// --- Identity ---
	authH := handler.NewAuthHandler(d.Auth)
	expertH := handler.NewExpertHandler(d.Experts)

	ag := e.Group("/api/auth")
	ag.POST("/register", authH.Register)
	ag.POST("/login", authH.Login)
	ag.GET("/profile", authH.Profile, auth)
	ag.PUT("/profile", authH.UpdateProfile, auth)
	ag.GET("/expert-profile", expertH.GetProfile, auth, experts)
	ag.PUT("/expert-profile", expertH.UpdateProfile, auth, experts)
	ag.GET("/earnings", expertH.Earnings, auth, experts)

	// --- Service requests ---
	repair := e.Group("/api/repair", auth)
	registerRequestRoutes(repair, "/requests", "/solutions", handler.NewRepairHandler(d.Repairs))
	repair.GET("/technicians", expertH.Directory(domain.RoleTechnician))

	academic := e.Group("/api/academic", auth)
	registerRequestRoutes(academic, "/questions", "/answers", handler.NewAcademicHandler(d.Academics))
	academic.GET("/teachers", expertH.Directory(domain.RoleTeacher))

	// --- Chat ---
	chatH := handler.NewChatHandler(d.Chats)
	socketH := handler.NewChatSocketHandler(d.Chats, d.Relay, d.Hub, d.Logger)

	cg := e.Group("/api/chat")
	cg.GET("/rooms", chatH.ListRooms, auth)
	cg.POST("/rooms", chatH.CreateRoom, auth)
	cg.GET("/rooms/:id", chatH.GetRoom, auth)
	cg.POST("/rooms/:id/messages", chatH.PostMessage, auth)
	cg.GET("/ws/:room_id", socketH.Serve, middleware.SocketAuth(d.JWTSecret))

	// --- Reviews ---
	reviewH := handler.NewReviewHandler(d.Reviews)

	rg := e.Group("/api/reviews", auth)
	rg.GET("", reviewH.List)
	rg.POST("", reviewH.Submit)
	rg.GET("/my-reviews", reviewH.MyReviews)
	rg.GET("/expert-reviews", reviewH.ExpertReviews)
	rg.GET("/:id", reviewH.Get)

	// --- Resources ---
	resourceH := handler.NewResourceHandler(d.Resources)

	lg := e.Group("/api/resources", auth)
	lg.GET("", resourceH.List)
	lg.POST("", resourceH.Create)
	lg.GET("/search", resourceH.Search)
	lg.GET("/bookmarks", resourceH.ListBookmarks)
	lg.POST("/bookmarks", resourceH.Bookmark)
	lg.DELETE("/bookmarks/:id", resourceH.RemoveBookmark)
	lg.GET("/:id", resourceH.Get)
	lg.PUT("/:id", resourceH.Update)
	lg.DELETE("/:id", resourceH.Delete)

	return e
}

func registerRequestRoutes(g *echo.Group, requests, resolutions string, h *handler.RequestHandler) {
	g.GET(requests, h.List)
	g.POST(requests, h.Create)
	g.GET(requests+"/:id", h.Get)
	g.PUT(requests+"/:id", h.Update)
	g.POST(requests+"/:id/claim", h.Claim)
	g.POST(requests+"/:id/start", h.Start)
	g.POST(requests+"/:id/complete", h.Complete)
	g.POST(requests+"/:id/messages", h.AddMessage)
	g.POST(resolutions, h.Resolve)
	g.GET(resolutions+"/:id", h.GetResolution)
}

// requestLogger writes one structured line per request through zerolog. Only
// the path is logged; query strings may carry socket tokens.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURIPath:   true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
