package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/app"
	iauth "github.com/readzone/readzone-server/internal/auth"
	"github.com/readzone/readzone-server/internal/handlers"
	"github.com/readzone/readzone-server/internal/middleware"
	"github.com/readzone/readzone-server/internal/notifications"
	"github.com/readzone/readzone-server/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *notifications.Hub) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if hub == nil {
		hub = notifications.NewHub()
	}

	notifier, err := services.NewNotificationService(db, hub)
	if err != nil {
		return nil, err
	}
	follows, err := services.NewFollowService(db, notifier)
	if err != nil {
		return nil, err
	}
	posts, err := services.NewPostService(db, notifier)
	if err != nil {
		return nil, err
	}
	comments, err := services.NewCommentService(db, notifier)
	if err != nil {
		return nil, err
	}
	recommendations, err := services.NewRecommendationService(db, notifier)
	if err != nil {
		return nil, err
	}
	library, err := services.NewLibraryService(db)
	if err != nil {
		return nil, err
	}
	groups, err := services.NewGroupService(db, notifier)
	if err != nil {
		return nil, err
	}
	goals, err := services.NewReadingGoalService(db)
	if err != nil {
		return nil, err
	}
	statistics, err := services.NewStatisticsService(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(cfg.Server.RateLimitPerMinute, time.Minute))
	r.NoRoute(middleware.NotFoundHandler)

	// Health and metrics endpoints (public)
	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler, err := handlers.NewAuthHandler(db, jwt)
	if err != nil {
		return nil, err
	}
	userHandler, err := handlers.NewUserHandler(db, follows)
	if err != nil {
		return nil, err
	}
	postHandler := handlers.NewPostHandler(posts, comments)
	commentHandler := handlers.NewCommentHandler(comments)
	notificationHandler := handlers.NewNotificationHandler(notifier)
	recommendationHandler := handlers.NewRecommendationHandler(recommendations)
	libraryHandler := handlers.NewLibraryHandler(library)
	realtimeHandler := handlers.NewRealtimeHandler(hub, jwt)
	groupHandler := handlers.NewGroupHandler(groups)
	goalHandler := handlers.NewReadingGoalHandler(goals)
	statisticsHandler := handlers.NewStatisticsHandler(statistics)

	requireAuth := middleware.Auth(jwt)
	optionalAuth := middleware.OptionalAuth(jwt)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	api := r.Group("/api")

	// Read endpoints whose projection depends on the caller
	api.GET("/users/:id", optionalAuth, userHandler.GetProfile)
	api.GET("/users/:id/followers", optionalAuth, userHandler.Followers)
	api.GET("/users/:id/following", optionalAuth, userHandler.Following)
	api.GET("/posts", optionalAuth, postHandler.List)
	api.GET("/posts/:id", optionalAuth, postHandler.Get)
	api.GET("/posts/:id/comments", postHandler.ListComments)
	api.GET("/books/:id", libraryHandler.GetBook)
	api.GET("/books", libraryHandler.SearchBooks)
	api.GET("/groups", optionalAuth, groupHandler.List)
	api.GET("/groups/:id", optionalAuth, groupHandler.Get)

	// WebSocket stream authenticates via token query parameter
	api.GET("/notifications/stream", realtimeHandler.Stream)

	protected := api.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.PATCH("/auth/profile", authHandler.UpdateProfile)
		protected.POST("/auth/password", authHandler.ChangePassword)

		protected.GET("/users", userHandler.Search)
		protected.POST("/users/:id/follow", userHandler.Follow)
		protected.DELETE("/users/:id/follow", userHandler.Unfollow)

		protected.POST("/posts", postHandler.Create)
		protected.PATCH("/posts/:id", postHandler.Update)
		protected.DELETE("/posts/:id", postHandler.Delete)
		protected.POST("/posts/:id/like", postHandler.Like)
		protected.DELETE("/posts/:id/like", postHandler.Unlike)
		protected.POST("/posts/:id/comments", postHandler.CreateComment)

		protected.PATCH("/comments/:id", commentHandler.Update)
		protected.DELETE("/comments/:id", commentHandler.Delete)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
		protected.DELETE("/notifications/:id", notificationHandler.Delete)

		protected.POST("/recommendations", recommendationHandler.Create)
		protected.GET("/recommendations/received", recommendationHandler.ListReceived)
		protected.GET("/recommendations/sent", recommendationHandler.ListSent)
		protected.POST("/recommendations/:id/read", recommendationHandler.MarkRead)
		protected.POST("/recommendations/:id/feedback", recommendationHandler.SubmitFeedback)
		protected.GET("/recommendations/personalized", recommendationHandler.Personalized)

		protected.POST("/books", libraryHandler.AddBook)
		protected.GET("/library", libraryHandler.ListShelf)
		protected.POST("/library", libraryHandler.Shelve)
		protected.DELETE("/library/:bookID", libraryHandler.Unshelve)

		protected.POST("/groups", groupHandler.Create)
		protected.POST("/groups/:id/join", groupHandler.Join)
		protected.POST("/groups/:id/leave", groupHandler.Leave)

		protected.GET("/goals", goalHandler.List)
		protected.GET("/goals/:year", goalHandler.Get)
		protected.PUT("/goals/:year", goalHandler.Set)
		protected.DELETE("/goals/:year", goalHandler.Delete)

		protected.GET("/statistics", statisticsHandler.Overview)
		protected.GET("/statistics/trends", statisticsHandler.Trends)
	}

	return r, nil
}
