package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/eventine/ticketing-api/docs"
	v1 "github.com/eventine/ticketing-api/internal/api/handler/v1"
	"github.com/eventine/ticketing-api/internal/api/middleware"
	"github.com/eventine/ticketing-api/internal/config"
	"github.com/eventine/ticketing-api/internal/payment"
	"github.com/eventine/ticketing-api/internal/repository"
	"github.com/eventine/ticketing-api/internal/repository/dao"
	"github.com/eventine/ticketing-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	// Purchases is also driven by the background sweep, so the server
	// exposes it alongside the router.
	Purchases *service.PurchaseService
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	s.Purchases = s.initPurchaseService(db)

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	eventHandler := v1.NewEventHandler(s.Purchases)
	purchaseHandler := v1.NewPurchaseHandler(s.Purchases)
	s.MountHandlers(authHandler, userHandler, eventHandler, purchaseHandler)

	return s
}

func (s *Server) initPurchaseService(db *gorm.DB) *service.PurchaseService {
	catalog := repository.NewCatalogRepository(dao.NewEventDAO(db))
	inventory := repository.NewInventoryRepository(dao.NewInventoryDAO(db))
	intents := repository.NewIntentRepository(dao.NewIntentDAO(db))
	tickets := repository.NewTicketRepository(dao.NewTicketDAO(db))

	gateway := payment.NewStripeGateway(s.Config.Stripe.SecretKey, s.Config.Stripe.Timeout)

	return service.NewPurchaseService(
		service.NewSelectionValidator(),
		catalog,
		inventory,
		intents,
		tickets,
		gateway,
		service.PurchaseConfig{
			Currency:   s.Config.Stripe.Currency,
			SuccessURL: s.Config.Stripe.SuccessURL,
			CancelURL:  s.Config.Stripe.CancelURL,
			Retention:  s.Config.Purchase.Retention,
			SweepLimit: s.Config.Purchase.SweepLimit,
		},
	)
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	eventHandler *v1.EventHandler,
	purchaseHandler *v1.PurchaseHandler,
) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", authHandler.HandleSignup)
		public.POST("/auth/login", authHandler.HandleLogin)
		public.GET("/events", eventHandler.HandleGetEvents)
		public.GET("/events/:eventID", eventHandler.HandleGetEvent)
	}

	protected := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		protected.GET("/users/me", userHandler.HandleGetMe)
		protected.POST("/purchases/intent", purchaseHandler.HandleCreatePurchaseIntent)
		protected.GET("/purchases/status/:sessionID", purchaseHandler.HandleGetPurchaseStatus)
		protected.POST("/purchases/:sessionID/cancel", purchaseHandler.HandleCancelPurchase)
		protected.GET("/orders/:orderID/tickets", purchaseHandler.HandleGetOrderTickets)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Eventine Ticketing API"
	docs.SwaggerInfo.Description = "Ticket purchase and payment reconciliation API."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
