package routes

import (
	"creditdesk/config"
	"creditdesk/controllers"
	"creditdesk/middleware"
	"creditdesk/services"
	"creditdesk/utils"

	"github.com/gin-gonic/gin"
)

// Services - набор сервисов, которые обслуживает API
type Services struct {
	Users         *services.UserService
	Access        *services.AccessService
	Clients       *services.ClientService
	Catalog       *services.CatalogService
	InterestRates *services.InterestRateService
	Credits       *services.CreditService
	Payments      *services.PaymentService
}

// NewRouter собирает gin-роутер API: общие middleware, публичный вход и защищенные ресурсы
func NewRouter(cfg *config.Config, svc Services, metrics *utils.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORSMiddleware(cfg.CORS.AllowedOrigins),
		middleware.Metrics(metrics),
	)

	api := router.Group("/api")
	if cfg.RateLimit.Requests > 0 {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// Публичные маршруты для аутентификации
	controllers.NewAuthController(svc.Users, cfg).RegisterRoutes(api)

	// Защищенные маршруты
	protected := api.Group("", middleware.Auth(cfg.JWT.SecretKey))
	controllers.NewClientController(svc.Clients).RegisterRoutes(protected, svc.Access)
	controllers.NewCatalogController(svc.Catalog).RegisterRoutes(protected, svc.Access)
	controllers.NewInterestRateController(svc.InterestRates).RegisterRoutes(protected, svc.Access)
	controllers.NewCreditController(svc.Credits).RegisterRoutes(protected, svc.Access)
	controllers.NewPaymentController(svc.Payments).RegisterRoutes(protected, svc.Access)
	controllers.NewUserController(svc.Users).RegisterRoutes(protected, svc.Access)
	controllers.NewGroupController(svc.Access).RegisterRoutes(protected, svc.Access)

	return router
}
