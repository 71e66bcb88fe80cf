package routes

import (
	"github.com/food-bundles/food-bundles-bn-sub000/configs"
	"github.com/food-bundles/food-bundles-bn-sub000/controllers"
	"github.com/food-bundles/food-bundles-bn-sub000/middlewares"
	"github.com/food-bundles/food-bundles-bn-sub000/payments"
	"github.com/food-bundles/food-bundles-bn-sub000/pkg/logger"
	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"github.com/food-bundles/food-bundles-bn-sub000/services"
	"github.com/food-bundles/food-bundles-bn-sub000/ws"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *configs.Config) {
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	log := logger.L()

	// Repositories
	restRepo := repository.NewRestaurantRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	checkoutRepo := repository.NewCheckoutRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	// Gateway + broadcast hub
	gateway := payments.NewGateway(cfg.PaymentBaseURL, cfg.PaymentSecretKey, log)
	hub := ws.NewPaymentHub(restRepo)
	go hub.Run()

	// Services
	cartSvc := services.NewCartService(db, cartRepo, productRepo, restRepo)
	walletSvc := services.NewWalletService(db, walletRepo, restRepo, gateway, hub, log)
	orderSvc := services.NewOrderService(db, orderRepo, cartRepo, checkoutRepo, productRepo, restRepo, log)
	checkoutSvc := services.NewCheckoutService(db, checkoutRepo, cartRepo, productRepo, restRepo,
		walletRepo, walletSvc, orderSvc, gateway, hub, log)
	webhookSvc := services.NewWebhookService(checkoutRepo, walletRepo, checkoutSvc, walletSvc, log)

	// Controllers
	cartCtrl := controllers.NewCartController(cartSvc)
	checkoutCtrl := controllers.NewCheckoutController(checkoutSvc)
	walletCtrl := controllers.NewWalletController(walletSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)
	webhookCtrl := controllers.NewWebhookController(webhookSvc, cfg.PaymentWebhookHash, cfg.PaymentWebhookSecret, log)

	auth := func(roles ...string) gin.HandlerFunc {
		return middlewares.AuthMiddleware(cfg.JWTSecret, roles...)
	}

	// Carts (restaurant)
	carts := r.Group("/carts", auth("restaurant", "admin"))
	{
		carts.GET("/my-cart", cartCtrl.Get)
		carts.POST("/items", cartCtrl.Add)
		carts.PATCH("/items/:id", cartCtrl.UpdateQty)
		carts.DELETE("/items/:id", cartCtrl.Remove)
		carts.DELETE("", cartCtrl.Clear)
	}

	// Checkouts (restaurant)
	checkouts := r.Group("/checkouts", auth("restaurant", "admin"))
	{
		checkouts.POST("", checkoutCtrl.Create)
		checkouts.POST("/:orderId/payment", checkoutCtrl.ProcessPayment)
		checkouts.GET("/:orderId/verify-payment", checkoutCtrl.VerifyPayment)
	}

	// Wallets (restaurant; adjust is admin-only)
	wallets := r.Group("/wallets", auth("restaurant", "admin"))
	{
		wallets.POST("", walletCtrl.Create)
		wallets.GET("/my-wallet", walletCtrl.MyWallet)
		wallets.POST("/top-up", walletCtrl.TopUp)
		wallets.GET("/transactions", walletCtrl.Transactions)
		wallets.GET("/verify-topup/:transactionId", walletCtrl.VerifyTopUp)
	}
	r.POST("/wallets/:id/adjust", auth("admin"), walletCtrl.Adjust)

	// Orders (restaurant; refund is admin-only)
	orders := r.Group("/orders", auth("restaurant", "admin"))
	{
		orders.GET("", orderCtrl.List)
		orders.GET("/:id", orderCtrl.Detail)
		orders.PATCH("/:id/status", orderCtrl.UpdateStatus)
		orders.POST("/:id/cancel", orderCtrl.Cancel)
		orders.DELETE("/:id", orderCtrl.Delete)
	}
	r.POST("/orders/:id/refund", auth("admin"), orderCtrl.Refund)

	// Webhooks (provider-pushed: signed payload, no bearer auth)
	hooks := r.Group("/webhooks", middlewares.RateLimit(rate.Limit(10), 20))
	{
		hooks.POST("/payment", webhookCtrl.HandleHash)
		hooks.POST("/payment/hmac", webhookCtrl.HandleHMAC)
	}

	// Live settlement events
	r.GET("/ws/payments", auth("restaurant", "admin"), hub.HandleWebSocket)
}
