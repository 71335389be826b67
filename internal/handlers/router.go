package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/booklend/go-booklend-backend/internal/auth"
	"github.com/booklend/go-booklend-backend/internal/awsx"
	"github.com/booklend/go-booklend-backend/internal/books"
	"github.com/booklend/go-booklend-backend/internal/config"
	"github.com/booklend/go-booklend-backend/internal/middleware"
	"github.com/booklend/go-booklend-backend/internal/orders"
	"github.com/booklend/go-booklend-backend/internal/payments"
	"github.com/booklend/go-booklend-backend/internal/ratings"
	"github.com/booklend/go-booklend-backend/internal/users"
	"github.com/booklend/go-booklend-backend/internal/wishlist"
)

// Deps groups everything the router needs. Gateway may be pre-set (tests);
// when nil it is built from the Stripe key in the config.
type Deps struct {
	Clients *awsx.Clients
	Redis   *redis.Client
	Cfg     *config.Config
	Log     *zap.Logger
	Gateway payments.Gateway
}

// NewRouter wires stores, the reconciliation engine and all routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "booklend api")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	usersStore := users.NewStore(d.Clients.DynamoDB, d.Cfg.UsersTable)
	booksStore := books.NewStore(d.Clients.DynamoDB, d.Cfg.BooksTable)
	if d.Redis != nil {
		booksStore = booksStore.WithCache(books.NewCache(d.Redis, d.Log))
	}
	ordersStore := orders.NewStore(d.Clients.DynamoDB, d.Cfg.OrdersTable)
	wishlistStore := wishlist.NewStore(d.Clients.DynamoDB, d.Cfg.WishlistTable)
	ratingsStore := ratings.NewStore(d.Clients.DynamoDB, d.Cfg.RatingsTable)
	ledger := payments.NewLedger(d.Clients.DynamoDB, d.Cfg.PaymentsTable)

	gateway := d.Gateway
	if gateway == nil {
		gateway = payments.NewStripeGateway(d.Cfg.StripeKey)
	}

	var publisher payments.FulfillmentPublisher
	if d.Cfg.FulfillmentQueueURL != "" {
		publisher = awsx.NewPublisher(d.Clients.SQS, d.Cfg.FulfillmentQueueURL)
	}

	engine := payments.NewEngine(payments.EngineConfig{
		Gateway:        gateway,
		Orders:         ordersStore,
		Ledger:         ledger,
		Tracking:       payments.NewTrackingGenerator(),
		Publisher:      publisher,
		Metrics:        awsx.NewMetricsEmitter(d.Clients.CloudWatch, "Booklend/Payments"),
		Logger:         d.Log,
		GatewayTimeout: d.Cfg.GatewayTimeout(),
	})

	requireAuth := auth.RequireAuth([]byte(d.Cfg.JWTSecret))
	requireAdmin := auth.RequireAdmin(usersStore)

	RegisterUserRoutes(r, usersStore, requireAuth, requireAdmin)
	RegisterBookRoutes(r, booksStore, requireAuth, requireAdmin)
	RegisterOrderRoutes(r, ordersStore, requireAuth)
	RegisterRatingRoutes(r, ratingsStore, requireAuth)
	RegisterWishlistRoutes(r, wishlistStore, requireAuth)
	RegisterPaymentRoutes(r, PaymentDeps{
		Engine:     engine,
		Gateway:    gateway,
		Ledger:     ledger,
		SiteDomain: d.Cfg.SiteDomain,
		Log:        d.Log,
	}, requireAuth)

	return r
}
