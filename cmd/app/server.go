package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/category"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/history"
	"github.com/wichananm65/storefront-backend/internal/lock"
	"github.com/wichananm65/storefront-backend/internal/logging"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/receipt"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
	"github.com/wichananm65/storefront-backend/internal/user"
	"github.com/wichananm65/storefront-backend/internal/wishlist"
)

type services struct {
	users    *user.Service
	products *product.Service
	carts    *cart.Service
	wishlist *wishlist.Service
	orders   *order.Service
	history  *history.Service
}

func newServices(cfg config.Config, store recordstore.Store, locker lock.Locker, log logrus.FieldLogger) services {
	files := recordstore.Files{BaseURL: cfg.FilesBaseURL}

	products := product.NewService(
		product.NewRecordRepository(store, files),
		locker,
		cfg.StockUpdateAttempts,
		logging.Component(log, "product"),
	)
	carts := cart.NewService(cart.NewRecordRepository(store, files), products, locker)
	receipts := receipt.NewRecordRepository(store, files)

	return services{
		users:    user.NewService(user.NewRecordRepository(store), cfg.JWTSecret),
		products: products,
		carts:    carts,
		wishlist: wishlist.NewService(wishlist.NewRecordRepository(store, files), products),
		orders:   order.NewService(carts, products, receipts, cfg.Workers, logging.Component(log, "order")),
		history: history.NewService(receipts, history.Options{
			PageSize: cfg.PageSize,
			Retries:  cfg.ReceiptCartRetries,
			Backoff:  cfg.RetryBackoff,
			Workers:  cfg.Workers,
		}, logging.Component(log, "history")),
	}
}

// newApp wires every handler. Routes registered after the JWT middleware
// need a valid token.
func newApp(cfg config.Config, store recordstore.Store, locker lock.Locker, log logrus.FieldLogger) (*fiber.App, services) {
	svc := newServices(cfg, store, locker, log)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logging.Middleware(logging.Component(log, "http")))
	setupCORS(app)

	// uploaded record files, {collection}/{id}/{filename}
	app.Static("/api/files", cfg.FilesDir)

	user.NewHandler(svc.users).RegisterPublicRoutes(app)
	product.NewHandler(svc.products, cfg.PageSize).RegisterPublicRoutes(app)
	category.NewHandler(category.NewService(svc.products), logging.Component(log, "category")).RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	}))

	user.NewHandler(svc.users).RegisterProtectedRoutes(app)
	cart.NewHandler(svc.carts).RegisterProtectedRoutes(app)
	wishlist.NewHandler(svc.wishlist).RegisterProtectedRoutes(app)
	order.NewHandler(svc.orders).RegisterProtectedRoutes(app)
	history.NewHandler(svc.history).RegisterProtectedRoutes(app)

	return app, svc
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}
