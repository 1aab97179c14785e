package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	goredis "github.com/redis/go-redis/v9"

	"cabbooking/internal/config"
	"cabbooking/internal/handler"
	"cabbooking/internal/logger"
	"cabbooking/internal/redis"
	"cabbooking/internal/repository"
	"cabbooking/internal/service"
	"cabbooking/internal/websocket"
)

// Infra holds the external resources the services run on. Only Store and
// Gateway are required.
type Infra struct {
	Store    repository.Store
	Gateway  service.Gateway
	Redis    *goredis.Client
	NewRelic *newrelic.Application
	Events   service.EventPublisher
	// Refunds defaults to settling inline through the payment service.
	Refunds service.RefundQueue
}

// Container holds the wired services.
type Container struct {
	Accounts      *service.AccountService
	Cabs          *service.CabService
	Matching      *service.MatchingService
	Payments      *service.PaymentService
	Bookings      *service.BookingService
	Notifications *service.NotificationService
	Hub           *websocket.Hub

	idempotency redis.IdempotencyStoreInterface
	nrApp       *newrelic.Application
	log         *logger.Logger
}

// NewContainer wires services on top of infra. The hub is created but not
// started; call Hub.Run.
func NewContainer(cfg *config.Config, infra Infra, log *logger.Logger) *Container {
	events := infra.Events
	if events == nil {
		events = service.NopPublisher{}
	}

	var (
		locks       redis.LockStoreInterface
		cache       redis.BookingCacheInterface
		idempotency redis.IdempotencyStoreInterface
	)
	if infra.Redis != nil {
		locks = redis.NewLockStore(infra.Redis)
		cache = redis.NewCacheStore(infra.Redis)
		idempotency = redis.NewIdempotencyStore(infra.Redis)
	}

	hub := websocket.NewHub(log)
	notifications := service.NewNotificationService(hub, log)

	payments := service.NewPaymentService(infra.Store, infra.Gateway, cfg.Gateway.Currency, log).
		WithEvents(events, notifications)

	refunds := infra.Refunds
	if refunds == nil {
		refunds = service.InlineRefundQueue{Payments: payments}
	}

	matching := service.NewMatchingService(infra.Store, locks, log)
	bookings := service.NewBookingService(infra.Store, matching, payments, log).
		WithEvents(events, notifications).
		WithRefundQueue(refunds)
	if cache != nil {
		bookings = bookings.WithCache(cache)
	}

	return &Container{
		Accounts:      service.NewAccountService(infra.Store.Repositories().Accounts, log),
		Cabs:          service.NewCabService(infra.Store, log),
		Matching:      matching,
		Payments:      payments,
		Bookings:      bookings,
		Notifications: notifications,
		Hub:           hub,
		idempotency:   idempotency,
		nrApp:         infra.NewRelic,
		log:           log,
	}
}

// Router builds the HTTP router for the container's services.
func (c *Container) Router() *gin.Engine {
	return NewRouter(RouterDeps{
		BookingHandler: handler.NewBookingHandler(c.Bookings),
		PaymentHandler: handler.NewPaymentHandler(c.Payments),
		AccountHandler: handler.NewAccountHandler(c.Accounts),
		CabHandler:     handler.NewCabHandler(c.Cabs),
		DriverHandler:  handler.NewDriverHandler(c.Cabs),
		WSHandler:      handler.NewWSHandler(c.Hub, c.log),
		Idempotency:    c.idempotency,
		NewRelicApp:    c.nrApp,
		Logger:         c.log,
	})
}
