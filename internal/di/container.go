package di

import (
	"context"
	"fmt"
	"time"

	"github.com/simple-store/api/internal/platform/auth"
	"github.com/simple-store/api/internal/platform/collections"
	"github.com/simple-store/api/internal/platform/config"
	"github.com/simple-store/api/internal/repositories"
	"github.com/simple-store/api/internal/repositories/jsonstore"
	"github.com/simple-store/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog  services.CatalogService
	Cart     services.CartService
	Checkout services.CheckoutService
	Orders   services.OrderService
	Users    services.UserService
	Reviews  services.ReviewService
}

// Deps carries cross-cutting collaborators supplied by the composition root.
type Deps struct {
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// Container wires the store, repositories and services for runtime use.
type Container struct {
	Config        config.Config
	Store         collections.Store
	Repositories  repositories.Registry
	Services      Services
	Tokens        *auth.TokenManager
	Authenticator *auth.Authenticator
}

// NewContainer constructs the runtime dependencies from configuration.
func NewContainer(ctx context.Context, cfg config.Config, deps Deps) (*Container, error) {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	store, err := buildStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	reg, err := jsonstore.NewRegistry(store)
	if err != nil {
		return nil, fmt.Errorf("build repository registry: %w", err)
	}

	svc, err := buildServices(reg, store, deps)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, auth.WithTokenClock(deps.Clock))
	if err != nil {
		return nil, fmt.Errorf("build token manager: %w", err)
	}

	return &Container{
		Config:        cfg,
		Store:         store,
		Repositories:  reg,
		Services:      svc,
		Tokens:        tokens,
		Authenticator: auth.NewAuthenticator(tokens),
	}, nil
}

// Close releases resources such as store clients and repository handles.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil {
			return err
		}
	}
	if closer, ok := c.Store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func buildStore(cfg config.StoreConfig) (collections.Store, error) {
	if cfg.RedisAddr != "" {
		return collections.NewRedisStore(cfg.RedisAddr, cfg.RedisKeyPrefix,
			collections.WithRedisAuth(cfg.RedisPassword, cfg.RedisDB)), nil
	}
	store, err := collections.NewFileStore(cfg.DataDir, collections.WithCacheTTL(cfg.CacheTTL))
	if err != nil {
		return nil, fmt.Errorf("build file store: %w", err)
	}
	return store, nil
}

func buildServices(reg repositories.Registry, store collections.Store, deps Deps) (Services, error) {
	var svc Services

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: reg.Products(),
		Users:    reg.Users(),
		Orders:   reg.Orders(),
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Cart:     reg.Cart(),
		Products: reg.Products(),
		BuyNow:   reg.BuyNowIntents(),
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Products:  reg.Products(),
		Cart:      reg.Cart(),
		BuyNow:    reg.BuyNowIntents(),
		Orders:    reg.Orders(),
		Addresses: reg.Addresses(),
		Cache:     store,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: reg.Orders(),
		Clock:  deps.Clock,
		Logger: deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	userSvc, err := services.NewUserService(services.UserServiceDeps{
		Users:          reg.Users(),
		Addresses:      reg.Addresses(),
		PasswordResets: reg.PasswordResets(),
		Clock:          deps.Clock,
		Logger:         deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build user service: %w", err)
	}
	svc.Users = userSvc

	reviewSvc, err := services.NewReviewService(services.ReviewServiceDeps{
		Reviews: reg.Reviews(),
		Orders:  reg.Orders(),
		Clock:   deps.Clock,
		Logger:  deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build review service: %w", err)
	}
	svc.Reviews = reviewSvc

	return svc, nil
}
