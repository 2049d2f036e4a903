package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/service"
	"github.com/dougmab/open-vinyl-box-api/pkg/health"
	"github.com/dougmab/open-vinyl-box-api/pkg/middleware"
)

const serviceName = "vinylbox-api"

// RouterDeps bundles everything the router needs wired in.
type RouterDeps struct {
	Products   *service.ProductService
	Categories *service.CategoryService
	Ratings    *service.RatingService
	Discounts  *service.DiscountService
	Users      *service.UserService
	Auth       *service.AuthService

	Health        *health.Handler
	TokenValidate middleware.TokenValidator
	CORS          middleware.CORSConfig
	PprofCIDRs    []string
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all API routes registered.
//
// Catalog reads (products, categories, statistics, active discounts) are
// public. Rating mutations require authentication; catalog and user
// management additionally require the operator or admin role.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(deps.CORS))

	// Operational endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, deps.PprofCIDRs, deps.Logger)

	authn := middleware.Auth(deps.TokenValidate)
	staff := middleware.RequireRole(domain.RoleOperator, domain.RoleAdmin)
	admin := middleware.RequireRole(domain.RoleAdmin)

	productHandler := NewProductHandler(deps.Products, deps.Logger)
	categoryHandler := NewCategoryHandler(deps.Categories, deps.Logger)
	ratingHandler := NewRatingHandler(deps.Ratings, deps.Logger)
	discountHandler := NewDiscountHandler(deps.Discounts, deps.Logger)
	userHandler := NewUserHandler(deps.Users, deps.Logger)
	authHandler := NewAuthHandler(deps.Auth, deps.Logger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Get("/{idOrSlug}", productHandler.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(authn, staff)
			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
		})

		r.Route("/{id}/ratings", func(r chi.Router) {
			r.Get("/", ratingHandler.ListRatings)
			r.Get("/statistics", ratingHandler.GetStatistics)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/me", ratingHandler.GetMyRating)
				r.Post("/", ratingHandler.RateProduct)
				r.Put("/", ratingHandler.ChangeRating)
				r.Delete("/", ratingHandler.RemoveRating)
			})
		})

		r.Route("/{id}/discount", func(r chi.Router) {
			r.Get("/", discountHandler.GetDiscount)

			r.Group(func(r chi.Router) {
				r.Use(authn, admin)
				r.Post("/", discountHandler.CreateDiscount)
				r.Delete("/", discountHandler.DeleteDiscount)
			})
		})
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.ListCategories)
		r.Get("/{id}", categoryHandler.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(authn, staff)
			r.Post("/", categoryHandler.CreateCategory)
			r.Put("/{id}", categoryHandler.UpdateCategory)
			r.Delete("/{id}", categoryHandler.DeleteCategory)
		})
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(authn, admin)
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
			r.Put("/{id}", userHandler.UpdateUser)
			r.Delete("/{id}", userHandler.DeleteUser)
		})
	})

	return r
}
