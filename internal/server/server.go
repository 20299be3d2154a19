//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"grocermart/internal/model"
)

type OrderService interface {
	Create(ctx context.Context, actor model.Actor, items []model.OrderItem, notes string) (*model.Order, error)
	Get(ctx context.Context, actor model.Actor, id int64) (*model.Order, error)
	ListByCustomer(ctx context.Context, actor model.Actor) ([]model.Order, error)
	ListByShopper(ctx context.Context, actor model.Actor) ([]model.Order, error)
	ListPending(ctx context.Context, actor model.Actor) ([]model.Order, error)
	Accept(ctx context.Context, actor model.Actor, orderID int64, lat, lon *float64) (*model.Order, error)
	AdvanceStatus(ctx context.Context, actor model.Actor, orderID int64, target model.Status) (*model.Order, error)
	UpdateItems(ctx context.Context, actor model.Actor, orderID int64, items []model.OrderItem) (*model.Order, error)
	Edit(ctx context.Context, actor model.Actor, orderID int64, items []model.OrderItem, notes string) (*model.Order, error)
	Pay(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
}

type ReviewService interface {
	Create(ctx context.Context, actor model.Actor, orderID, toID int64, rating int, comment string) (*model.Review, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Review, error)
}

type AuthService interface {
	Register(ctx context.Context, username, password string, role model.Role, name, phone string) (*model.User, string, error)
	Login(ctx context.Context, username, password string) (*model.User, string, error)
}

type UserService interface {
	SetAvailability(ctx context.Context, actor model.Actor, isAvailable bool) (*model.User, error)
}

type Server struct {
	orders    OrderService
	reviews   ReviewService
	auth      AuthService
	users     UserService
	wsHandler http.HandlerFunc
	jwtSecret string
	logger    *zap.Logger
	server    *http.Server
}

func New(orders OrderService, reviews ReviewService, auth AuthService, users UserService, wsHandler http.HandlerFunc, jwtSecret string, logger *zap.Logger) *Server {
	return &Server{
		orders:    orders,
		reviews:   reviews,
		auth:      auth,
		users:     users,
		wsHandler: wsHandler,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

func (s *Server) Run(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info("http server starting", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.wsHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/reviews/{userId}", s.handleListReviews).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/customer", s.handleCustomerOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/shopper", s.handleShopperOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/pending", s.handlePendingOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.handleEditOrder).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/accept", s.handleAcceptOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/status", s.handleAdvanceStatus).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/items", s.handleUpdateItems).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/pay", s.handlePayOrder).Methods(http.MethodPost)

	api.HandleFunc("/reviews", s.handleCreateReview).Methods(http.MethodPost)
	api.HandleFunc("/shoppers/availability", s.handleSetAvailability).Methods(http.MethodPost)

	return r
}
