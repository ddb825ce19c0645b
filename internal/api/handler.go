package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Postomat/internal/access"
	"github.com/shaiso/Postomat/internal/domain"
	"github.com/shaiso/Postomat/internal/registry"
)

// PostStore — операции хранилища постов, нужные API.
type PostStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	ListScheduled(ctx context.Context, ownerID *int64) ([]domain.Post, error)
	ListHistory(ctx context.Context, ownerID *int64, limit int) ([]domain.Post, error)
	ListDeliveries(ctx context.Context, postID uuid.UUID) ([]domain.Delivery, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	access   *access.Service
	registry *registry.Service
	posts    PostStore
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Access   *access.Service
	Registry *registry.Service
	Posts    PostStore
	Logger   *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		access:   cfg.Access,
		registry: cfg.Registry,
		posts:    cfg.Posts,
		logger:   logger,
	}
}
