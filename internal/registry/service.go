// Package registry ведёт реестр целей публикации: каналов Telegram,
// где бот является администратором, и сообществ VK, доступных токену.
//
// Реестр для Telegram пополняется по событиям смены статуса бота в чате
// и никогда не чистится автоматически: потеря прав отражается флагом
// CanPost, запись остаётся. Список VK обновляется атомарно по запросу.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Postomat/internal/domain"
)

// ChannelStore — хранилище реестра.
type ChannelStore interface {
	Upsert(ctx context.Context, ch *domain.Channel) error
	Get(ctx context.Context, platform domain.Platform, externalID int64) (*domain.Channel, error)
	List(ctx context.Context, platform domain.Platform) ([]domain.Channel, error)
	ReplacePlatform(ctx context.Context, platform domain.Platform, channels []domain.Channel) error
}

// GroupLister перечисляет сообщества VK, в которые возможна публикация.
type GroupLister interface {
	Groups(ctx context.Context) ([]domain.Channel, error)
}

// Service — реестр целей публикации.
type Service struct {
	channels ChannelStore
	vk       GroupLister
	logger   *slog.Logger
}

// Config — зависимости реестра. vk может быть nil, тогда обновление
// списка сообществ недоступно.
type Config struct {
	Channels ChannelStore
	VK       GroupLister
	Logger   *slog.Logger
}

func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		channels: cfg.Channels,
		vk:       cfg.VK,
		logger:   logger,
	}
}

// statuses бота в чате, при которых публикация возможна.
func canPostStatus(status string) bool {
	return status == "administrator" || status == "creator"
}

// HandleChatMemberUpdate регистрирует канал по событию смены статуса
// бота. Повышение до администратора включает канал, любой другой статус
// снимает флаг публикации, не удаляя запись.
func (s *Service) HandleChatMemberUpdate(ctx context.Context, chatID int64, title, newStatus string) error {
	ch := &domain.Channel{
		Platform:   domain.PlatformTelegram,
		ExternalID: chatID,
		Title:      title,
		CanPost:    canPostStatus(newStatus),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.channels.Upsert(ctx, ch); err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}

	s.logger.Info("telegram channel updated",
		slog.Int64("chat_id", chatID),
		slog.String("title", title),
		slog.Bool("can_post", ch.CanPost))
	return nil
}

// RefreshVK перечитывает список сообществ VK и атомарно замещает им
// текущий срез реестра. Частичных обновлений не бывает: если опрос VK
// упал, реестр остаётся прежним.
func (s *Service) RefreshVK(ctx context.Context) ([]domain.Channel, error) {
	if s.vk == nil {
		return nil, fmt.Errorf("vk is not configured")
	}

	groups, err := s.vk.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vk groups: %w", err)
	}
	now := time.Now().UTC()
	for i := range groups {
		groups[i].UpdatedAt = now
	}

	if err := s.channels.ReplacePlatform(ctx, domain.PlatformVK, groups); err != nil {
		return nil, fmt.Errorf("replace vk channels: %w", err)
	}

	s.logger.Info("vk groups refreshed", slog.Int("count", len(groups)))
	return groups, nil
}

// List возвращает зарегистрированные цели платформы.
func (s *Service) List(ctx context.Context, platform domain.Platform) ([]domain.Channel, error) {
	return s.channels.List(ctx, platform)
}

// Postable возвращает цели платформы, доступные для публикации.
func (s *Service) Postable(ctx context.Context, platform domain.Platform) ([]domain.Channel, error) {
	all, err := s.channels.List(ctx, platform)
	if err != nil {
		return nil, err
	}
	postable := make([]domain.Channel, 0, len(all))
	for _, ch := range all {
		if ch.CanPost {
			postable = append(postable, ch)
		}
	}
	return postable, nil
}

// Get возвращает одну цель реестра.
func (s *Service) Get(ctx context.Context, platform domain.Platform, externalID int64) (*domain.Channel, error) {
	return s.channels.Get(ctx, platform, externalID)
}
