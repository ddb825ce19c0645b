package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Postomat/internal/domain"
	"github.com/shaiso/Postomat/internal/platform"
	"github.com/shaiso/Postomat/internal/repo"
	"github.com/shaiso/Postomat/internal/telemetry"
)

// Default configuration values.
const (
	defaultInterval  = 30 * time.Second
	defaultTimeout   = 30 * time.Second
	defaultBatchSize = 50
)

// PostStore — операции хранилища, нужные диспетчеру.
type PostStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Post, error)
	Transition(ctx context.Context, id uuid.UUID, from, to domain.PostStatus, errText string) error
	ListDeliveries(ctx context.Context, postID uuid.UUID) ([]domain.Delivery, error)
	UpdateDelivery(ctx context.Context, d *domain.Delivery) error
}

// Locker — advisory-lock лидерство между экземплярами диспетчера.
type Locker interface {
	TryDispatchLock(ctx context.Context) (bool, error)
	ReleaseDispatchLock(ctx context.Context) error
}

// TelegramSender публикует в каналы Telegram.
type TelegramSender interface {
	Forward(ctx context.Context, targetID int64, src platform.SourceRef) (platform.MessageRef, error)
	Copy(ctx context.Context, targetID int64, src platform.SourceRef) (platform.MessageRef, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// WallPoster публикует на стены сообществ VK.
type WallPoster interface {
	PostWall(ctx context.Context, groupID int64, message, attachment string) (int64, error)
	UploadWallPhoto(ctx context.Context, groupID int64, photo []byte) (string, error)
}

// EventPublisher — необязательная публикация событий финализации.
type EventPublisher interface {
	PublishPostSent(ctx context.Context, postID uuid.UUID) error
	PublishPostFailed(ctx context.Context, postID uuid.UUID, reason string) error
}

// Dispatcher — цикл публикации запланированных постов.
type Dispatcher struct {
	posts     PostStore
	locker    Locker
	telegram  TelegramSender
	vk        WallPoster
	publisher EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	timeout   time.Duration
	batchSize int
}

// Config — конфигурация Dispatcher.
type Config struct {
	Posts     PostStore
	Locker    Locker         // nil — лидерство не разыгрывается
	Telegram  TelegramSender
	VK        WallPoster     // nil — цели VK финализируются с ошибкой
	Publisher EventPublisher // nil — события не публикуются
	Logger    *slog.Logger

	Interval  time.Duration // период тиков (default: 30s)
	Timeout   time.Duration // бюджет одной доставки (default: 30s)
	BatchSize int           // постов за один тик (default: 50)
}

// New создаёт новый Dispatcher.
func New(cfg Config) *Dispatcher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		posts:     cfg.Posts,
		locker:    cfg.Locker,
		telegram:  cfg.Telegram,
		vk:        cfg.VK,
		publisher: cfg.Publisher,
		logger:    logger,
		interval:  interval,
		timeout:   timeout,
		batchSize: batchSize,
	}
}

// Run крутит тики до отмены контекста. Тики выполняются последовательно:
// следующий не начнётся, пока не закончился предыдущий.
func (d *Dispatcher) Run(ctx context.Context) {
	tk := time.NewTicker(d.interval)
	defer tk.Stop()

	var hasLock bool
	defer func() {
		if hasLock && d.locker != nil {
			_ = d.locker.ReleaseDispatchLock(context.Background())
		}
	}()

	d.logger.Info("dispatcher started", "interval", d.interval.String())

	for {
		select {
		case <-tk.C:
			// пытаемся стать лидером (или подтвердить лидерство)
			if d.locker != nil && !hasLock {
				ok, err := d.locker.TryDispatchLock(ctx)
				if err != nil {
					d.logger.Error("dispatch lock failed", "error", err)
					continue
				}
				hasLock = ok
			}
			if d.locker != nil && !hasLock {
				// не лидер — пропускаем тик
				continue
			}

			if err := d.Tick(ctx); err != nil {
				d.logger.Error("dispatch tick failed", "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}

// Tick выполняет один тик диспетчера.
//
// 1. Находит due посты (status=SCHEDULED, dispatch_at <= now)
// 2. Захватывает каждый CAS-переходом SCHEDULED → DISPATCHING
// 3. Доставляет пост в каждую цель
// 4. Финализирует пост агрегатом статусов доставок
//
// Ошибка выборки прерывает тик; ошибки отдельных постов — нет.
func (d *Dispatcher) Tick(ctx context.Context) error {
	ticksTotal.Inc()
	now := time.Now().UTC()

	posts, err := d.posts.ListDue(ctx, now, d.batchSize)
	if err != nil {
		return fmt.Errorf("list due posts: %w", err)
	}
	if len(posts) == 0 {
		return nil
	}

	d.logger.Debug("found due posts", "count", len(posts))

	var dispatched int
	for i := range posts {
		post := &posts[i]

		if err := d.dispatchPost(ctx, post, now); err != nil {
			d.logger.Error("failed to dispatch post",
				"post_id", post.ID,
				"owner_id", post.OwnerID,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}
		dispatched++
	}

	d.logger.Info("dispatch tick completed",
		"due", len(posts),
		"dispatched", dispatched,
	)
	return nil
}

// dispatchPost публикует один пост и финализирует его.
func (d *Dispatcher) dispatchPost(ctx context.Context, post *domain.Post, now time.Time) error {
	logger := telemetry.WithPostID(d.logger, post.ID.String())

	// 1. Захватываем пост. Проигрыш CAS — не ошибка: пост взял другой
	// экземпляр либо владелец успел его отменить.
	err := d.posts.Transition(ctx, post.ID, domain.PostStatusScheduled, domain.PostStatusDispatching, "")
	if err != nil {
		if errors.Is(err, repo.ErrStateConflict) || errors.Is(err, repo.ErrNotFound) {
			logger.Debug("post claimed elsewhere, skipping")
			return nil
		}
		return fmt.Errorf("claim post: %w", err)
	}

	deliveries, err := d.posts.ListDeliveries(ctx, post.ID)
	if err != nil {
		// Пост уже захвачен — финализируем отказом, а не бросаем в
		// DISPATCHING навсегда.
		reason := fmt.Sprintf("list deliveries: %v", err)
		if ferr := d.finalize(ctx, logger, post, domain.PostStatusFailed, reason); ferr != nil {
			return fmt.Errorf("finalize after %q: %w", reason, ferr)
		}
		return nil
	}

	// 2. Доставляем в каждую цель. Отказ одной цели не трогает остальные.
	for i := range deliveries {
		del := &deliveries[i]
		if del.Status != domain.DeliveryStatusPending {
			continue
		}

		d.deliver(ctx, logger, post, del, now)

		if err := d.posts.UpdateDelivery(ctx, del); err != nil {
			logger.Error("failed to persist delivery result",
				"delivery_id", del.ID,
				"error", err,
			)
			del.MarkFailed(fmt.Sprintf("persist result: %v", err))
		}

		deliveriesTotal.WithLabelValues(string(del.Platform), string(del.Status)).Inc()
	}

	// 3. Финализируем агрегатом.
	final := domain.AggregateStatus(deliveries)
	return d.finalize(ctx, logger, post, final, summarizeFailures(deliveries))
}

// deliver выполняет одну доставку с собственным бюджетом времени и
// записывает результат в del.
func (d *Dispatcher) deliver(ctx context.Context, logger *slog.Logger, post *domain.Post, del *domain.Delivery, now time.Time) {
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	switch del.Platform {
	case domain.PlatformTelegram:
		d.deliverTelegram(dctx, logger, post, del, now)
	case domain.PlatformVK:
		d.deliverVK(dctx, post, del, now)
	default:
		del.MarkFailed(fmt.Sprintf("unknown platform %q", del.Platform))
	}

	if del.Status == domain.DeliveryStatusFailed {
		logger.Warn("delivery failed",
			"platform", del.Platform,
			"target_id", del.TargetID,
			"error", del.Error,
		)
	}
}

// deliverTelegram пересылает исходное сообщение в канал. Если источник
// недоступен для пересылки, публикует копию. Любая другая ошибка,
// включая rate limit, финализирует доставку без повторов.
func (d *Dispatcher) deliverTelegram(ctx context.Context, logger *slog.Logger, post *domain.Post, del *domain.Delivery, now time.Time) {
	src := platform.SourceRef{ChatID: post.SourceChatID, MessageID: post.SourceMessageID}

	ref, err := d.telegram.Forward(ctx, del.TargetID, src)
	if err == nil {
		del.MarkSent(now, domain.DeliveryMethodForward, ref.MessageID)
		return
	}
	if !errors.Is(err, platform.ErrNotMember) {
		del.MarkFailed(err.Error())
		return
	}

	copyFallbackTotal.Inc()
	logger.Debug("forward source unavailable, copying", "target_id", del.TargetID)

	ref, err = d.telegram.Copy(ctx, del.TargetID, src)
	if err != nil {
		del.MarkFailed(err.Error())
		return
	}
	del.MarkSent(now, domain.DeliveryMethodCopy, ref.MessageID)
}

// deliverVK публикует пост на стену сообщества: подпись как текст записи,
// фотография (если была) переносится через upload-цепочку VK.
func (d *Dispatcher) deliverVK(ctx context.Context, post *domain.Post, del *domain.Delivery, now time.Time) {
	if d.vk == nil {
		del.MarkFailed("vk is not configured")
		return
	}

	var attachment string
	if post.PhotoFileID != "" {
		photo, err := d.telegram.DownloadFile(ctx, post.PhotoFileID)
		if err != nil {
			del.MarkFailed(fmt.Sprintf("download photo: %v", err))
			return
		}
		attachment, err = d.vk.UploadWallPhoto(ctx, del.TargetID, photo)
		if err != nil {
			del.MarkFailed(fmt.Sprintf("upload photo: %v", err))
			return
		}
	}

	postID, err := d.vk.PostWall(ctx, del.TargetID, post.Caption, attachment)
	if err != nil {
		del.MarkFailed(err.Error())
		return
	}
	del.MarkSent(now, domain.DeliveryMethodPost, postID)
}

// finalize переводит пост DISPATCHING → final и публикует событие.
func (d *Dispatcher) finalize(ctx context.Context, logger *slog.Logger, post *domain.Post, final domain.PostStatus, errText string) error {
	if final == domain.PostStatusSent {
		errText = ""
	}
	if err := d.posts.Transition(ctx, post.ID, domain.PostStatusDispatching, final, errText); err != nil {
		return fmt.Errorf("finalize post: %w", err)
	}

	switch final {
	case domain.PostStatusSent:
		postsSentTotal.Inc()
		logger.Info("post sent", "owner_id", post.OwnerID)
	case domain.PostStatusFailed:
		postsFailedTotal.Inc()
		logger.Warn("post failed", "owner_id", post.OwnerID, "error", errText)
	}

	if d.publisher != nil {
		var perr error
		switch final {
		case domain.PostStatusSent:
			perr = d.publisher.PublishPostSent(ctx, post.ID)
		case domain.PostStatusFailed:
			perr = d.publisher.PublishPostFailed(ctx, post.ID, errText)
		}
		if perr != nil {
			// Не фатальная ошибка — статус уже записан в БД.
			logger.Warn("failed to publish post event", "error", perr)
		}
	}
	return nil
}

// summarizeFailures собирает короткую сводку отказов для поля error поста.
func summarizeFailures(deliveries []domain.Delivery) string {
	var failed []string
	for i := range deliveries {
		if deliveries[i].Status != domain.DeliveryStatusSent {
			failed = append(failed, fmt.Sprintf("%s/%d: %s",
				deliveries[i].Platform, deliveries[i].TargetID, deliveries[i].Error))
		}
	}
	if len(failed) == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d targets failed: %s",
		len(failed), len(deliveries), strings.Join(failed, "; "))
}
