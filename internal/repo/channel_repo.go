package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Postomat/internal/domain"
)

// ChannelRepo — репозиторий целей публикации.
type ChannelRepo struct {
	pool *pgxpool.Pool
}

// NewChannelRepo создаёт новый ChannelRepo.
func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

// Upsert вставляет или обновляет канал по ключу (platform, external_id).
func (r *ChannelRepo) Upsert(ctx context.Context, ch *domain.Channel) error {
	query := `
		INSERT INTO channels (platform, external_id, title, can_post, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (platform, external_id) DO UPDATE SET
			title      = excluded.title,
			can_post   = excluded.can_post,
			updated_at = now()
	`
	_, err := r.pool.Exec(ctx, query, ch.Platform, ch.ExternalID, ch.Title, ch.CanPost)
	if err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	return nil
}

// Get возвращает канал по платформе и внешнему ID.
func (r *ChannelRepo) Get(ctx context.Context, platform domain.Platform, externalID int64) (*domain.Channel, error) {
	query := `
		SELECT platform, external_id, title, can_post, updated_at
		FROM channels
		WHERE platform = $1 AND external_id = $2
	`
	var ch domain.Channel
	err := r.pool.QueryRow(ctx, query, platform, externalID).
		Scan(&ch.Platform, &ch.ExternalID, &ch.Title, &ch.CanPost, &ch.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan channel: %w", err)
	}
	return &ch, nil
}

// List возвращает каналы платформы, упорядоченные по имени.
func (r *ChannelRepo) List(ctx context.Context, platform domain.Platform) ([]domain.Channel, error) {
	query := `
		SELECT platform, external_id, title, can_post, updated_at
		FROM channels
		WHERE platform = $1
		ORDER BY title ASC, external_id ASC
	`
	rows, err := r.pool.Query(ctx, query, platform)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.Platform, &ch.ExternalID, &ch.Title, &ch.CanPost, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// ReplacePlatform атомарно заменяет весь набор каналов платформы.
// Используется при обновлении списка VK-сообществ: после ротации токена
// устаревшие записи не выживают.
func (r *ChannelRepo) ReplacePlatform(ctx context.Context, platform domain.Platform, channels []domain.Channel) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM channels WHERE platform = $1`, platform); err != nil {
		return fmt.Errorf("clear platform channels: %w", err)
	}

	query := `
		INSERT INTO channels (platform, external_id, title, can_post, updated_at)
		VALUES ($1, $2, $3, $4, now())
	`
	for i := range channels {
		ch := &channels[i]
		if _, err := tx.Exec(ctx, query, platform, ch.ExternalID, ch.Title, ch.CanPost); err != nil {
			return fmt.Errorf("insert channel %d: %w", ch.ExternalID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Delete удаляет канал. Явный путь удаления для целей,
// автоматически из реестра не исчезающих.
func (r *ChannelRepo) Delete(ctx context.Context, platform domain.Platform, externalID int64) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM channels WHERE platform = $1 AND external_id = $2`, platform, externalID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
