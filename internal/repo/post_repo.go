package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Postomat/internal/domain"
)

// dispatchLockKey — ключ advisory-блокировки цикла доставки.
// Защищает от одновременного запуска второго экземпляра процесса.
const dispatchLockKey int64 = 727272

// PostRepo — репозиторий запланированных постов и их доставок.
//
// Единственный источник истины для цикла доставки: никакой кэш due-записей
// между тиками не живёт.
type PostRepo struct {
	pool *pgxpool.Pool
}

// NewPostRepo создаёт новый PostRepo.
func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

const postColumns = `
	id, owner_id, source_chat_id, source_message_id, caption, photo_file_id,
	status, requested_at, dispatch_at, sent_at, error, created_at`

// Create создаёт пост вместе с его доставками в одной транзакции.
func (r *PostRepo) Create(ctx context.Context, post *domain.Post, deliveries []domain.Delivery) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO posts (id, owner_id, source_chat_id, source_message_id,
		                   caption, photo_file_id, status, requested_at,
		                   dispatch_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, query,
		post.ID,
		post.OwnerID,
		post.SourceChatID,
		post.SourceMessageID,
		post.Caption,
		post.PhotoFileID,
		post.Status,
		post.RequestedAt,
		post.DispatchAt,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	deliveryQuery := `
		INSERT INTO post_deliveries (id, post_id, platform, target_id, target_title, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range deliveries {
		d := &deliveries[i]
		if _, err := tx.Exec(ctx, deliveryQuery,
			d.ID, d.PostID, d.Platform, d.TargetID, d.TargetTitle, d.Status,
		); err != nil {
			return fmt.Errorf("insert delivery %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID возвращает пост по ID.
func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return scanPost(r.pool.QueryRow(ctx, query, id))
}

// ListDue возвращает SCHEDULED-посты с наступившим моментом публикации,
// упорядоченные по моменту публикации по возрастанию.
func (r *PostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = 'SCHEDULED'
		  AND dispatch_at <= $1
		ORDER BY dispatch_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due posts: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListScheduled возвращает ещё не доставленные посты (SCHEDULED),
// опционально отфильтрованные по владельцу, ближайшие первыми.
func (r *PostRepo) ListScheduled(ctx context.Context, ownerID *int64) ([]domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = 'SCHEDULED'
		  AND ($1::bigint IS NULL OR owner_id = $1)
		ORDER BY dispatch_at ASC
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled posts: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListHistory возвращает финализированные посты (SENT/FAILED/CANCELLED),
// свежие первыми.
func (r *PostRepo) ListHistory(ctx context.Context, ownerID *int64, limit int) ([]domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status IN ('SENT', 'FAILED', 'CANCELLED')
		  AND ($1::bigint IS NULL OR owner_id = $1)
		ORDER BY dispatch_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list post history: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// Transition — CAS-переход статуса поста: применяется, только если хранимый
// статус равен from. При расхождении возвращает ErrStateConflict — так
// конкурирующие тики не захватывают один пост дважды.
//
// Для финальных статусов фиксируется sent_at и текст ошибки.
func (r *PostRepo) Transition(ctx context.Context, id uuid.UUID, from, to domain.PostStatus, errText string) error {
	query := `
		UPDATE posts
		SET status = $3,
		    error = $4,
		    sent_at = CASE WHEN $3 IN ('SENT', 'FAILED') THEN now() ELSE sent_at END
		WHERE id = $1 AND status = $2
	`
	result, err := r.pool.Exec(ctx, query, id, from, to, errText)
	if err != nil {
		return fmt.Errorf("transition post: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStateConflict
	}
	return nil
}

// Cancel отменяет пост. Возможно только из статуса SCHEDULED: захваченный,
// доставленный или уже отменённый пост не отменяется (ErrInvalidState).
func (r *PostRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE posts SET status = 'CANCELLED' WHERE id = $1 AND status = 'SCHEDULED'
	`, id)
	if err != nil {
		return fmt.Errorf("cancel post: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

// ListDeliveries возвращает доставки поста в порядке создания.
func (r *PostRepo) ListDeliveries(ctx context.Context, postID uuid.UUID) ([]domain.Delivery, error) {
	query := `
		SELECT id, post_id, platform, target_id, target_title,
		       status, method, platform_message_id, error, sent_at
		FROM post_deliveries
		WHERE post_id = $1
		ORDER BY target_id ASC
	`
	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(
			&d.ID, &d.PostID, &d.Platform, &d.TargetID, &d.TargetTitle,
			&d.Status, &d.Method, &d.PlatformMessageID, &d.Error, &d.SentAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// UpdateDelivery записывает результат доставки в одну цель.
func (r *PostRepo) UpdateDelivery(ctx context.Context, d *domain.Delivery) error {
	query := `
		UPDATE post_deliveries
		SET status = $2, method = $3, platform_message_id = $4, error = $5, sent_at = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		d.ID, d.Status, string(d.Method), d.PlatformMessageID, d.Error, d.SentAt)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TryDispatchLock пытается взять advisory-блокировку цикла доставки.
// Блокировка живёт, пока жив пул; второй процесс её не получит.
func (r *PostRepo) TryDispatchLock(ctx context.Context) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, dispatchLockKey).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("try dispatch lock: %w", err)
	}
	return ok, nil
}

// ReleaseDispatchLock снимает advisory-блокировку цикла доставки.
func (r *PostRepo) ReleaseDispatchLock(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `SELECT pg_advisory_unlock($1)`, dispatchLockKey)
	return err
}

// --- Helpers ---

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.SourceChatID, &p.SourceMessageID,
		&p.Caption, &p.PhotoFileID, &p.Status, &p.RequestedAt,
		&p.DispatchAt, &p.SentAt, &p.Error, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.SourceChatID, &p.SourceMessageID,
			&p.Caption, &p.PhotoFileID, &p.Status, &p.RequestedAt,
			&p.DispatchAt, &p.SentAt, &p.Error, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
