package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Postomat/internal/domain"
)

// UserRepo — репозиторий пользователей и их состояний авторизации.
type UserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo создаёт новый UserRepo.
func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create создаёт нового пользователя.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, username, state, tz_offset_min, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, u.ID, u.Username, u.State, u.TZOffsetMin, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по Telegram ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, username, state, tz_offset_min, created_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// Update обновляет username, состояние и смещение пользователя.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, state = $3, tz_offset_min = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, u.ID, u.Username, u.State, u.TZOffsetMin)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет пользователя. Следующий контакт создаст его заново
// в состоянии PENDING.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByState возвращает пользователей в заданном состоянии,
// старые заявки первыми.
func (r *UserRepo) ListByState(ctx context.Context, state domain.AuthState) ([]domain.User, error) {
	query := `
		SELECT id, username, state, tz_offset_min, created_at
		FROM users
		WHERE state = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, state)
	if err != nil {
		return nil, fmt.Errorf("list users by state: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// List возвращает всех пользователей.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT id, username, state, tz_offset_min, created_at
		FROM users
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// CountByState возвращает число пользователей в заданном состоянии.
// Используется для лимита очереди регистраций.
func (r *UserRepo) CountByState(ctx context.Context, state domain.AuthState) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE state = $1`, state).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// --- Helpers ---

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.State, &u.TZOffsetMin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.State, &u.TZOffsetMin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
