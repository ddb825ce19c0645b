package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Postomat/internal/domain"
	"github.com/shaiso/Postomat/internal/repo"
	"github.com/shaiso/Postomat/internal/telemetry"
)

// SystemActor — идентификатор оператора для вызовов из admin API и CLI.
// Оператор минует проверку авторизации, но суперадминистратор защищён
// от изменения и для него.
const SystemActor int64 = 0

// UserStore — операции хранилища, нужные контролю доступа.
// Реализуется repo.UserRepo; отсутствие записи — repo.ErrNotFound.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.User, error)
	ListByState(ctx context.Context, state domain.AuthState) ([]domain.User, error)
	CountByState(ctx context.Context, state domain.AuthState) (int, error)
}

// Service — контроль доступа: кто может планировать посты и кто
// распоряжается заявками.
//
// Первый пользователь, написавший боту, становится суперадминистратором.
// Остальные при первом контакте попадают в очередь PENDING ограниченной
// длины и ждут решения. Отклонённая заявка повторной саморегистрацией
// не восстанавливается.
type Service struct {
	users            UserStore
	logger           *slog.Logger
	queueCap         int
	defaultOffsetMin int
}

// Config — конфигурация Service.
type Config struct {
	Users UserStore

	// QueueCap — максимум одновременных PENDING-заявок.
	QueueCap int

	// DefaultOffsetMin — смещение от UTC для новых пользователей, в минутах.
	DefaultOffsetMin int

	Logger *slog.Logger
}

// New создаёт новый Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:            cfg.Users,
		logger:           logger,
		queueCap:         cfg.QueueCap,
		defaultOffsetMin: cfg.DefaultOffsetMin,
	}
}

// Register регистрирует контакт пользователя с ботом.
//
// Существующая запись возвращается как есть (с обновлением username);
// для REJECTED возвращается ErrAlreadyRejected. Если записи нет: первый
// пользователь бота становится SUPERADMIN, остальные встают в очередь
// PENDING, пока в ней есть место (иначе ErrQueueFull).
func (s *Service) Register(ctx context.Context, id int64, username string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	switch {
	case err == nil:
		if u.State == domain.AuthStateRejected {
			return nil, ErrAlreadyRejected
		}
		if username != "" && username != u.Username {
			u.Username = username
			if err := s.users.Update(ctx, u); err != nil {
				return nil, fmt.Errorf("update username: %w", err)
			}
		}
		return u, nil
	case errors.Is(err, repo.ErrNotFound):
		// создаём ниже
	default:
		return nil, fmt.Errorf("get user: %w", err)
	}

	state := domain.AuthStatePending

	admins, err := s.users.CountByState(ctx, domain.AuthStateSuperadmin)
	if err != nil {
		return nil, fmt.Errorf("count superadmins: %w", err)
	}
	if admins == 0 {
		state = domain.AuthStateSuperadmin
	} else {
		pending, err := s.users.CountByState(ctx, domain.AuthStatePending)
		if err != nil {
			return nil, fmt.Errorf("count pending: %w", err)
		}
		if pending >= s.queueCap {
			return nil, ErrQueueFull
		}
	}

	u = &domain.User{
		ID:          id,
		Username:    username,
		State:       state,
		TZOffsetMin: s.defaultOffsetMin,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		// Гонка двух одновременных /start: запись уже создана параллельным
		// вызовом, перечитываем её вместо ошибки.
		if errors.Is(err, repo.ErrAlreadyExists) {
			existing, gerr := s.users.GetByID(ctx, id)
			if gerr != nil {
				return nil, fmt.Errorf("reread user after duplicate create: %w", gerr)
			}
			if existing.State == domain.AuthStateRejected {
				return nil, ErrAlreadyRejected
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	telemetry.WithUserID(s.logger, id).Info("user registered", "state", state)
	return u, nil
}

// Approve одобряет заявку. Допускается и для REJECTED: решение
// администратора перекрывает прежний отказ.
func (s *Service) Approve(ctx context.Context, adminID, targetID int64) error {
	return s.setState(ctx, adminID, targetID, domain.AuthStateApproved)
}

// Reject отклоняет заявку. Отклонённый пользователь саморегистрацией
// в очередь не возвращается.
func (s *Service) Reject(ctx context.Context, adminID, targetID int64) error {
	return s.setState(ctx, adminID, targetID, domain.AuthStateRejected)
}

// Remove удаляет запись пользователя. Следующий контакт создаст новую
// PENDING-заявку (с учётом лимита очереди).
func (s *Service) Remove(ctx context.Context, adminID, targetID int64) error {
	target, err := s.authorizeChange(ctx, adminID, targetID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, target.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	telemetry.WithUserID(s.logger, targetID).Info("user removed", "admin_id", adminID)
	return nil
}

// setState переводит пользователя в новое состояние от имени администратора.
func (s *Service) setState(ctx context.Context, adminID, targetID int64, state domain.AuthState) error {
	target, err := s.authorizeChange(ctx, adminID, targetID)
	if err != nil {
		return err
	}
	if target.State == state {
		return nil
	}
	target.State = state
	if err := s.users.Update(ctx, target); err != nil {
		return fmt.Errorf("update user state: %w", err)
	}
	telemetry.WithUserID(s.logger, targetID).Info("user state changed",
		"state", state,
		"admin_id", adminID,
	)
	return nil
}

// authorizeChange проверяет право adminID менять targetID и возвращает цель.
// Суперадминистратора менять нельзя никому, включая оператора.
func (s *Service) authorizeChange(ctx context.Context, adminID, targetID int64) (*domain.User, error) {
	if adminID != SystemActor {
		admin, err := s.users.GetByID(ctx, adminID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrNotAuthorized
			}
			return nil, fmt.Errorf("get admin: %w", err)
		}
		if !admin.IsAuthorized() {
			return nil, ErrNotAuthorized
		}
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsSuperadmin() {
		return nil, ErrNotAuthorized
	}
	return target, nil
}

// IsAuthorized возвращает true, если пользователь может планировать посты.
// Отсутствие записи — не ошибка, просто false.
func (s *Service) IsAuthorized(ctx context.Context, id int64) (bool, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	return u.IsAuthorized(), nil
}

// GetUser возвращает пользователя по ID.
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListPending возвращает очередь заявок, старые первыми.
func (s *Service) ListPending(ctx context.Context) ([]domain.User, error) {
	return s.users.ListByState(ctx, domain.AuthStatePending)
}

// ListApproved возвращает одобренных пользователей.
func (s *Service) ListApproved(ctx context.Context) ([]domain.User, error) {
	return s.users.ListByState(ctx, domain.AuthStateApproved)
}

// ListAll возвращает всех пользователей (для /list_users).
func (s *Service) ListAll(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// SetOffset валидирует и сохраняет смещение пользователя вида "±HH:MM".
// Невалидное смещение ничего не мутирует (domain.ErrInvalidOffset).
func (s *Service) SetOffset(ctx context.Context, id int64, offset string) error {
	min, err := domain.ParseOffset(offset)
	if err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.TZOffsetMin = min
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("update offset: %w", err)
	}
	return nil
}
