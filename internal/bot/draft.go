package bot

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Postomat/internal/domain"
)

// draftStage — шаг диалога планирования.
type draftStage int

const (
	stageService draftStage = iota // выбор платформы
	stageTarget                    // выбор канала/сообщества
	stageTime                      // ввод времени
)

// draft — незавершённое планирование поста. Живёт в памяти: рестарт
// бота сбрасывает начатые диалоги, уже запланированные посты не трогает.
type draft struct {
	SourceChatID    int64
	SourceMessageID int
	Caption         string
	PhotoFileID     string

	Platform    domain.Platform
	TargetID    int64
	TargetTitle string

	Stage draftStage
}

// drafts — диалоги планирования по пользователям.
type drafts struct {
	mu sync.Mutex
	m  map[int64]*draft
}

func newDrafts() *drafts {
	return &drafts{m: make(map[int64]*draft)}
}

func (d *drafts) get(userID int64) *draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m[userID]
}

func (d *drafts) set(userID int64, dr *draft) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[userID] = dr
}

func (d *drafts) clear(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.m, userID)
}

// buildPost собирает пост и его доставку из завершённого диалога.
// Момент публикации вычисляется из смещения владельца один раз, здесь.
func buildPost(user *domain.User, dr *draft, lt domain.LocalTime, requested string, now time.Time) (*domain.Post, []domain.Delivery) {
	post := &domain.Post{
		ID:              uuid.New(),
		OwnerID:         user.ID,
		SourceChatID:    dr.SourceChatID,
		SourceMessageID: dr.SourceMessageID,
		Caption:         dr.Caption,
		PhotoFileID:     dr.PhotoFileID,
		Status:          domain.PostStatusScheduled,
		RequestedAt:     requested,
		DispatchAt:      domain.ResolveDispatchInstant(lt, user.TZOffsetMin, now),
		CreatedAt:       now,
	}
	deliveries := []domain.Delivery{{
		ID:          uuid.New(),
		PostID:      post.ID,
		Platform:    dr.Platform,
		TargetID:    dr.TargetID,
		TargetTitle: dr.TargetTitle,
		Status:      domain.DeliveryStatusPending,
	}}
	return post, deliveries
}
