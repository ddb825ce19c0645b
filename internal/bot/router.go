// Package bot реализует диалоговый интерфейс планирования в Telegram.
//
// Поток планирования повторяет привычный сценарий: авторизованный
// пользователь пересылает боту сообщение, выбирает платформу и цель
// инлайн-кнопками и вводит время публикации (или жмёт Send now).
// Состояние диалога держится в памяти процесса.
package bot

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/shaiso/Postomat/internal/access"
	"github.com/shaiso/Postomat/internal/domain"
	"github.com/shaiso/Postomat/internal/registry"
)

// PostStore — операции хранилища постов, нужные интерфейсу бота.
type PostStore interface {
	Create(ctx context.Context, post *domain.Post, deliveries []domain.Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	ListScheduled(ctx context.Context, ownerID *int64) ([]domain.Post, error)
	ListHistory(ctx context.Context, ownerID *int64, limit int) ([]domain.Post, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

// Router разбирает обновления Telegram и ведёт диалоги планирования.
type Router struct {
	bot      *tgbotapi.BotAPI
	access   *access.Service
	registry *registry.Service
	posts    PostStore
	logger   *slog.Logger

	drafts       *drafts
	historyLimit int
	vkEnabled    bool
}

// Config — зависимости Router.
type Config struct {
	Bot      *tgbotapi.BotAPI
	Access   *access.Service
	Registry *registry.Service
	Posts    PostStore
	Logger   *slog.Logger

	HistoryLimit int  // постов в /history (default: 10)
	VKEnabled    bool // показывать ли VK в выборе платформы
}

// NewRouter создаёт новый Router.
func NewRouter(cfg Config) *Router {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		bot:          cfg.Bot,
		access:       cfg.Access,
		registry:     cfg.Registry,
		posts:        cfg.Posts,
		logger:       logger,
		drafts:       newDrafts(),
		historyLimit: historyLimit,
		vkEnabled:    cfg.VKEnabled,
	}
}

// Run читает обновления long polling'ом до отмены контекста.
func (r *Router) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query", "my_chat_member"}

	updates := r.bot.GetUpdatesChan(u)
	r.logger.Info("bot started", "username", r.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			r.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate разбирает одно обновление.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.MyChatMember != nil:
		r.handleMyChatMember(ctx, upd.MyChatMember)
	case upd.Message != nil:
		r.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

// handleMyChatMember пополняет реестр каналов по смене статуса бота.
func (r *Router) handleMyChatMember(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	chat := upd.Chat
	if chat.Type != "channel" && chat.Type != "supergroup" {
		return
	}
	title := chat.Title
	if title == "" {
		title = chat.UserName
	}
	status := upd.NewChatMember.Status
	if err := r.registry.HandleChatMemberUpdate(ctx, chat.ID, title, status); err != nil {
		r.logger.Error("failed to handle chat member update",
			"chat_id", chat.ID,
			"error", err,
		)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	userID := msg.From.ID

	if msg.IsCommand() {
		r.handleCommand(ctx, msg)
		return
	}

	// Пересланное сообщение начинает диалог планирования.
	if msg.ForwardFromChat != nil {
		r.startDraft(ctx, userID, msg)
		return
	}

	// Свободный текст осмыслен только как ввод времени.
	if dr := r.drafts.get(userID); dr != nil && dr.Stage == stageTime {
		r.handleTimeInput(ctx, userID, strings.TrimSpace(msg.Text))
		return
	}

	r.sendText(userID, textNoDraft)
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		r.handleStart(ctx, userID, msg.From.UserName)
	case "tz":
		r.handleTZ(ctx, userID, args)
	case "pending":
		r.handlePending(ctx, userID)
	case "approve":
		r.handleApprove(ctx, userID, args)
	case "reject":
		r.handleReject(ctx, userID, args)
	case "remove_user":
		r.handleRemoveUser(ctx, userID, args)
	case "list_users":
		r.handleListUsers(ctx, userID)
	case "channels":
		r.handleChannels(ctx, userID)
	case "refresh_vkgroups":
		r.handleRefreshVK(ctx, userID)
	case "scheduled":
		r.handleScheduled(ctx, userID)
	case "history":
		r.handleHistory(ctx, userID)
	case "cancel":
		r.drafts.clear(userID)
		r.sendText(userID, textDraftDropped)
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID
	kind, value, _ := strings.Cut(cb.Data, ":")

	switch kind {
	case "svc":
		r.handleServiceChoice(ctx, userID, value)
	case "tgch":
		r.handleTargetChoice(ctx, userID, domain.PlatformTelegram, value)
	case "vkgrp":
		r.handleTargetChoice(ctx, userID, domain.PlatformVK, value)
	case "sendnow":
		r.handleSendNow(ctx, userID)
	case "approve":
		r.handleApprove(ctx, userID, value)
	case "reject":
		r.handleReject(ctx, userID, value)
	case "cancel":
		r.handleCancelPost(ctx, userID, value)
	}

	if _, err := r.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.logger.Debug("failed to answer callback", "error", err)
	}
}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.bot.Send(msg); err != nil {
		r.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (r *Router) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.bot.Send(msg); err != nil {
		r.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}
