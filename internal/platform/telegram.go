package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shaiso/Postomat/internal/domain"
)

// Telegram — клиент Telegram Bot API.
//
// Таймаут ограничивается HTTP-клиентом tgbotapi, выставленным при создании
// бота: зависший вызов платформы завершается ошибкой, а не висит вечно.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	http   *http.Client
	logger *slog.Logger
}

// NewTelegram создаёт клиента поверх существующего бота.
func NewTelegram(bot *tgbotapi.BotAPI, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		bot:    bot,
		http:   &http.Client{},
		logger: logger,
	}
}

// Forward пересылает исходное сообщение в целевой чат с сохранением
// атрибуции источника.
func (t *Telegram) Forward(_ context.Context, targetID int64, src SourceRef) (MessageRef, error) {
	msg, err := t.bot.Send(tgbotapi.NewForward(targetID, src.ChatID, src.MessageID))
	if err != nil {
		return MessageRef{}, classifyTelegramError(err)
	}
	return MessageRef{
		Platform:  domain.PlatformTelegram,
		ChatID:    targetID,
		MessageID: int64(msg.MessageID),
	}, nil
}

// Copy пересоздаёт исходное сообщение в целевом чате без атрибуции.
// Fallback для случаев, когда источник недоступен для пересылки.
func (t *Telegram) Copy(_ context.Context, targetID int64, src SourceRef) (MessageRef, error) {
	res, err := t.bot.CopyMessage(tgbotapi.NewCopyMessage(targetID, src.ChatID, src.MessageID))
	if err != nil {
		return MessageRef{}, classifyTelegramError(err)
	}
	return MessageRef{
		Platform:  domain.PlatformTelegram,
		ChatID:    targetID,
		MessageID: int64(res.MessageID),
	}, nil
}

// DownloadFile скачивает файл по file_id. Используется для переноса
// фотографий из Telegram на стену VK.
func (t *Telegram) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, classifyTelegramError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build file request: %w", err)
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download file: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download file: status %d", ErrTransient, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// notMemberMarkers — фрагменты описаний ошибок Bot API, означающие,
// что источник или цель недоступны боту.
var notMemberMarkers = []string{
	"not a member",
	"chat not found",
	"message to forward not found",
	"message can't be forwarded",
	"not enough rights",
	"bot was kicked",
	"have no rights",
	"CHAT_ADMIN_REQUIRED",
}

// classifyTelegramError сводит ошибку Bot API к таксономии доставки.
func classifyTelegramError(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		// Не ответ API — сетевая/временная ошибка.
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	if apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: retry after %ds", ErrRateLimited, apiErr.RetryAfter)
	}
	if apiErr.Code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: telegram: %s", ErrTransient, apiErr.Message)
	}
	for _, marker := range notMemberMarkers {
		if strings.Contains(strings.ToLower(apiErr.Message), strings.ToLower(marker)) {
			return fmt.Errorf("%w: telegram: %s", ErrNotMember, apiErr.Message)
		}
	}
	return fmt.Errorf("telegram: %s", apiErr.Message)
}
