package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shaiso/Postomat/internal/domain"
)

// UI texts in English, as terse as the bot's audience expects.
const (
	textSuperadmin    = "You are superadmin"
	textPending       = "Registration request sent, wait for approval"
	textApproved      = "You are authorized. Forward me a message to schedule it"
	textRejected      = "Your registration was rejected"
	textQueueFull     = "Registration queue is full, try again later"
	textNotAuthorized = "Not authorized"
	textChooseService = "Choose platform"
	textChooseTarget  = "Choose target"
	textEnterTime     = "Enter time (HH:MM or DD.MM.YYYY HH:MM)"
	textInvalidTime   = "Invalid time format"
	textNoTargets     = "No targets available"
	textNoDraft       = "Forward me a message first"
	textDraftDropped  = "Scheduling cancelled"
	textNoUsers       = "No users"
	textNoPending     = "No pending registrations"
	textNoChannels    = "No channels"
	textNoPosts       = "No posts"
	textNoHistory     = "No history"
	textTZUsage       = "Usage: /tz +HH:MM"
	textInternalError = "Something went wrong, try again later"
)

// serviceKeyboard — выбор платформы публикации.
func serviceKeyboard(vkEnabled bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Telegram", "svc:tg"),
	}
	if vkEnabled {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("VK", "svc:vk"))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// targetKeyboard — выбор цели: по кнопке на канал/сообщество.
func targetKeyboard(channels []domain.Channel) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range channels {
		prefix := "tgch"
		if ch.Platform == domain.PlatformVK {
			prefix = "vkgrp"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ch.Title, fmt.Sprintf("%s:%d", prefix, ch.ExternalID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// timeKeyboard — кнопка немедленной публикации под приглашением ввода времени.
func timeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Send now", "sendnow"),
		),
	)
}

// pendingUserKeyboard — approve/reject для одной заявки.
func pendingUserKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", fmt.Sprintf("approve:%d", userID)),
			tgbotapi.NewInlineKeyboardButtonData("Reject", fmt.Sprintf("reject:%d", userID)),
		),
	)
}

// cancelPostKeyboard — отмена одного запланированного поста.
func cancelPostKeyboard(postID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "cancel:"+postID),
		),
	)
}
