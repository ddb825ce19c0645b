package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/shaiso/Postomat/internal/access"
	"github.com/shaiso/Postomat/internal/domain"
	"github.com/shaiso/Postomat/internal/repo"
)

// --- Registration and access ---

func (r *Router) handleStart(ctx context.Context, userID int64, username string) {
	user, err := r.access.Register(ctx, userID, username)
	switch {
	case errors.Is(err, access.ErrAlreadyRejected):
		r.sendText(userID, textRejected)
		return
	case errors.Is(err, access.ErrQueueFull):
		r.sendText(userID, textQueueFull)
		return
	case err != nil:
		r.logger.Error("registration failed", "user_id", userID, "error", err)
		r.sendText(userID, textInternalError)
		return
	}

	switch user.State {
	case domain.AuthStateSuperadmin:
		r.sendText(userID, textSuperadmin)
	case domain.AuthStateApproved:
		r.sendText(userID, textApproved)
	default:
		r.sendText(userID, textPending)
	}
}

func (r *Router) handleTZ(ctx context.Context, userID int64, args string) {
	if args == "" {
		r.sendText(userID, textTZUsage)
		return
	}
	if err := r.access.SetOffset(ctx, userID, args); err != nil {
		if errors.Is(err, domain.ErrInvalidOffset) {
			r.sendText(userID, textTZUsage)
			return
		}
		r.logger.Error("failed to set offset", "user_id", userID, "error", err)
		r.sendText(userID, textInternalError)
		return
	}
	r.sendText(userID, fmt.Sprintf("Timezone set to %s", args))
}

func (r *Router) handlePending(ctx context.Context, userID int64) {
	if !r.requireAuthorized(ctx, userID) {
		return
	}
	pending, err := r.access.ListPending(ctx)
	if err != nil {
		r.logger.Error("failed to list pending", "error", err)
		r.sendText(userID, textInternalError)
		return
	}
	if len(pending) == 0 {
		r.sendText(userID, textNoPending)
		return
	}
	for _, u := range pending {
		label := fmt.Sprintf("%d", u.ID)
		if u.Username != "" {
			label = "@" + u.Username
		}
		r.sendWithKeyboard(userID, fmt.Sprintf("Registration request: %s", label), pendingUserKeyboard(u.ID))
	}
}

func (r *Router) handleApprove(ctx context.Context, adminID int64, arg string) {
	targetID, ok := parseUserID(arg)
	if !ok {
		r.sendText(adminID, "Usage: /approve <user_id>")
		return
	}
	if err := r.access.Approve(ctx, adminID, targetID); err != nil {
		r.replyAccessError(adminID, err)
		return
	}
	r.sendText(adminID, fmt.Sprintf("User %d approved", targetID))
	r.sendText(targetID, textApproved)
}

func (r *Router) handleReject(ctx context.Context, adminID int64, arg string) {
	targetID, ok := parseUserID(arg)
	if !ok {
		r.sendText(adminID, "Usage: /reject <user_id>")
		return
	}
	if err := r.access.Reject(ctx, adminID, targetID); err != nil {
		r.replyAccessError(adminID, err)
		return
	}
	r.sendText(adminID, fmt.Sprintf("User %d rejected", targetID))
	r.sendText(targetID, textRejected)
}

func (r *Router) handleRemoveUser(ctx context.Context, adminID int64, arg string) {
	targetID, ok := parseUserID(arg)
	if !ok {
		r.sendText(adminID, "Usage: /remove_user <user_id>")
		return
	}
	if err := r.access.Remove(ctx, adminID, targetID); err != nil {
		r.replyAccessError(adminID, err)
		return
	}
	r.sendText(adminID, fmt.Sprintf("User %d removed", targetID))
}

func (r *Router) handleListUsers(ctx context.Context, userID int64) {
	if !r.requireAuthorized(ctx, userID) {
		return
	}
	users, err := r.access.ListAll(ctx)
	if err != nil {
		r.logger.Error("failed to list users", "error", err)
		r.sendText(userID, textInternalError)
		return
	}
	if len(users) == 0 {
		r.sendText(userID, textNoUsers)
		return
	}
	var b strings.Builder
	for _, u := range users {
		name := fmt.Sprintf("%d", u.ID)
		if u.Username != "" {
			name = u.Username
		}
		fmt.Fprintf(&b, "[%s](tg://user?id=%d) — %s\n", name, u.ID, strings.ToLower(string(u.State)))
	}
	r.sendMarkdown(userID, b.String())
}

func (r *Router) replyAccessError(adminID int64, err error) {
	switch {
	case errors.Is(err, access.ErrNotAuthorized):
		r.sendText(adminID, textNotAuthorized)
	case errors.Is(err, repo.ErrNotFound):
		r.sendText(adminID, "No such user")
	default:
		r.logger.Error("access change failed", "admin_id", adminID, "error", err)
		r.sendText(adminID, textInternalError)
	}
}

// requireAuthorized отвечает отказом неавторизованному пользователю.
func (r *Router) requireAuthorized(ctx context.Context, userID int64) bool {
	ok, err := r.access.IsAuthorized(ctx, userID)
	if err != nil {
		r.logger.Error("authorization check failed", "user_id", userID, "error", err)
		r.sendText(userID, textInternalError)
		return false
	}
	if !ok {
		r.sendText(userID, textNotAuthorized)
	}
	return ok
}

// --- Registry ---

func (r *Router) handleChannels(ctx context.Context, userID int64) {
	if !r.requireAuthorized(ctx, userID) {
		return
	}
	var lines []string
	for _, p := range []domain.Platform{domain.PlatformTelegram, domain.PlatformVK} {
		channels, err := r.registry.List(ctx, p)
		if err != nil {
			r.logger.Error("failed to list channels", "platform", p, "error", err)
			r.sendText(userID, textInternalError)
			return
		}
		for _, ch := range channels {
			mark := ""
			if !ch.CanPost {
				mark = " (no posting rights)"
			}
			lines = append(lines, fmt.Sprintf("%s: %s (%d)%s", ch.Platform, ch.Title, ch.ExternalID, mark))
		}
	}
	if len(lines) == 0 {
		r.sendText(userID, textNoChannels)
		return
	}
	r.sendText(userID, strings.Join(lines, "\n"))
}

func (r *Router) handleRefreshVK(ctx context.Context, userID int64) {
	if !r.requireAuthorized(ctx, userID) {
		return
	}
	groups, err := r.registry.RefreshVK(ctx)
	if err != nil {
		r.logger.Error("vk refresh failed", "error", err)
		r.sendText(userID, "VK refresh failed")
		return
	}
	r.sendText(userID, fmt.Sprintf("VK groups refreshed: %d", len(groups)))
}

// --- Scheduling flow ---

// startDraft начинает диалог планирования с пересланного сообщения.
func (r *Router) startDraft(ctx context.Context, userID int64, msg *tgbotapi.Message) {
	if !r.requireAuthorized(ctx, userID) {
		return
	}

	dr := &draft{
		SourceChatID:    msg.ForwardFromChat.ID,
		SourceMessageID: msg.ForwardFromMessageID,
		Caption:         msg.Caption,
		Stage:           stageService,
	}
	if dr.Caption == "" {
		dr.Caption = msg.Text
	}
	// Самое крупное фото — последнее в списке размеров.
	if len(msg.Photo) > 0 {
		dr.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
	}

	r.drafts.set(userID, dr)
	r.sendWithKeyboard(userID, textChooseService, serviceKeyboard(r.vkEnabled))
}

func (r *Router) handleServiceChoice(ctx context.Context, userID int64, value string) {
	dr := r.drafts.get(userID)
	if dr == nil {
		r.sendText(userID, textNoDraft)
		return
	}

	platform := domain.PlatformTelegram
	if value == "vk" {
		platform = domain.PlatformVK
	}
	targets, err := r.registry.Postable(ctx, platform)
	if err != nil {
		r.logger.Error("failed to list targets", "platform", platform, "error", err)
		r.sendText(userID, textInternalError)
		return
	}
	if len(targets) == 0 {
		r.sendText(userID, textNoTargets)
		return
	}

	dr.Platform = platform
	dr.Stage = stageTarget
	r.sendWithKeyboard(userID, textChooseTarget, targetKeyboard(targets))
}

func (r *Router) handleTargetChoice(ctx context.Context, userID int64, platform domain.Platform, value string) {
	dr := r.drafts.get(userID)
	if dr == nil || dr.Stage != stageTarget {
		r.sendText(userID, textNoDraft)
		return
	}
	targetID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}

	ch, err := r.registry.Get(ctx, platform, targetID)
	if err != nil {
		r.logger.Error("target lookup failed", "platform", platform, "target_id", targetID, "error", err)
		r.sendText(userID, textNoTargets)
		return
	}

	dr.Platform = platform
	dr.TargetID = ch.ExternalID
	dr.TargetTitle = ch.Title
	dr.Stage = stageTime
	r.sendWithKeyboard(userID, textEnterTime, timeKeyboard())
}

func (r *Router) handleTimeInput(ctx context.Context, userID int64, text string) {
	lt, err := domain.ParseLocalTime(text)
	if err != nil {
		r.sendText(userID, textInvalidTime)
		return
	}
	r.schedule(ctx, userID, lt, text)
}

func (r *Router) handleSendNow(ctx context.Context, userID int64) {
	dr := r.drafts.get(userID)
	if dr == nil || dr.Stage != stageTime {
		r.sendText(userID, textNoDraft)
		return
	}
	r.schedule(ctx, userID, domain.NowLocalTime(), "now")
}

// schedule завершает диалог: создаёт пост и подтверждает владельцу.
func (r *Router) schedule(ctx context.Context, userID int64, lt domain.LocalTime, requested string) {
	dr := r.drafts.get(userID)
	if dr == nil || dr.Stage != stageTime {
		r.sendText(userID, textNoDraft)
		return
	}

	user, err := r.access.GetUser(ctx, userID)
	if err != nil {
		r.logger.Error("owner lookup failed", "user_id", userID, "error", err)
		r.sendText(userID, textInternalError)
		return
	}

	post, deliveries := buildPost(user, dr, lt, requested, time.Now().UTC())
	if err := r.posts.Create(ctx, post, deliveries); err != nil {
		r.logger.Error("failed to create post", "user_id", userID, "error", err)
		r.sendText(userID, textInternalError)
		return
	}

	r.drafts.clear(userID)
	r.logger.Info("post scheduled",
		"post_id", post.ID,
		"owner_id", userID,
		"dispatch_at", post.DispatchAt,
	)
	r.sendText(userID, fmt.Sprintf("Scheduled for %s → %s",
		domain.FormatInstant(post.DispatchAt, user.TZOffsetMin), dr.TargetTitle))
}

// --- Post inspection ---

func (r *Router) handleScheduled(ctx context.Context, userID int64) {
	user, err := r.access.GetUser(ctx, userID)
	if err != nil || !user.IsAuthorized() {
		r.sendText(userID, textNotAuthorized)
		return
	}

	// Суперадмин видит все посты, остальные — только свои.
	owner := &userID
	if user.IsSuperadmin() {
		owner = nil
	}
	posts, err := r.posts.ListScheduled(ctx, owner)
	if err != nil {
		r.logger.Error("failed to list scheduled", "error", err)
		r.sendText(userID, textInternalError)
		return
	}
	if len(posts) == 0 {
		r.sendText(userID, textNoPosts)
		return
	}
	for _, p := range posts {
		r.sendWithKeyboard(userID,
			fmt.Sprintf("Post %s at %s", shortID(p.ID), domain.FormatInstant(p.DispatchAt, user.TZOffsetMin)),
			cancelPostKeyboard(p.ID.String()))
	}
}

func (r *Router) handleCancelPost(ctx context.Context, userID int64, value string) {
	postID, err := uuid.Parse(value)
	if err != nil {
		return
	}
	user, err := r.access.GetUser(ctx, userID)
	if err != nil || !user.IsAuthorized() {
		r.sendText(userID, textNotAuthorized)
		return
	}

	post, err := r.posts.GetByID(ctx, postID)
	if err != nil {
		r.sendText(userID, "Post not found")
		return
	}
	if post.OwnerID != userID && !user.IsSuperadmin() {
		r.sendText(userID, textNotAuthorized)
		return
	}

	if err := r.posts.Cancel(ctx, postID); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			r.sendText(userID, "Post is no longer cancellable")
			return
		}
		r.logger.Error("failed to cancel post", "post_id", postID, "error", err)
		r.sendText(userID, textInternalError)
		return
	}
	r.sendText(userID, fmt.Sprintf("Post %s cancelled", shortID(postID)))
}

func (r *Router) handleHistory(ctx context.Context, userID int64) {
	user, err := r.access.GetUser(ctx, userID)
	if err != nil || !user.IsAuthorized() {
		r.sendText(userID, textNotAuthorized)
		return
	}

	owner := &userID
	if user.IsSuperadmin() {
		owner = nil
	}
	posts, err := r.posts.ListHistory(ctx, owner, r.historyLimit)
	if err != nil {
		r.logger.Error("failed to list history", "error", err)
		r.sendText(userID, textInternalError)
		return
	}
	if len(posts) == 0 {
		r.sendText(userID, textNoHistory)
		return
	}
	var lines []string
	for _, p := range posts {
		lines = append(lines, fmt.Sprintf("%s — %s (%s)",
			domain.FormatInstant(p.DispatchAt, user.TZOffsetMin), string(p.Status), shortID(p.ID)))
	}
	r.sendText(userID, strings.Join(lines, "\n"))
}

// parseUserID разбирает аргумент команды в Telegram ID.
func parseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// shortID — первые 8 символов UUID для компактного вывода.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
