package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shaiso/Postomat/internal/domain"
)

const (
	vkAPIVersion = "5.199"
	vkBaseURL    = "https://api.vk.com/method"
)

// Токен пользователя с недостаточными правами получает от groups.get
// код 27, после чего клиент откатывается на groups.getById.
const vkErrGroupAuth = 27

const vkErrTooMany = 6

// VK — клиент VK API поверх обычного HTTP. Методы вызываются
// form-encoded POST-запросами на api.vk.com/method/<имя>.
type VK struct {
	token   string
	groupID int64
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewVK создаёт клиента. groupID — запасная группа для groups.getById,
// когда токен не даёт перечислить администрируемые сообщества.
func NewVK(token string, groupID int64, logger *slog.Logger) *VK {
	if logger == nil {
		logger = slog.Default()
	}
	return &VK{
		token:   token,
		groupID: groupID,
		http:    &http.Client{},
		baseURL: vkBaseURL,
		logger:  logger,
	}
}

type vkError struct {
	Code int    `json:"error_code"`
	Msg  string `json:"error_msg"`
}

func (e *vkError) Error() string {
	return fmt.Sprintf("vk: [%d] %s", e.Code, e.Msg)
}

type vkGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// call выполняет метод VK API и декодирует поле response в out.
func (c *VK) call(ctx context.Context, method string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.token)
	params.Set("v", vkAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("build vk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: vk %s: %v", ErrTransient, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: vk %s: status %d", ErrTransient, method, resp.StatusCode)
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *vkError        `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: vk %s: decode: %v", ErrTransient, method, err)
	}
	if envelope.Error != nil {
		return classifyVKError(envelope.Error)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Response, out); err != nil {
			return fmt.Errorf("vk %s: decode response: %w", method, err)
		}
	}
	return nil
}

// classifyVKError сводит код ошибки VK к таксономии доставки.
func classifyVKError(e *vkError) error {
	switch e.Code {
	case vkErrTooMany:
		return fmt.Errorf("%w: %v", ErrRateLimited, e)
	case 10, 14: // internal error, captcha
		return fmt.Errorf("%w: %v", ErrTransient, e)
	case 15, 203, 214: // access denied, group access, posting denied
		return fmt.Errorf("%w: %v", ErrNotMember, e)
	}
	return e
}

// Groups возвращает сообщества, где токен может публиковать. Сначала
// пробует groups.get (администрируемые), при коде 27 откатывается на
// groups.getById с настроенной группой.
func (c *VK) Groups(ctx context.Context) ([]domain.Channel, error) {
	params := url.Values{}
	params.Set("filter", "admin")
	params.Set("extended", "1")

	var listed struct {
		Items []vkGroup `json:"items"`
	}
	err := c.call(ctx, "groups.get", params, &listed)
	if err == nil {
		return vkGroupsToChannels(listed.Items), nil
	}

	var apiErr *vkError
	if !errors.As(err, &apiErr) || apiErr.Code != vkErrGroupAuth || c.groupID == 0 {
		return nil, err
	}

	c.logger.Debug("groups.get unavailable for token, falling back to groups.getById",
		slog.Int64("group_id", c.groupID))

	byID := url.Values{}
	byID.Set("group_id", strconv.FormatInt(c.groupID, 10))
	var wrapped struct {
		Groups []vkGroup `json:"groups"`
	}
	if err := c.call(ctx, "groups.getById", byID, &wrapped); err != nil {
		return nil, err
	}
	return vkGroupsToChannels(wrapped.Groups), nil
}

func vkGroupsToChannels(groups []vkGroup) []domain.Channel {
	channels := make([]domain.Channel, 0, len(groups))
	for _, g := range groups {
		channels = append(channels, domain.Channel{
			Platform:   domain.PlatformVK,
			ExternalID: g.ID,
			Title:      g.Name,
			CanPost:    true,
		})
	}
	return channels
}

// PostWall публикует запись на стену сообщества от его имени.
// attachment — строка вида "photo<owner>_<id>", может быть пустой.
func (c *VK) PostWall(ctx context.Context, groupID int64, message, attachment string) (int64, error) {
	params := url.Values{}
	params.Set("owner_id", strconv.FormatInt(-groupID, 10))
	params.Set("from_group", "1")
	params.Set("message", message)
	if attachment != "" {
		params.Set("attachments", attachment)
	}

	var res struct {
		PostID int64 `json:"post_id"`
	}
	if err := c.call(ctx, "wall.post", params, &res); err != nil {
		return 0, err
	}
	return res.PostID, nil
}

// UploadWallPhoto загружает фотографию для стены сообщества и возвращает
// готовую строку вложения. Цепочка: getWallUploadServer → POST файла на
// upload_url → saveWallPhoto.
func (c *VK) UploadWallPhoto(ctx context.Context, groupID int64, photo []byte) (string, error) {
	srvParams := url.Values{}
	srvParams.Set("group_id", strconv.FormatInt(groupID, 10))
	var srv struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, "photos.getWallUploadServer", srvParams, &srv); err != nil {
		return "", err
	}

	uploaded, err := c.uploadPhoto(ctx, srv.UploadURL, photo)
	if err != nil {
		return "", err
	}

	saveParams := url.Values{}
	saveParams.Set("group_id", strconv.FormatInt(groupID, 10))
	saveParams.Set("photo", uploaded.Photo)
	saveParams.Set("server", strconv.Itoa(uploaded.Server))
	saveParams.Set("hash", uploaded.Hash)
	var saved []struct {
		ID      int64 `json:"id"`
		OwnerID int64 `json:"owner_id"`
	}
	if err := c.call(ctx, "photos.saveWallPhoto", saveParams, &saved); err != nil {
		return "", err
	}
	if len(saved) == 0 {
		return "", fmt.Errorf("vk photos.saveWallPhoto: empty result")
	}
	return fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID), nil
}

type vkUploadResult struct {
	Photo  string `json:"photo"`
	Server int    `json:"server"`
	Hash   string `json:"hash"`
}

func (c *VK) uploadPhoto(ctx context.Context, uploadURL string, photo []byte) (vkUploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		return vkUploadResult{}, fmt.Errorf("build upload body: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return vkUploadResult{}, fmt.Errorf("build upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return vkUploadResult{}, fmt.Errorf("build upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return vkUploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return vkUploadResult{}, fmt.Errorf("%w: vk upload: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return vkUploadResult{}, fmt.Errorf("%w: vk upload: %v", ErrTransient, err)
	}
	var res vkUploadResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return vkUploadResult{}, fmt.Errorf("vk upload: decode: %w", err)
	}
	if res.Photo == "" || res.Photo == "[]" {
		return vkUploadResult{}, fmt.Errorf("vk upload: server rejected photo")
	}
	return res, nil
}
