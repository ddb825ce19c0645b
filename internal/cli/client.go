package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// UserResponse — пользователь из API.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	State     string `json:"state"`
	TZOffset  string `json:"tz_offset"`
	CreatedAt string `json:"created_at"`
}

// ChannelResponse — цель публикации из API.
type ChannelResponse struct {
	Platform   string `json:"platform"`
	ExternalID int64  `json:"external_id"`
	Title      string `json:"title"`
	CanPost    bool   `json:"can_post"`
	UpdatedAt  string `json:"updated_at"`
}

// DeliveryResponse — доставка из API.
type DeliveryResponse struct {
	ID                string `json:"id"`
	Platform          string `json:"platform"`
	TargetID          int64  `json:"target_id"`
	TargetTitle       string `json:"target_title,omitempty"`
	Status            string `json:"status"`
	Method            string `json:"method,omitempty"`
	PlatformMessageID int64  `json:"platform_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
	SentAt            string `json:"sent_at,omitempty"`
}

// PostResponse — пост из API.
type PostResponse struct {
	ID          string             `json:"id"`
	OwnerID     int64              `json:"owner_id"`
	Status      string             `json:"status"`
	RequestedAt string             `json:"requested_at"`
	DispatchAt  string             `json:"dispatch_at"`
	SentAt      string             `json:"sent_at,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   string             `json:"created_at"`
	Deliveries  []DeliveryResponse `json:"deliveries,omitempty"`
}

// ListPostsOpts — параметры фильтрации постов.
type ListPostsOpts struct {
	View    string // scheduled | history
	OwnerID int64
	Limit   int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Postomat API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Users ---

// ListUsers возвращает пользователей, опционально по состоянию.
func (c *Client) ListUsers(state string) ([]UserResponse, error) {
	params := url.Values{}
	if state != "" {
		params.Set("state", state)
	}
	var users []UserResponse
	err := c.list("/api/v1/users", params, &users)
	return users, err
}

// GetUser возвращает пользователя по ID.
func (c *Client) GetUser(id string) (*UserResponse, error) {
	var user UserResponse
	err := c.get("/api/v1/users/"+id, &user)
	return &user, err
}

// ApproveUser одобряет заявку.
func (c *Client) ApproveUser(id string) (*UserResponse, error) {
	var user UserResponse
	err := c.post("/api/v1/users/"+id+"/approve", nil, &user)
	return &user, err
}

// RejectUser отклоняет заявку.
func (c *Client) RejectUser(id string) (*UserResponse, error) {
	var user UserResponse
	err := c.post("/api/v1/users/"+id+"/reject", nil, &user)
	return &user, err
}

// RemoveUser удаляет пользователя.
func (c *Client) RemoveUser(id string) error {
	return c.delete("/api/v1/users/" + id)
}

// --- Channels ---

// ListChannels возвращает реестр целей, опционально по платформе.
func (c *Client) ListChannels(platform string) ([]ChannelResponse, error) {
	params := url.Values{}
	if platform != "" {
		params.Set("platform", platform)
	}
	var channels []ChannelResponse
	err := c.list("/api/v1/channels", params, &channels)
	return channels, err
}

// RefreshVKChannels перечитывает сообщества VK.
func (c *Client) RefreshVKChannels() ([]ChannelResponse, error) {
	resp, err := c.do(http.MethodPost, "/api/v1/channels/vk/refresh", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return nil, err
	}
	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	var channels []ChannelResponse
	return channels, json.Unmarshal(lr.Data, &channels)
}

// --- Posts ---

// ListPosts возвращает список постов с фильтрацией.
func (c *Client) ListPosts(opts ListPostsOpts) ([]PostResponse, error) {
	params := url.Values{}
	if opts.View != "" {
		params.Set("view", opts.View)
	}
	if opts.OwnerID > 0 {
		params.Set("owner_id", fmt.Sprintf("%d", opts.OwnerID))
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var posts []PostResponse
	err := c.list("/api/v1/posts", params, &posts)
	return posts, err
}

// GetPost возвращает пост с доставками.
func (c *Client) GetPost(id string) (*PostResponse, error) {
	var post PostResponse
	err := c.get("/api/v1/posts/"+id, &post)
	return &post, err
}

// CancelPost отменяет запланированный пост.
func (c *Client) CancelPost(id string) (*PostResponse, error) {
	var post PostResponse
	err := c.post("/api/v1/posts/"+id+"/cancel", nil, &post)
	return &post, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
