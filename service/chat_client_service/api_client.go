package chat_client_service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"easychat-service/controller/auth"
	"easychat-service/models"
	"easychat-service/tool"

	"resty.dev/v3"
)

// APIConfig REST 客户端配置
type APIConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	UserID  string        `yaml:"user_id" json:"user_id"`         // header 鉴权模式
	PrivKey string        `yaml:"private_key" json:"private_key"` // 非空时使用签名鉴权
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// APIError 服务端返回的错误响应
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsBlocked 发送被屏蔽关系拒绝
func IsBlocked(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}

type envelope struct {
	Code           int             `json:"code"`
	Message        string          `json:"message"`
	ProcessingTime int64           `json:"processingTime"`
	Data           json.RawMessage `json:"data"`
}

// APIClient 聊天 REST 接口客户端
type APIClient struct {
	config *APIConfig
	client *resty.Client
	pubKey string
}

// NewAPIClient 创建客户端
func NewAPIClient(config *APIConfig) (*APIClient, error) {
	if config == nil || config.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	c := &APIClient{
		config: config,
		client: resty.New().
			SetBaseURL(config.BaseURL).
			SetTimeout(config.Timeout).
			SetHeader("Content-Type", "application/json"),
	}
	if config.PrivKey != "" {
		pub, err := tool.PublicKeyFromPrivate(config.PrivKey)
		if err != nil {
			return nil, err
		}
		c.pubKey = pub
	} else if config.UserID == "" {
		return nil, fmt.Errorf("user id or private key is required")
	}
	return c, nil
}

// Close 释放连接
func (c *APIClient) Close() error {
	return c.client.Close()
}

// Sidebar 侧边栏用户
func (c *APIClient) Sidebar(ctx context.Context) ([]*models.SidebarUser, error) {
	var out []*models.SidebarUser
	err := c.do(ctx, http.MethodGet, "/api/messages/users", nil, nil, &out)
	return out, err
}

// History 会话历史，按时间正序
func (c *APIClient) History(ctx context.Context, peerID string, limit, skip int) ([]*models.Message, error) {
	var out []*models.Message
	query := map[string]string{
		"limit": strconv.Itoa(limit),
		"skip":  strconv.Itoa(skip),
	}
	err := c.do(ctx, http.MethodGet, "/api/messages/"+peerID, query, nil, &out)
	return out, err
}

// Send 发送消息
func (c *APIClient) Send(ctx context.Context, peerID, text, image string) (*models.Message, error) {
	var out models.Message
	body := map[string]string{"text": text, "image": image}
	if err := c.do(ctx, http.MethodPost, "/api/messages/send/"+peerID, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register 注册当前身份
func (c *APIClient) Register(ctx context.Context, fullName, preferredLanguage string) (*models.User, error) {
	var out models.User
	body := map[string]string{"fullName": fullName, "preferredLanguage": preferredLanguage}
	if err := c.do(ctx, http.MethodPost, "/api/users/register", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me 当前用户
func (c *APIClient) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile 更新资料
func (c *APIClient) UpdateProfile(ctx context.Context, update *models.ProfileUpdate) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Block 屏蔽用户
func (c *APIClient) Block(ctx context.Context, peerID string) error {
	return c.do(ctx, http.MethodPost, "/api/blocks/"+peerID, nil, nil, nil)
}

// Unblock 取消屏蔽
func (c *APIClient) Unblock(ctx context.Context, peerID string) error {
	return c.do(ctx, http.MethodDelete, "/api/blocks/"+peerID, nil, nil, nil)
}

// Blocks 屏蔽列表
func (c *APIClient) Blocks(ctx context.Context) ([]models.BlockRelation, error) {
	var out []models.BlockRelation
	err := c.do(ctx, http.MethodGet, "/api/blocks", nil, nil, &out)
	return out, err
}

func (c *APIClient) do(ctx context.Context, method, path string, query map[string]string, body, out interface{}) error {
	req := c.client.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	if err := c.authenticate(req, method, path); err != nil {
		return err
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	// 响应经 JSONP 输出，Content-Type 不是 application/json，这里手动解析
	var env envelope
	if raw := res.Bytes(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && !res.IsError() {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	if res.IsError() {
		msg := env.Message
		if msg == "" {
			msg = res.String()
		}
		return &APIError{Status: res.StatusCode(), Code: env.Code, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *APIClient) authenticate(req *resty.Request, method, path string) error {
	if c.config.PrivKey == "" {
		req.SetHeader(auth.HeaderUserID, c.config.UserID)
		return nil
	}
	timestamp := strconv.FormatInt(tool.MakeTimestamp(), 10)
	sig, err := tool.SignMessage(auth.SignPayload(method, path, timestamp), c.config.PrivKey)
	if err != nil {
		return err
	}
	req.SetHeader(auth.HeaderPublicKey, c.pubKey)
	req.SetHeader(auth.HeaderSignature, sig)
	req.SetHeader(auth.HeaderTimestamp, timestamp)
	return nil
}
