package store_service

import (
	"context"
	"errors"

	"easychat-service/models"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists 记录已存在
	ErrAlreadyExists = errors.New("record already exists")
)

// UserStore 用户存储接口
type UserStore interface {
	// CreateUser 创建用户，ID 已存在时返回 ErrAlreadyExists
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser 根据ID获取用户，不存在时返回 ErrNotFound
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser 覆盖保存用户
	UpdateUser(ctx context.Context, user *models.User) error

	// ListUsers 获取所有用户
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// MessageStore 消息存储接口
type MessageStore interface {
	// CreateMessage 保存新消息
	CreateMessage(ctx context.Context, msg *models.Message) error

	// GetMessage 根据ID获取消息
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)

	// ListConversation 获取两人之间最新窗口内的消息：
	// 从最新一条往回跳过 skip 条，取 limit 条，结果按时间正序返回
	ListConversation(ctx context.Context, userA, userB string, limit, skip int) ([]*models.Message, error)

	// LastMessage 获取两人之间最后一条消息，没有消息时返回 nil, nil
	LastMessage(ctx context.Context, userA, userB string) (*models.Message, error)

	// SetTranslation 为消息附加翻译信封
	SetTranslation(ctx context.Context, messageID string, translation *models.Translation) error
}

// BlockStore 屏蔽关系存储接口
type BlockStore interface {
	// AddBlock 添加屏蔽关系（幂等）
	AddBlock(ctx context.Context, blockerID, blockedID string) error

	// RemoveBlock 移除屏蔽关系（幂等）
	RemoveBlock(ctx context.Context, blockerID, blockedID string) error

	// IsBlocked blockerID 是否屏蔽了 blockedID
	IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error)

	// ListBlocks 获取用户的屏蔽列表
	ListBlocks(ctx context.Context, blockerID string) ([]models.BlockRelation, error)
}

// Store 文档存储
type Store interface {
	UserStore
	MessageStore
	BlockStore

	// Close 释放底层资源
	Close() error
}
