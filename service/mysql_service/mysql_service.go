package mysql_service

import (
	"context"
	"errors"
	"fmt"

	"easychat-service/models"
	"easychat-service/service/store_service"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MysqlService gorm 实现的文档存储
type MysqlService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

var _ store_service.Store = (*MysqlService)(nil)

// NewMysqlService 创建存储并迁移表结构
func NewMysqlService(db *gorm.DB, logger *zap.SugaredLogger) (*MysqlService, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm DB 未初始化")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := db.AutoMigrate(&userRow{}, &messageRow{}, &blockRow{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}
	logger.Infof("✅ MySQL 存储已就绪")
	return &MysqlService{db: db, logger: logger}, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store_service.ErrNotFound
	}
	return err
}

// CreateUser 创建用户
func (s *MysqlService) CreateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(userToRow(user))
	if res.Error != nil {
		return fmt.Errorf("保存用户失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store_service.ErrAlreadyExists
	}
	return nil
}

// GetUser 获取用户
func (s *MysqlService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toModel(), nil
}

// UpdateUser 更新用户
func (s *MysqlService) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", user.ID).Updates(map[string]any{
		"full_name":          user.FullName,
		"profile_pic":        user.ProfilePic,
		"preferred_language": user.PreferredLanguage,
		"updated_at":         user.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("更新用户失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetUser(ctx, user.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListUsers 用户列表
func (s *MysqlService) ListUsers(ctx context.Context) ([]*models.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	out := make([]*models.User, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

// CreateMessage 保存消息
func (s *MysqlService) CreateMessage(ctx context.Context, msg *models.Message) error {
	lo, hi := store_service.ConversationKey(msg.SenderID, msg.ReceiverID)
	row := &messageRow{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		ConvLo:     lo,
		ConvHi:     hi,
		Text:       msg.Text,
		Image:      msg.Image,
		CreatedAt:  msg.CreatedAt,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return fmt.Errorf("保存消息失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store_service.ErrAlreadyExists
	}
	return nil
}

// GetMessage 获取消息
func (s *MysqlService) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	var row messageRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", messageID).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toModel(), nil
}

// ListConversation 倒序分页后翻转为正序
func (s *MysqlService) ListConversation(ctx context.Context, userA, userB string, limit, skip int) ([]*models.Message, error) {
	if limit <= 0 {
		return []*models.Message{}, nil
	}
	if skip < 0 {
		skip = 0
	}
	lo, hi := store_service.ConversationKey(userA, userB)
	var rows []messageRow
	err := s.db.WithContext(ctx).
		Where("conv_lo = ? AND conv_hi = ?", lo, hi).
		Order("created_at DESC, id DESC").
		Offset(skip).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询会话失败: %w", err)
	}
	out := make([]*models.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

// LastMessage 最后一条消息
func (s *MysqlService) LastMessage(ctx context.Context, userA, userB string) (*models.Message, error) {
	msgs, err := s.ListConversation(ctx, userA, userB, 1, 0)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[0], nil
}

// SetTranslation 附加翻译
func (s *MysqlService) SetTranslation(ctx context.Context, messageID string, translation *models.Translation) error {
	res := s.db.WithContext(ctx).Model(&messageRow{}).Where("id = ?", messageID).Updates(map[string]any{
		"detected_language": translation.DetectedLanguage,
		"translated_text":   translation.TranslatedText,
		"translated_to":     translation.TranslatedTo,
	})
	if res.Error != nil {
		return fmt.Errorf("更新消息翻译失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetMessage(ctx, messageID); err != nil {
			return err
		}
	}
	return nil
}

// AddBlock 添加屏蔽
func (s *MysqlService) AddBlock(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == "" || blockedID == "" {
		return fmt.Errorf("BlockerID 和 BlockedID 不能为空")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&blockRow{BlockerID: blockerID, BlockedID: blockedID}).Error
	if err != nil {
		return fmt.Errorf("保存屏蔽关系失败: %w", err)
	}
	return nil
}

// RemoveBlock 移除屏蔽
func (s *MysqlService) RemoveBlock(ctx context.Context, blockerID, blockedID string) error {
	err := s.db.WithContext(ctx).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&blockRow{}).Error
	if err != nil {
		return fmt.Errorf("删除屏蔽关系失败: %w", err)
	}
	return nil
}

// IsBlocked 是否屏蔽
func (s *MysqlService) IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&blockRow{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询屏蔽关系失败: %w", err)
	}
	return count > 0, nil
}

// ListBlocks 屏蔽列表
func (s *MysqlService) ListBlocks(ctx context.Context, blockerID string) ([]models.BlockRelation, error) {
	var rows []blockRow
	if err := s.db.WithContext(ctx).Where("blocker_id = ?", blockerID).Order("blocked_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询屏蔽列表失败: %w", err)
	}
	out := make([]models.BlockRelation, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.BlockRelation{BlockerID: r.BlockerID, BlockedID: r.BlockedID, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

// Close 关闭连接池
func (s *MysqlService) Close() error {
	raw, err := s.db.DB()
	if err != nil {
		return err
	}
	return raw.Close()
}
