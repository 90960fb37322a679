package message_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"easychat-service/models"
	"easychat-service/service/media_service"
	"easychat-service/service/store_service"
	"easychat-service/service/translation_service"
	"easychat-service/tool"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HistoryConfig 历史分页限制
type HistoryConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// Service 聊天业务服务：消息发送、历史、侧边栏、屏蔽和用户资料
type Service struct {
	*Pipeline
	store    store_service.Store
	uploader media_service.Uploader
	history  HistoryConfig
	logger   *zap.SugaredLogger
}

// NewService 创建聊天业务服务
func NewService(pipeline *Pipeline, history HistoryConfig) *Service {
	if history.DefaultLimit <= 0 {
		history.DefaultLimit = 20
	}
	if history.MaxLimit <= 0 {
		history.MaxLimit = 100
	}
	if history.DefaultLimit > history.MaxLimit {
		history.DefaultLimit = history.MaxLimit
	}
	return &Service{
		Pipeline: pipeline,
		store:    pipeline.store,
		uploader: pipeline.uploader,
		history:  history,
		logger:   pipeline.logger,
	}
}

// History 最新窗口分页：从最新一条往回跳过 skip 条，取 limit 条，按时间正序返回
func (s *Service) History(ctx context.Context, me, peer string, limit, skip int) ([]*models.Message, error) {
	if me == "" || peer == "" {
		return nil, fmt.Errorf("%w: peer is required", ErrValidation)
	}
	if limit <= 0 {
		limit = s.history.DefaultLimit
	}
	if limit > s.history.MaxLimit {
		limit = s.history.MaxLimit
	}
	if skip < 0 {
		skip = 0
	}
	msgs, err := s.store.ListConversation(ctx, me, peer, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}

// Sidebar 除自己外的所有用户，附带屏蔽状态和最后一条消息预览
func (s *Service) Sidebar(ctx context.Context, me string) ([]*models.SidebarUser, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	blocks, err := s.store.ListBlocks(ctx, me)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	blocked := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		blocked[b.BlockedID] = struct{}{}
	}

	others := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != me {
			others = append(others, u)
		}
	}

	out := make([]*models.SidebarUser, len(others))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, u := range others {
		g.Go(func() error {
			last, err := s.store.LastMessage(gctx, me, u.ID)
			if err != nil {
				return err
			}
			entry := &models.SidebarUser{User: *u}
			_, entry.IsBlocked = blocked[u.ID]
			if last != nil {
				entry.LastMessage = &models.LastMessagePreview{Text: last.Text, CreatedAt: last.CreatedAt}
			}
			out[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return out, nil
}

// Block 屏蔽 peer
func (s *Service) Block(ctx context.Context, me, peer string) error {
	if err := validatePeer(me, peer); err != nil {
		return err
	}
	if err := s.store.AddBlock(ctx, me, peer); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Unblock 取消屏蔽
func (s *Service) Unblock(ctx context.Context, me, peer string) error {
	if err := validatePeer(me, peer); err != nil {
		return err
	}
	if err := s.store.RemoveBlock(ctx, me, peer); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Blocks 我的屏蔽列表
func (s *Service) Blocks(ctx context.Context, me string) ([]models.BlockRelation, error) {
	list, err := s.store.ListBlocks(ctx, me)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return list, nil
}

func validatePeer(me, peer string) error {
	if peer == "" {
		return fmt.Errorf("%w: peer is required", ErrValidation)
	}
	if peer == me {
		return fmt.Errorf("%w: cannot block yourself", ErrValidation)
	}
	return nil
}

// RegisterRequest 注册请求，身份由鉴权中间件确定
type RegisterRequest struct {
	UserID            string
	FullName          string
	ProfilePic        string // 可选，data url
	PreferredLanguage string // 可选，默认 en
}

// Register 创建当前身份的用户记录
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	fullName := trimmedOrEmpty(req.FullName)
	if req.UserID == "" || fullName == "" {
		return nil, fmt.Errorf("%w: fullName is required", ErrValidation)
	}
	lang := models.DefaultPreferredLanguage
	if req.PreferredLanguage != "" {
		normalized, err := translation_service.NormalizeLanguage(req.PreferredLanguage)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid preferredLanguage: %v", ErrValidation, err)
		}
		lang = normalized
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:                req.UserID,
		FullName:          fullName,
		PreferredLanguage: lang,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.ProfilePic != "" {
		url, err := s.uploadImage(ctx, req.ProfilePic)
		if err != nil {
			return nil, err
		}
		user.ProfilePic = url
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store_service.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: user %s", ErrConflict, req.UserID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.logger.Infof("✅ 新用户注册: %s (%s)", user.ID, user.FullName)
	return user, nil
}

// GetUser 获取用户
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store_service.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return user, nil
}

// UpdateProfile 显式部分更新：先校验全部字段，再上传头像，最后合并保存
func (s *Service) UpdateProfile(ctx context.Context, me string, update *models.ProfileUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return nil, fmt.Errorf("%w: no valid fields to update", ErrValidation)
	}
	var lang string
	if update.PreferredLanguage != nil {
		normalized, err := translation_service.NormalizeLanguage(*update.PreferredLanguage)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid preferredLanguage: %v", ErrValidation, err)
		}
		lang = normalized
	}
	if update.ProfileImage != nil && *update.ProfileImage == "" {
		return nil, fmt.Errorf("%w: profileImage is empty", ErrValidation)
	}

	user, err := s.GetUser(ctx, me)
	if err != nil {
		return nil, err
	}

	if update.ProfileImage != nil {
		url, err := s.uploadImage(ctx, *update.ProfileImage)
		if err != nil {
			return nil, err
		}
		user.ProfilePic = url
	}
	if lang != "" {
		user.PreferredLanguage = lang
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store_service.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", me, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.logger.Infof("✅ 用户 %s 资料已更新", me)
	return user, nil
}

func (s *Service) uploadImage(ctx context.Context, dataURL string) (string, error) {
	mime, data, err := tool.ParseDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	url, err := s.uploader.Upload(ctx, data, mime)
	if err != nil {
		s.logger.Errorf("❌ 图片上传失败: %v", err)
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return url, nil
}
