package pebble_service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"easychat-service/models"
	"easychat-service/service/store_service"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

const (
	CollectionUsers    = "users"    // 用户集合 key: userId
	CollectionMessages = "messages" // 消息集合 key: m\x00<id>，会话索引 key: c\x00<lo>\x00<hi>\x00<unixnano>\x00<id>
	CollectionBlocks   = "blocks"   // 屏蔽集合 key: blockerId, value: UserBlocks
)

const sep = "\x00"

// PebbleService Pebble 文档存储
type PebbleService struct {
	collectionMgr *CollectionManager
	logger        *zap.SugaredLogger
	// 读-改-写 操作串行化，避免并发更新丢失
	writeMu sync.Mutex
	mu      sync.RWMutex
	path    string
}

// Config Pebble 配置
type Config struct {
	DBPath    string `yaml:"db_path" json:"db_path"`       // 数据库文件路径
	CacheSize int64  `yaml:"cache_size" json:"cache_size"` // 每个集合的块缓存大小
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		DBPath:    "./data/chat_pebble",
		CacheSize: 16 << 20,
	}
}

// CollectionManager 集合管理器，每个集合一个独立的 pebble 实例
type CollectionManager struct {
	mu          sync.RWMutex
	collections map[string]*pebble.DB
	basePath    string
	cacheSize   int64
	logger      *zap.SugaredLogger
}

// NewCollectionManager 创建集合管理器
func NewCollectionManager(basePath string, cacheSize int64, logger *zap.SugaredLogger) *CollectionManager {
	if cacheSize <= 0 {
		cacheSize = 16 << 20
	}
	return &CollectionManager{
		collections: make(map[string]*pebble.DB),
		basePath:    basePath,
		cacheSize:   cacheSize,
		logger:      logger,
	}
}

// GetCollection 获取指定集合的数据库实例，不存在则打开
func (cm *CollectionManager) GetCollection(collectionName string) (*pebble.DB, error) {
	cm.mu.RLock()
	if db, exists := cm.collections[collectionName]; exists {
		cm.mu.RUnlock()
		return db, nil
	}
	cm.mu.RUnlock()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	// 双重检查，防止并发打开
	if db, exists := cm.collections[collectionName]; exists {
		return db, nil
	}

	dbPath := filepath.Join(cm.basePath, collectionName)
	cache := pebble.NewCache(cm.cacheSize)
	defer cache.Unref()
	opts := &pebble.Options{
		Cache:                       cache,
		FormatMajorVersion:          pebble.FormatNewest,
		L0CompactionThreshold:       2,
		L0StopWritesThreshold:       1000,
		LBaseMaxBytes:               16 << 20,
		MaxOpenFiles:                1024,
		MemTableSize:                8 << 20,
		MemTableStopWritesThreshold: 4,
	}

	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("打开集合 %s 的数据库失败: %w", collectionName, err)
	}

	cm.collections[collectionName] = db
	cm.logger.Infof("✅ 集合 %s 数据库已打开: %s", collectionName, dbPath)
	return db, nil
}

// CloseAll 关闭所有集合
func (cm *CollectionManager) CloseAll() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var errs []string
	for name, db := range cm.collections {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("关闭集合 %s 失败: %v", name, err))
		} else {
			cm.logger.Infof("✅ 集合 %s 数据库已关闭", name)
		}
	}
	cm.collections = make(map[string]*pebble.DB)

	if len(errs) > 0 {
		return fmt.Errorf("关闭数据库时发生错误: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NewPebbleService 创建 Pebble 存储
func NewPebbleService(config *Config, logger *zap.SugaredLogger) *PebbleService {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PebbleService{
		path:          config.DBPath,
		logger:        logger,
		collectionMgr: NewCollectionManager(config.DBPath, config.CacheSize, logger),
	}
}

var _ store_service.Store = (*PebbleService)(nil)

// Initialize 打开全部集合
func (ps *PebbleService) Initialize() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.logger.Infof("🚀 正在初始化 Pebble 数据库: %s", ps.path)
	for _, name := range []string{CollectionUsers, CollectionMessages, CollectionBlocks} {
		if _, err := ps.collectionMgr.GetCollection(name); err != nil {
			return err
		}
	}
	ps.logger.Infof("✅ Pebble 数据库初始化成功: %s", ps.path)
	return nil
}

// Close 关闭数据库
func (ps *PebbleService) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.logger.Infof("🛑 正在关闭 Pebble 数据库")
	if err := ps.collectionMgr.CloseAll(); err != nil {
		ps.logger.Errorf("❌ 关闭集合数据库失败: %v", err)
		return fmt.Errorf("关闭集合数据库失败: %w", err)
	}
	return nil
}

func (ps *PebbleService) getCollectionDB(collectionName string) (*pebble.DB, error) {
	return ps.collectionMgr.GetCollection(collectionName)
}

func messageKey(id string) []byte {
	return []byte("m" + sep + id)
}

func conversationPrefix(userA, userB string) []byte {
	lo, hi := store_service.ConversationKey(userA, userB)
	return []byte("c" + sep + lo + sep + hi + sep)
}

func conversationKey(msg *models.Message) []byte {
	p := conversationPrefix(msg.SenderID, msg.ReceiverID)
	return append(p, []byte(fmt.Sprintf("%020d%s%s", msg.CreatedAt.UnixNano(), sep, msg.ID))...)
}

// prefixUpperBound 前缀的排他上界
func prefixUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func getJSON(db *pebble.DB, key []byte, v any) error {
	value, closer, err := db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return store_service.ErrNotFound
		}
		return err
	}
	defer closer.Close()
	return json.Unmarshal(value, v)
}

func setJSON(db *pebble.DB, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化失败: %w", err)
	}
	return db.Set(key, data, pebble.Sync)
}

// ===== 用户 =====

// CreateUser 创建用户
func (ps *PebbleService) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("用户ID不能为空")
	}
	db, err := ps.getCollectionDB(CollectionUsers)
	if err != nil {
		return err
	}

	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()

	var existing models.User
	if err := getJSON(db, []byte(user.ID), &existing); err == nil {
		return store_service.ErrAlreadyExists
	} else if !errors.Is(err, store_service.ErrNotFound) {
		return fmt.Errorf("读取用户失败: %w", err)
	}
	if err := setJSON(db, []byte(user.ID), user); err != nil {
		return fmt.Errorf("保存用户失败: %w", err)
	}
	ps.logger.Debugf("✅ 已创建用户: %s", user.ID)
	return nil
}

// GetUser 获取用户
func (ps *PebbleService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	db, err := ps.getCollectionDB(CollectionUsers)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := getJSON(db, []byte(userID), &user); err != nil {
		if errors.Is(err, store_service.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}
	return &user, nil
}

// UpdateUser 更新用户
func (ps *PebbleService) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("用户ID不能为空")
	}
	db, err := ps.getCollectionDB(CollectionUsers)
	if err != nil {
		return err
	}

	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()

	var existing models.User
	if err := getJSON(db, []byte(user.ID), &existing); err != nil {
		return err
	}
	if err := setJSON(db, []byte(user.ID), user); err != nil {
		return fmt.Errorf("更新用户失败: %w", err)
	}
	return nil
}

// ListUsers 遍历用户集合
func (ps *PebbleService) ListUsers(ctx context.Context) ([]*models.User, error) {
	db, err := ps.getCollectionDB(CollectionUsers)
	if err != nil {
		return nil, err
	}
	iter, err := db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("创建迭代器失败: %w", err)
	}
	defer iter.Close()

	users := make([]*models.User, 0)
	for iter.First(); iter.Valid(); iter.Next() {
		var user models.User
		if err := json.Unmarshal(iter.Value(), &user); err != nil {
			ps.logger.Warnf("⚠️ 跳过解析失败的用户记录: %s, 错误: %v", string(iter.Key()), err)
			continue
		}
		users = append(users, &user)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("迭代器错误: %w", err)
	}
	return users, nil
}

// ===== 消息 =====

// CreateMessage 写入消息和会话索引
func (ps *PebbleService) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("消息ID不能为空")
	}
	db, err := ps.getCollectionDB(CollectionMessages)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()

	if _, closer, err := db.Get(messageKey(msg.ID)); err == nil {
		closer.Close()
		return store_service.ErrAlreadyExists
	} else if !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("读取消息失败: %w", err)
	}

	batch := db.NewBatch()
	defer batch.Close()
	if err := batch.Set(messageKey(msg.ID), data, nil); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	if err := batch.Set(conversationKey(msg), []byte(msg.ID), nil); err != nil {
		return fmt.Errorf("写入会话索引失败: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("提交消息失败: %w", err)
	}
	return nil
}

// GetMessage 获取消息
func (ps *PebbleService) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	db, err := ps.getCollectionDB(CollectionMessages)
	if err != nil {
		return nil, err
	}
	var msg models.Message
	if err := getJSON(db, messageKey(messageID), &msg); err != nil {
		if errors.Is(err, store_service.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("获取消息失败: %w", err)
	}
	return &msg, nil
}

// ListConversation 从会话索引末尾反向扫描出最新窗口
func (ps *PebbleService) ListConversation(ctx context.Context, userA, userB string, limit, skip int) ([]*models.Message, error) {
	if limit <= 0 {
		return []*models.Message{}, nil
	}
	if skip < 0 {
		skip = 0
	}
	db, err := ps.getCollectionDB(CollectionMessages)
	if err != nil {
		return nil, err
	}
	prefix := conversationPrefix(userA, userB)
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("创建迭代器失败: %w", err)
	}
	defer iter.Close()

	var ids []string
	skipped := 0
	for iter.Last(); iter.Valid() && len(ids) < limit; iter.Prev() {
		if skipped < skip {
			skipped++
			continue
		}
		ids = append(ids, string(iter.Value()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("迭代器错误: %w", err)
	}

	out := make([]*models.Message, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		msg, err := ps.GetMessage(ctx, ids[i])
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// LastMessage 最后一条消息
func (ps *PebbleService) LastMessage(ctx context.Context, userA, userB string) (*models.Message, error) {
	msgs, err := ps.ListConversation(ctx, userA, userB, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}

// SetTranslation 附加翻译信封
func (ps *PebbleService) SetTranslation(ctx context.Context, messageID string, translation *models.Translation) error {
	db, err := ps.getCollectionDB(CollectionMessages)
	if err != nil {
		return err
	}

	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()

	var msg models.Message
	if err := getJSON(db, messageKey(messageID), &msg); err != nil {
		return err
	}
	t := *translation
	msg.Translation = &t
	if err := setJSON(db, messageKey(messageID), &msg); err != nil {
		return fmt.Errorf("更新消息翻译失败: %w", err)
	}
	return nil
}

// ===== 屏蔽 =====

func (ps *PebbleService) getUserBlocksFromDB(db *pebble.DB, userID string) (*models.UserBlocks, error) {
	var blocks models.UserBlocks
	if err := getJSON(db, []byte(userID), &blocks); err != nil {
		if errors.Is(err, store_service.ErrNotFound) {
			return &models.UserBlocks{UserID: userID, Blocks: []models.BlockRelation{}}, nil
		}
		return nil, fmt.Errorf("获取用户屏蔽列表失败: %w", err)
	}
	return &blocks, nil
}

// AddBlock 添加屏蔽（已存在时跳过）
func (ps *PebbleService) AddBlock(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == "" || blockedID == "" {
		return fmt.Errorf("BlockerID 和 BlockedID 不能为空")
	}
	db, err := ps.getCollectionDB(CollectionBlocks)
	if err != nil {
		return err
	}

	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()

	blocks, err := ps.getUserBlocksFromDB(db, blockerID)
	if err != nil {
		return err
	}
	for _, b := range blocks.Blocks {
		if b.BlockedID == blockedID {
			return nil
		}
	}
	blocks.Blocks = append(blocks.Blocks, models.BlockRelation{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now(),
	})
	sort.Slice(blocks.Blocks, func(i, j int) bool { return blocks.Blocks[i].BlockedID < blocks.Blocks[j].BlockedID })
	blocks.UpdatedAt = time.Now().Unix()
	if err := setJSON(db, []byte(blockerID), blocks); err != nil {
		return fmt.Errorf("保存屏蔽列表失败: %w", err)
	}
	ps.logger.Infof("🚫 %s 已屏蔽 %s", blockerID, blockedID)
	return nil
}

// RemoveBlock 移除屏蔽
func (ps *PebbleService) RemoveBlock(ctx context.Context, blockerID, blockedID string) error {
	db, err := ps.getCollectionDB(CollectionBlocks)
	if err != nil {
		return err
	}

	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()

	blocks, err := ps.getUserBlocksFromDB(db, blockerID)
	if err != nil {
		return err
	}
	kept := blocks.Blocks[:0]
	for _, b := range blocks.Blocks {
		if b.BlockedID != blockedID {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(blocks.Blocks) {
		return nil
	}
	blocks.Blocks = kept
	blocks.UpdatedAt = time.Now().Unix()
	if err := setJSON(db, []byte(blockerID), blocks); err != nil {
		return fmt.Errorf("保存屏蔽列表失败: %w", err)
	}
	ps.logger.Infof("✅ %s 已取消屏蔽 %s", blockerID, blockedID)
	return nil
}

// IsBlocked 是否屏蔽
func (ps *PebbleService) IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	list, err := ps.ListBlocks(ctx, blockerID)
	if err != nil {
		return false, err
	}
	for _, b := range list {
		if b.BlockedID == blockedID {
			return true, nil
		}
	}
	return false, nil
}

// ListBlocks 屏蔽列表
func (ps *PebbleService) ListBlocks(ctx context.Context, blockerID string) ([]models.BlockRelation, error) {
	db, err := ps.getCollectionDB(CollectionBlocks)
	if err != nil {
		return nil, err
	}
	blocks, err := ps.getUserBlocksFromDB(db, blockerID)
	if err != nil {
		return nil, err
	}
	return blocks.Blocks, nil
}

// ===== 统计 =====

// CollectionInfo 集合信息
type CollectionInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListCollections 列出集合及其键数量
func (ps *PebbleService) ListCollections() ([]*CollectionInfo, error) {
	var result []*CollectionInfo
	for _, name := range []string{CollectionUsers, CollectionMessages, CollectionBlocks} {
		count, err := ps.getCollectionCount(name)
		if err != nil {
			ps.logger.Warnf("⚠️ 获取集合 %s 记录数失败: %v", name, err)
		}
		result = append(result, &CollectionInfo{Name: name, Count: count})
	}
	return result, nil
}

func (ps *PebbleService) getCollectionCount(collectionName string) (int, error) {
	db, err := ps.getCollectionDB(collectionName)
	if err != nil {
		return 0, err
	}
	iter, err := db.NewIter(nil)
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	return count, iter.Error()
}
