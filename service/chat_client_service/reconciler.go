package chat_client_service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"easychat-service/models"
	"easychat-service/service/socket_client_service"
)

const (
	DefaultPageSize      = 20
	DefaultTypingTimeout = 5 * time.Second
)

// 状态变化类型
const (
	ChangeMessage = "message" // 当前会话追加消息
	ChangeUpdated = "updated" // 当前会话消息被替换（翻译到达）
	ChangeUnread  = "unread"  // 非当前会话未读数变化
	ChangeTyping  = "typing"  // 对方输入状态变化
	ChangeOnline  = "online"  // 在线列表变化
)

var ErrNoConversation = errors.New("no open conversation")

// HistoryAPI 拉取历史和发送消息
type HistoryAPI interface {
	History(ctx context.Context, peerID string, limit, skip int) ([]*models.Message, error)
	Send(ctx context.Context, peerID, text, image string) (*models.Message, error)
}

// Signaler 上行输入状态
type Signaler interface {
	EmitTyping(receiverID string) error
	EmitStopTyping(receiverID string) error
}

// Subscriber 实时事件源，SetHandlers 整体替换回调
type Subscriber interface {
	SetHandlers(socket_client_service.Handlers)
}

// Change 状态变化通知
type Change struct {
	Kind    string
	PeerID  string
	Message *models.Message
}

// ReconcilerConfig 配置
type ReconcilerConfig struct {
	UserID        string
	PageSize      int
	TypingTimeout time.Duration
}

type conversation struct {
	messages []*models.Message
	index    map[string]int // message id -> position
	loaded   bool           // 首页历史已拉取
	// 首页拉取完成前收到的 messageUpdated，合并后再应用
	updates map[string]*models.Message
}

func newConversation() *conversation {
	return &conversation{index: make(map[string]int), updates: make(map[string]*models.Message)}
}

func (c *conversation) has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *conversation) append(msg *models.Message) bool {
	if c.has(msg.ID) {
		return false
	}
	c.index[msg.ID] = len(c.messages)
	c.messages = append(c.messages, msg)
	return true
}

// prepend 批量加到前面，返回实际加入的条数
func (c *conversation) prepend(older []*models.Message) int {
	fresh := make([]*models.Message, 0, len(older))
	seen := make(map[string]struct{}, len(older))
	for _, m := range older {
		if c.has(m.ID) {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return 0
	}
	c.messages = append(fresh, c.messages...)
	c.reindex()
	return len(fresh)
}

func (c *conversation) replace(msg *models.Message) bool {
	i, ok := c.index[msg.ID]
	if !ok {
		return false
	}
	c.messages[i] = msg
	return true
}

func (c *conversation) reindex() {
	c.index = make(map[string]int, len(c.messages))
	for i, m := range c.messages {
		c.index[m.ID] = i
	}
}

func (c *conversation) snapshot() []*models.Message {
	out := make([]*models.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// Reconciler 客户端会话状态：合并分页历史与实时推送
type Reconciler struct {
	config ReconcilerConfig
	api    HistoryAPI
	signal Signaler

	mu            sync.Mutex
	conversations map[string]*conversation
	active        string
	unread        map[string]int
	typing        map[string]*time.Timer
	online        map[string]struct{}

	listenerMu sync.RWMutex
	listener   func(Change)
}

// NewReconciler 创建 Reconciler，signal 可以为 nil
func NewReconciler(config ReconcilerConfig, api HistoryAPI, signal Signaler) *Reconciler {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.TypingTimeout <= 0 {
		config.TypingTimeout = DefaultTypingTimeout
	}
	return &Reconciler{
		config:        config,
		api:           api,
		signal:        signal,
		conversations: make(map[string]*conversation),
		unread:        make(map[string]int),
		typing:        make(map[string]*time.Timer),
		online:        make(map[string]struct{}),
	}
}

// OnChange 设置状态变化回调，在锁外调用
func (r *Reconciler) OnChange(fn func(Change)) {
	r.listenerMu.Lock()
	r.listener = fn
	r.listenerMu.Unlock()
}

// Bind 订阅实时事件，重复调用只替换不叠加
func (r *Reconciler) Bind(sub Subscriber) {
	sub.SetHandlers(socket_client_service.Handlers{
		OnNewMessage:     r.HandleNewMessage,
		OnMessageUpdated: r.HandleMessageUpdated,
		OnOnlineUsers:    r.SetOnlineUsers,
		OnTyping:         r.HandleTyping,
		OnStopTyping:     r.HandleStopTyping,
	})
}

// OpenConversation 切换当前会话并清零未读，已缓存时不再请求
func (r *Reconciler) OpenConversation(ctx context.Context, peerID string) ([]*models.Message, error) {
	r.mu.Lock()
	r.active = peerID
	r.unread[peerID] = 0
	if conv, ok := r.conversations[peerID]; ok && conv.loaded {
		out := conv.snapshot()
		r.mu.Unlock()
		return out, nil
	}
	r.mu.Unlock()

	page, err := r.api.History(ctx, peerID, r.config.PageSize, 0)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	conv := newConversation()
	conv.loaded = true
	for _, m := range page {
		conv.append(m)
	}
	// 拉取期间经推送到达的消息接在后面
	if pending, ok := r.conversations[peerID]; ok {
		if pending.loaded {
			return pending.snapshot(), nil
		}
		for _, m := range pending.messages {
			conv.append(m)
		}
		for _, m := range pending.updates {
			conv.replace(m)
		}
	}
	r.conversations[peerID] = conv
	return conv.snapshot(), nil
}

// CloseConversation 关闭当前会话，缓存保留
func (r *Reconciler) CloseConversation() {
	r.mu.Lock()
	r.active = ""
	r.mu.Unlock()
}

// ActivePeer 当前会话
func (r *Reconciler) ActivePeer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// LoadOlder 以已缓存条数为偏移加载更早的一页，返回新增条数
func (r *Reconciler) LoadOlder(ctx context.Context) (int, error) {
	r.mu.Lock()
	peerID := r.active
	conv, ok := r.conversations[peerID]
	if peerID == "" || !ok || !conv.loaded {
		r.mu.Unlock()
		return 0, ErrNoConversation
	}
	offset := len(conv.messages)
	r.mu.Unlock()

	page, err := r.api.History(ctx, peerID, r.config.PageSize, offset)
	if err != nil {
		return 0, err
	}
	if len(page) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok = r.conversations[peerID]
	if !ok {
		return 0, nil
	}
	return conv.prepend(page), nil
}

// Displayed 当前会话的消息，按时间正序
func (r *Reconciler) Displayed() []*models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[r.active]
	if r.active == "" || !ok {
		return nil
	}
	return conv.snapshot()
}

// Send 发送消息，推送可能先于响应到达，按ID去重
func (r *Reconciler) Send(ctx context.Context, peerID, text, image string) (*models.Message, error) {
	msg, err := r.api.Send(ctx, peerID, text, image)
	if err != nil {
		return nil, err
	}
	// 未缓存的会话不建缓存，打开时拉取的历史会包含它
	r.mu.Lock()
	added := false
	if conv, ok := r.conversations[peerID]; ok {
		added = conv.append(msg.Clone())
	}
	visible := peerID == r.active
	r.mu.Unlock()

	if added && visible {
		r.notify(Change{Kind: ChangeMessage, PeerID: peerID, Message: msg.Clone()})
	}
	return msg, nil
}

// HandleNewMessage 处理 newMessage 推送
func (r *Reconciler) HandleNewMessage(msg *models.Message) {
	if msg == nil || msg.ID == "" {
		return
	}
	peerID := msg.PeerOf(r.config.UserID)

	r.mu.Lock()
	conv, cached := r.conversations[peerID]
	if cached && conv.has(msg.ID) {
		r.mu.Unlock()
		return
	}
	var change Change
	if peerID == r.active {
		if !cached {
			conv = newConversation()
			r.conversations[peerID] = conv
		}
		conv.append(msg.Clone())
		change = Change{Kind: ChangeMessage, PeerID: peerID, Message: msg.Clone()}
	} else {
		if cached {
			conv.append(msg.Clone())
		}
		r.unread[peerID]++
		change = Change{Kind: ChangeUnread, PeerID: peerID, Message: msg.Clone()}
	}
	r.mu.Unlock()
	r.notify(change)
}

// HandleMessageUpdated 处理 messageUpdated 推送：按ID原位替换，非当前会话计为未读
func (r *Reconciler) HandleMessageUpdated(msg *models.Message) {
	if msg == nil || msg.ID == "" {
		return
	}
	peerID := msg.PeerOf(r.config.UserID)

	r.mu.Lock()
	conv, ok := r.conversations[peerID]
	if !ok || !conv.loaded {
		// 首页可能正在拉取，先记下，合并时覆盖旧版本
		if !ok {
			conv = newConversation()
			r.conversations[peerID] = conv
		}
		conv.updates[msg.ID] = msg.Clone()
	}
	replaced := conv.replace(msg.Clone())
	var change Change
	if peerID == r.active {
		if !replaced {
			r.mu.Unlock()
			return
		}
		change = Change{Kind: ChangeUpdated, PeerID: peerID, Message: msg.Clone()}
	} else {
		r.unread[peerID]++
		change = Change{Kind: ChangeUnread, PeerID: peerID, Message: msg.Clone()}
	}
	r.mu.Unlock()
	r.notify(change)
}

// Unread 某个会话的未读数
func (r *Reconciler) Unread(peerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unread[peerID]
}

// SetTyping 通知对方正在输入
func (r *Reconciler) SetTyping(peerID string) error {
	if r.signal == nil {
		return nil
	}
	return r.signal.EmitTyping(peerID)
}

// SetStopTyping 通知对方停止输入
func (r *Reconciler) SetStopTyping(peerID string) error {
	if r.signal == nil {
		return nil
	}
	return r.signal.EmitStopTyping(peerID)
}

// HandleTyping 对方正在输入，超时未刷新自动清除
func (r *Reconciler) HandleTyping(senderID string) {
	if senderID == "" {
		return
	}
	r.mu.Lock()
	if t, ok := r.typing[senderID]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(r.config.TypingTimeout, func() {
		r.mu.Lock()
		current, ok := r.typing[senderID]
		if !ok || current != timer {
			r.mu.Unlock()
			return
		}
		delete(r.typing, senderID)
		r.mu.Unlock()
		r.notify(Change{Kind: ChangeTyping, PeerID: senderID})
	})
	r.typing[senderID] = timer
	r.mu.Unlock()
	r.notify(Change{Kind: ChangeTyping, PeerID: senderID})
}

// HandleStopTyping 对方停止输入
func (r *Reconciler) HandleStopTyping(senderID string) {
	r.mu.Lock()
	t, ok := r.typing[senderID]
	if ok {
		t.Stop()
		delete(r.typing, senderID)
	}
	r.mu.Unlock()
	if ok {
		r.notify(Change{Kind: ChangeTyping, PeerID: senderID})
	}
}

// IsTyping 对方是否正在输入
func (r *Reconciler) IsTyping(peerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.typing[peerID]
	return ok
}

// SetOnlineUsers 替换在线列表
func (r *Reconciler) SetOnlineUsers(ids []string) {
	online := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		online[id] = struct{}{}
	}
	r.mu.Lock()
	r.online = online
	r.mu.Unlock()
	r.notify(Change{Kind: ChangeOnline})
}

// IsOnline 用户是否在线
func (r *Reconciler) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.online[userID]
	return ok
}

// Online 在线用户，已排序
func (r *Reconciler) Online() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.online))
	for id := range r.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Close 停止所有输入状态计时器
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.typing {
		t.Stop()
		delete(r.typing, id)
	}
}

func (r *Reconciler) notify(change Change) {
	r.listenerMu.RLock()
	fn := r.listener
	r.listenerMu.RUnlock()
	if fn != nil {
		fn(change)
	}
}
