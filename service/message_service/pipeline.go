package message_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"easychat-service/models"
	"easychat-service/service/media_service"
	"easychat-service/service/store_service"
	"easychat-service/service/translation_service"
	"easychat-service/tool"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 发送结果标签
const (
	SendOutcomeSent          = "sent"
	SendOutcomeInvalid       = "invalid"
	SendOutcomeBlocked       = "blocked"
	SendOutcomeUploadFailed  = "upload_failed"
	SendOutcomePersistFailed = "persist_failed"
)

// Notifier 向用户投递实时事件
type Notifier interface {
	EmitToUsers(userIDs []string, event string, payload any) int
}

// Enricher 为文本生成翻译信封
type Enricher interface {
	Enrich(ctx context.Context, text, target string) (*models.Translation, translation_service.Outcome, error)
}

// Recorder 发送与翻译统计
type Recorder interface {
	RecordSend(outcome string, duration time.Duration)
	RecordTranslation(outcome string)
}

// SendRequest 发送请求
type SendRequest struct {
	SenderID   string
	ReceiverID string
	Text       string
	Image      string // data url 或纯 base64
}

// PipelineConfig 翻译调度参数
type PipelineConfig struct {
	TranslationDelay   time.Duration // 广播后延迟多久开始翻译
	TranslationTimeout time.Duration // 检测+翻译的总超时
}

// DefaultPipelineConfig 100ms 延迟，5s 超时
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TranslationDelay:   100 * time.Millisecond,
		TranslationTimeout: 5 * time.Second,
	}
}

// Pipeline 消息发送流水线：校验 -> 屏蔽检查 -> 上传 -> 持久化 -> 广播 -> 异步翻译
type Pipeline struct {
	store    store_service.Store
	uploader media_service.Uploader
	notifier Notifier
	enricher Enricher // nil 表示关闭翻译
	recorder Recorder
	logger   *zap.SugaredLogger
	config   PipelineConfig

	now   func() time.Time
	newID func() string

	pending sync.WaitGroup
}

// NewPipeline 创建流水线，enricher 和 recorder 可以为 nil
func NewPipeline(store store_service.Store, uploader media_service.Uploader, notifier Notifier, enricher Enricher, recorder Recorder, config PipelineConfig, logger *zap.SugaredLogger) *Pipeline {
	d := DefaultPipelineConfig()
	if config.TranslationDelay < 0 {
		config.TranslationDelay = d.TranslationDelay
	}
	if config.TranslationTimeout <= 0 {
		config.TranslationTimeout = d.TranslationTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{
		store:    store,
		uploader: uploader,
		notifier: notifier,
		enricher: enricher,
		recorder: recorder,
		logger:   logger,
		config:   config,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Send 同步完成持久化和 newMessage 广播后返回；翻译在返回后异步进行
func (p *Pipeline) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	start := p.now()
	msg, outcome, err := p.send(ctx, req)
	if p.recorder != nil {
		p.recorder.RecordSend(outcome, time.Since(start))
	}
	return msg, err
}

func (p *Pipeline) send(ctx context.Context, req SendRequest) (*models.Message, string, error) {
	if req.SenderID == "" || req.ReceiverID == "" {
		return nil, SendOutcomeInvalid, fmt.Errorf("%w: senderId and receiverId are required", ErrValidation)
	}

	blocked, err := p.isBlockedEitherWay(ctx, req.SenderID, req.ReceiverID)
	if err != nil {
		p.logger.Errorf("❌ 查询屏蔽关系失败: %v", err)
		return nil, SendOutcomePersistFailed, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if blocked {
		p.logger.Infof("🚫 消息被拦截: %s -> %s 存在屏蔽关系", req.SenderID, req.ReceiverID)
		return nil, SendOutcomeBlocked, ErrBlocked
	}

	var imageURL string
	if req.Image != "" {
		mime, data, err := tool.ParseDataURL(req.Image)
		if err != nil {
			return nil, SendOutcomeInvalid, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		imageURL, err = p.uploader.Upload(ctx, data, mime)
		if err != nil {
			p.logger.Errorf("❌ 图片上传失败: %v", err)
			return nil, SendOutcomeUploadFailed, fmt.Errorf("%w: %v", ErrUpload, err)
		}
	}

	msg := &models.Message{
		ID:         p.newID(),
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
		Image:      imageURL,
		CreatedAt:  p.now().UTC(),
	}
	if err := p.store.CreateMessage(ctx, msg); err != nil {
		p.logger.Errorf("❌ 保存消息失败: %v", err)
		return nil, SendOutcomePersistFailed, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	delivered := p.notifier.EmitToUsers([]string{msg.ReceiverID, msg.SenderID}, models.EventNewMessage, msg.Clone())
	p.logger.Infof("📨 消息 %s 已保存: %s -> %s, 实时投递 %d 个连接", msg.ID, msg.SenderID, msg.ReceiverID, delivered)

	if msg.Text != "" && p.enricher != nil {
		p.scheduleTranslation(msg.Clone())
	}
	return msg, SendOutcomeSent, nil
}

func (p *Pipeline) isBlockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	blocked, err := p.store.IsBlocked(ctx, a, b)
	if err != nil || blocked {
		return blocked, err
	}
	return p.store.IsBlocked(ctx, b, a)
}

// scheduleTranslation 与请求生命周期分离，不继承请求 ctx
func (p *Pipeline) scheduleTranslation(msg *models.Message) {
	p.pending.Add(1)
	time.AfterFunc(p.config.TranslationDelay, func() {
		defer p.pending.Done()
		p.translate(msg)
	})
}

func (p *Pipeline) translate(msg *models.Message) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("❌ 翻译任务异常 message=%s: %v", msg.ID, r)
			p.recordTranslation(translation_service.OutcomeFailed)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.config.TranslationTimeout)
	defer cancel()

	target := models.DefaultPreferredLanguage
	receiver, err := p.store.GetUser(ctx, msg.ReceiverID)
	switch {
	case err == nil:
		target = receiver.Language()
	case errors.Is(err, store_service.ErrNotFound):
	default:
		p.logger.Warnf("⚠️ 翻译失败 message=%s: 读取接收者失败: %v", msg.ID, err)
		p.recordTranslation(translation_service.OutcomeFailed)
		return
	}

	envelope, outcome, err := p.enricher.Enrich(ctx, msg.Text, target)
	switch outcome {
	case translation_service.OutcomeSkipped:
		p.logger.Debugf("⏭️ 消息 %s 无需翻译 (target=%s)", msg.ID, target)
		p.recordTranslation(outcome)
		return
	case translation_service.OutcomeFailed:
		p.logger.Warnf("⚠️ 翻译失败 message=%s: %v", msg.ID, err)
		p.recordTranslation(outcome)
		return
	}

	if err := p.store.SetTranslation(ctx, msg.ID, envelope); err != nil {
		p.logger.Warnf("⚠️ 保存翻译失败 message=%s: %v", msg.ID, err)
		p.recordTranslation(translation_service.OutcomeFailed)
		return
	}
	msg.Translation = envelope
	p.notifier.EmitToUsers([]string{msg.ReceiverID, msg.SenderID}, models.EventMessageUpdated, msg)
	p.recordTranslation(translation_service.OutcomeApplied)
	p.logger.Infof("🌐 消息 %s 已翻译: %s -> %s", msg.ID, envelope.DetectedLanguage, envelope.TranslatedTo)
}

func (p *Pipeline) recordTranslation(outcome translation_service.Outcome) {
	if p.recorder != nil {
		p.recorder.RecordTranslation(string(outcome))
	}
}

// Wait 等待所有已调度的翻译任务结束
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// trimmedOrEmpty 统一空白字段
func trimmedOrEmpty(s string) string {
	return strings.TrimSpace(s)
}
