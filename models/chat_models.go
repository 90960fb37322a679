package models

import "time"

// User 用户信息
type User struct {
	ID                string    `json:"_id"`
	FullName          string    `json:"fullName"`
	ProfilePic        string    `json:"profilePic"`
	PreferredLanguage string    `json:"preferredLanguage"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Language 返回用户偏好语言，未设置时为默认语言
func (u *User) Language() string {
	if u == nil || u.PreferredLanguage == "" {
		return DefaultPreferredLanguage
	}
	return u.PreferredLanguage
}

// Translation 翻译信封，翻译完成后一次性附加到消息上
type Translation struct {
	DetectedLanguage string `json:"detectedLanguage"`
	TranslatedText   string `json:"translatedText"`
	TranslatedTo     string `json:"translatedTo"`
}

// Message 私聊消息
type Message struct {
	ID          string       `json:"_id"`
	SenderID    string       `json:"senderId"`
	ReceiverID  string       `json:"receiverId"`
	Text        string       `json:"text,omitempty"`
	Image       string       `json:"image,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	Translation *Translation `json:"translation,omitempty"`
}

// PeerOf 返回消息中相对于 userID 的另一方
func (m *Message) PeerOf(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Clone 深拷贝消息，避免调用方修改共享状态
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Translation != nil {
		t := *m.Translation
		cp.Translation = &t
	}
	return &cp
}

// BlockRelation 有向屏蔽关系 (blocker -> blocked)
type BlockRelation struct {
	BlockerID string    `json:"blockerId"`
	BlockedID string    `json:"blockedId"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserBlocks 用户屏蔽列表
type UserBlocks struct {
	UserID    string          `json:"userId"`
	Blocks    []BlockRelation `json:"blocks"`
	UpdatedAt int64           `json:"updatedAt"`
}

// ProfileUpdate 资料部分更新，只允许修改头像和偏好语言
type ProfileUpdate struct {
	ProfileImage      *string `json:"profileImage,omitempty"`
	PreferredLanguage *string `json:"preferredLanguage,omitempty"`
}

// IsEmpty 是否没有任何可更新字段
func (p *ProfileUpdate) IsEmpty() bool {
	return p == nil || (p.ProfileImage == nil && p.PreferredLanguage == nil)
}

// LastMessagePreview 侧边栏最后一条消息预览
type LastMessagePreview struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// SidebarUser 侧边栏用户条目
type SidebarUser struct {
	User
	IsBlocked   bool                `json:"isBlocked"`
	LastMessage *LastMessagePreview `json:"lastMessage"`
}
