package mysql_service

import (
	"time"

	"easychat-service/models"
)

// userRow users 表
type userRow struct {
	ID                string `gorm:"primaryKey;size:64"`
	FullName          string `gorm:"size:128"`
	ProfilePic        string `gorm:"size:512"`
	PreferredLanguage string `gorm:"size:16"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (userRow) TableName() string { return "users" }

// messageRow messages 表，conv_lo/conv_hi 为无序会话键
type messageRow struct {
	ID               string    `gorm:"primaryKey;size:64"`
	SenderID         string    `gorm:"size:64;not null"`
	ReceiverID       string    `gorm:"size:64;not null"`
	ConvLo           string    `gorm:"size:64;not null;index:idx_conv,priority:1"`
	ConvHi           string    `gorm:"size:64;not null;index:idx_conv,priority:2"`
	Text             string    `gorm:"type:text"`
	Image            string    `gorm:"size:512"`
	CreatedAt        time.Time `gorm:"precision:6;index:idx_conv,priority:3"`
	DetectedLanguage *string   `gorm:"size:16"`
	TranslatedText   *string   `gorm:"type:text"`
	TranslatedTo     *string   `gorm:"size:16"`
}

func (messageRow) TableName() string { return "messages" }

// blockRow blocks 表
type blockRow struct {
	BlockerID string `gorm:"primaryKey;size:64"`
	BlockedID string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
}

func (blockRow) TableName() string { return "blocks" }

func userToRow(u *models.User) *userRow {
	return &userRow{
		ID:                u.ID,
		FullName:          u.FullName,
		ProfilePic:        u.ProfilePic,
		PreferredLanguage: u.PreferredLanguage,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:                r.ID,
		FullName:          r.FullName,
		ProfilePic:        r.ProfilePic,
		PreferredLanguage: r.PreferredLanguage,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (r *messageRow) toModel() *models.Message {
	msg := &models.Message{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Text:       r.Text,
		Image:      r.Image,
		CreatedAt:  r.CreatedAt,
	}
	if r.TranslatedTo != nil {
		msg.Translation = &models.Translation{TranslatedTo: *r.TranslatedTo}
		if r.DetectedLanguage != nil {
			msg.Translation.DetectedLanguage = *r.DetectedLanguage
		}
		if r.TranslatedText != nil {
			msg.Translation.TranslatedText = *r.TranslatedText
		}
	}
	return msg
}
