package models

const (
	DefaultPreferredLanguage = "en"
)

// 实时通道事件名称
const (
	EventNewMessage     = "newMessage"
	EventMessageUpdated = "messageUpdated"
	EventGetOnlineUsers = "getOnlineUsers"
	EventTyping         = "typing"
	EventStopTyping     = "stopTyping"
)
