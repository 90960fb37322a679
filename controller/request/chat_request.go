package request

// SendMessageReq 发送消息请求参数，text 和 image 都可为空
type SendMessageReq struct {
	Text  string `json:"text"`
	Image string `json:"image"` // data url
}

// HistoryReq 会话历史分页参数
type HistoryReq struct {
	Limit int `form:"limit"`
	Skip  int `form:"skip"`
}

// RegisterReq 注册用户请求参数
type RegisterReq struct {
	FullName          string `json:"fullName" binding:"required"`
	ProfilePic        string `json:"profilePic"`        // 可选，data url
	PreferredLanguage string `json:"preferredLanguage"` // 可选，默认 en
}

// UpdateProfileReq 更新资料请求参数，只允许这两个字段
type UpdateProfileReq struct {
	ProfileImage      *string `json:"profileImage"`
	PreferredLanguage *string `json:"preferredLanguage"`
}
