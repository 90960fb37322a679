package message_service

import (
	"errors"

	"easychat-service/service/store_service"
)

// 错误分类，controller 用 errors.Is 映射到 HTTP 状态码
var (
	ErrValidation  = errors.New("validation failed")                  // 400
	ErrBlocked     = errors.New("cannot send message to blocked user") // 403
	ErrNotFound    = store_service.ErrNotFound                         // 404
	ErrConflict    = errors.New("already exists")                      // 409
	ErrUpload      = errors.New("failed to upload image")              // 500
	ErrPersistence = errors.New("storage unavailable")                 // 500
)
