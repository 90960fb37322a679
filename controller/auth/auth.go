package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"easychat-service/controller/respond"
	"easychat-service/tool"

	"github.com/gin-gonic/gin"
)

const (
	ModeHeader = "header"
	ModeSign   = "sign"

	HeaderUserID    = "X-User-Id"
	HeaderPublicKey = "X-Public-Key"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"

	contextUserKey = "easychat.userId"
)

// Middleware 按模式选择鉴权方式，未知模式按 header 处理
func Middleware(mode string, maxSkew time.Duration) gin.HandlerFunc {
	if strings.EqualFold(mode, ModeSign) {
		return AuthSignMiddleware(maxSkew)
	}
	return AuthHeaderMiddleware()
}

// AuthHeaderMiddleware 信任网关注入的 X-User-Id
func AuthHeaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := tool.MakeTimestamp()
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			abort(c, t, respond.NewAuthError("missing "+HeaderUserID+" header"))
			return
		}
		c.Set(contextUserKey, userID)
		c.Next()
	}
}

// AuthSignMiddleware 校验 "METHOD:path:timestamp" 的签名，用户ID由公钥推导
func AuthSignMiddleware(maxSkew time.Duration) gin.HandlerFunc {
	if maxSkew <= 0 {
		maxSkew = 5 * time.Minute
	}
	return func(c *gin.Context) {
		t := tool.MakeTimestamp()
		publicKey := c.GetHeader(HeaderPublicKey)
		signature := c.GetHeader(HeaderSignature)
		timestamp := c.GetHeader(HeaderTimestamp)
		if publicKey == "" || signature == "" || timestamp == "" {
			abort(c, t, respond.NewAuthError("missing signature headers"))
			return
		}

		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			abort(c, t, respond.NewAuthError("invalid timestamp"))
			return
		}
		skew := time.Duration(t-ts) * time.Millisecond
		if skew < 0 {
			skew = -skew
		}
		if skew > maxSkew {
			abort(c, t, respond.NewAuthError("request expired"))
			return
		}

		ok, err := tool.VerifySign(SignPayload(c.Request.Method, c.Request.URL.Path, timestamp), signature, publicKey)
		if err != nil || !ok {
			abort(c, t, respond.NewAuthError("invalid signature"))
			return
		}
		userID, err := tool.UserIDFromPublicKey(publicKey)
		if err != nil {
			abort(c, t, respond.NewAuthError("invalid public key"))
			return
		}
		c.Set(contextUserKey, userID)
		c.Next()
	}
}

// SignPayload 待签名内容
func SignPayload(method, path, timestamp string) string {
	return fmt.Sprintf("%s:%s:%s", strings.ToUpper(method), path, timestamp)
}

// UserID 当前请求的身份
func UserID(c *gin.Context) string {
	return c.GetString(contextUserKey)
}

func abort(c *gin.Context, t int64, err error) {
	var authErr *respond.AuthError
	if !errors.As(err, &authErr) {
		err = respond.NewAuthError(err.Error())
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, respond.Unauthorized(err, tool.MakeTimestamp()-t))
}
