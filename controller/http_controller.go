package controller

import (
	"net/http"
	"strings"
	"time"

	"easychat-service/controller/auth"
	"easychat-service/controller/respond"
	_ "easychat-service/docs" // 导入生成的 swagger 文档
	"easychat-service/service/message_service"
	"easychat-service/tool"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Service      *message_service.Service
	Logger       *zap.SugaredLogger
	CorsOrigins  []string
	MaxBodyBytes int64
	AuthMode     string
	AuthMaxSkew  time.Duration

	// 可选
	Metrics      http.Handler
	Realtime     http.Handler
	RealtimePath string
}

// NewRouter 构建 gin 路由
func NewRouter(config RouterConfig) *gin.Engine {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(Cors(config.CorsOrigins))
	router.Use(Logger(logger))

	// Swagger 文档路由
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if config.Metrics != nil {
		router.GET("/metrics", gin.WrapH(config.Metrics))
	}
	if config.Realtime != nil {
		path := strings.TrimSuffix(config.RealtimePath, "/")
		if path == "" {
			path = "/socket.io"
		}
		router.Any(path+"/*any", gin.WrapH(config.Realtime))
	}

	ctl := &ChatController{service: config.Service, logger: logger}
	api := router.Group("/api", BodyLimit(config.MaxBodyBytes), auth.Middleware(config.AuthMode, config.AuthMaxSkew))
	{
		messages := api.Group("/messages")
		{
			messages.GET("/users", ctl.GetSidebarUsers)
			messages.GET("/:peerId", ctl.GetMessages)
			messages.POST("/send/:peerId", ctl.SendMessage)
		}

		blocks := api.Group("/blocks")
		{
			blocks.GET("", ctl.GetBlocks)
			blocks.POST("/:peerId", ctl.AddBlock)
			blocks.DELETE("/:peerId", ctl.RemoveBlock)
		}

		users := api.Group("/users")
		{
			users.POST("/register", ctl.Register)
			users.GET("/me", ctl.GetMe)
			users.PUT("/profile", ctl.UpdateProfile)
		}
	}

	return router
}

// Cors 允许配置的来源，未配置时放行所有来源
func Cors(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(c *gin.Context) {
		method := c.Request.Method
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			_, ok := allowed[origin]
			if _, wildcard := allowed["*"]; ok || wildcard || len(allowed) == 0 {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization,X-User-Id,X-Signature,X-Public-Key,X-Timestamp")
		c.Header("Access-Control-Allow-Credentials", "true")
		if method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Logger 请求日志
func Logger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			logger.Errorw("🌐 request", fields...)
			return
		}
		logger.Debugw("🌐 request", fields...)
	}
}

// Recovery 将 panic 转为 500 响应
func Recovery(logger *zap.SugaredLogger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Errorf("⚠️ Panic recovered in %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			respond.RespErr(errInternal, 0, respond.HttpsCodeError))
	})
}

// BodyLimit 限制请求体大小，内联图片较大时会命中
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func elapsed(t int64) int64 {
	return tool.MakeTimestamp() - t
}
