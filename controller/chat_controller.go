package controller

import (
	"errors"
	"net/http"

	"easychat-service/controller/auth"
	"easychat-service/controller/request"
	"easychat-service/controller/respond"
	"easychat-service/models"
	"easychat-service/service/message_service"
	"easychat-service/tool"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatController 聊天 REST 接口
type ChatController struct {
	service *message_service.Service
	logger  *zap.SugaredLogger
}

// GetSidebarUsers godoc
// @Summary 侧边栏用户列表
// @Description 除自己之外的所有用户，附带是否已屏蔽和最后一条消息预览
// @Tags Messages
// @Produce json
// @Security UserAuth
// @Success 200 {object} respond.Response{data=[]models.SidebarUser} "成功响应"
// @Failure 401 {object} respond.Response "认证失败"
// @Failure 500 {object} respond.Response "服务器内部错误"
// @Router /api/messages/users [get]
func (ctl *ChatController) GetSidebarUsers(c *gin.Context) {
	t := tool.MakeTimestamp()
	users, err := ctl.service.Sidebar(c.Request.Context(), auth.UserID(c))
	if err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusOK, respond.RespSuccess(users, elapsed(t)))
}

// GetMessages godoc
// @Summary 会话历史
// @Description 返回与 peerId 之间最新的一页消息，按时间正序
// @Tags Messages
// @Produce json
// @Security UserAuth
// @Param peerId path string true "对方用户ID"
// @Param limit query int false "每页数量，默认20，最大100"
// @Param skip query int false "跳过最新的条数"
// @Success 200 {object} respond.Response{data=[]models.Message} "成功响应"
// @Failure 400 {object} respond.Response "参数错误"
// @Failure 401 {object} respond.Response "认证失败"
// @Router /api/messages/{peerId} [get]
func (ctl *ChatController) GetMessages(c *gin.Context) {
	var (
		t            = tool.MakeTimestamp()
		requestModel request.HistoryReq
	)
	if err := c.ShouldBindQuery(&requestModel); err != nil {
		c.JSONP(http.StatusBadRequest, respond.RespErr(errBadRequest, elapsed(t), respond.HttpsCodeBadRequest))
		return
	}
	messages, err := ctl.service.History(c.Request.Context(), auth.UserID(c), c.Param("peerId"), requestModel.Limit, requestModel.Skip)
	if err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusOK, respond.RespSuccess(messages, elapsed(t)))
}

// SendMessage godoc
// @Summary 发送消息
// @Description 持久化消息并实时推送给双方，文本的翻译稍后通过 messageUpdated 事件送达
// @Tags Messages
// @Accept json
// @Produce json
// @Security UserAuth
// @Param peerId path string true "接收者用户ID"
// @Param request body request.SendMessageReq true "消息内容"
// @Success 201 {object} respond.Response{data=models.Message} "成功响应"
// @Failure 400 {object} respond.Response "参数错误"
// @Failure 403 {object} respond.Response "已屏蔽"
// @Failure 500 {object} respond.Response "上传或存储失败"
// @Router /api/messages/send/{peerId} [post]
func (ctl *ChatController) SendMessage(c *gin.Context) {
	var (
		t            = tool.MakeTimestamp()
		requestModel request.SendMessageReq
	)
	if !ctl.bindJSON(c, &requestModel, t) {
		return
	}
	msg, err := ctl.service.Send(c.Request.Context(), message_service.SendRequest{
		SenderID:   auth.UserID(c),
		ReceiverID: c.Param("peerId"),
		Text:       requestModel.Text,
		Image:      requestModel.Image,
	})
	if err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusCreated, respond.RespSuccess(msg, elapsed(t)))
}

// GetBlocks godoc
// @Summary 屏蔽列表
// @Tags Blocks
// @Produce json
// @Security UserAuth
// @Success 200 {object} respond.Response{data=[]models.BlockRelation} "成功响应"
// @Router /api/blocks [get]
func (ctl *ChatController) GetBlocks(c *gin.Context) {
	t := tool.MakeTimestamp()
	blocks, err := ctl.service.Blocks(c.Request.Context(), auth.UserID(c))
	if err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusOK, respond.RespSuccess(blocks, elapsed(t)))
}

// AddBlock godoc
// @Summary 屏蔽用户
// @Description 幂等，重复屏蔽不报错
// @Tags Blocks
// @Produce json
// @Security UserAuth
// @Param peerId path string true "被屏蔽的用户ID"
// @Success 200 {object} respond.Response "成功响应"
// @Failure 400 {object} respond.Response "参数错误"
// @Router /api/blocks/{peerId} [post]
func (ctl *ChatController) AddBlock(c *gin.Context) {
	t := tool.MakeTimestamp()
	peerID := c.Param("peerId")
	if err := ctl.service.Block(c.Request.Context(), auth.UserID(c), peerID); err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusOK, respond.RespSuccess(map[string]interface{}{
		"success": true,
		"peerId":  peerID,
	}, elapsed(t)))
}

// RemoveBlock godoc
// @Summary 取消屏蔽
// @Description 幂等，未屏蔽时也返回成功
// @Tags Blocks
// @Produce json
// @Security UserAuth
// @Param peerId path string true "用户ID"
// @Success 200 {object} respond.Response "成功响应"
// @Router /api/blocks/{peerId} [delete]
func (ctl *ChatController) RemoveBlock(c *gin.Context) {
	t := tool.MakeTimestamp()
	peerID := c.Param("peerId")
	if err := ctl.service.Unblock(c.Request.Context(), auth.UserID(c), peerID); err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusOK, respond.RespSuccess(map[string]interface{}{
		"success": true,
		"peerId":  peerID,
	}, elapsed(t)))
}

// Register godoc
// @Summary 注册用户
// @Description 为当前身份创建用户记录
// @Tags Users
// @Accept json
// @Produce json
// @Security UserAuth
// @Param request body request.RegisterReq true "用户资料"
// @Success 201 {object} respond.Response{data=models.User} "成功响应"
// @Failure 400 {object} respond.Response "参数错误"
// @Failure 409 {object} respond.Response "用户已存在"
// @Router /api/users/register [post]
func (ctl *ChatController) Register(c *gin.Context) {
	var (
		t            = tool.MakeTimestamp()
		requestModel request.RegisterReq
	)
	if !ctl.bindJSON(c, &requestModel, t) {
		return
	}
	user, err := ctl.service.Register(c.Request.Context(), message_service.RegisterRequest{
		UserID:            auth.UserID(c),
		FullName:          requestModel.FullName,
		ProfilePic:        requestModel.ProfilePic,
		PreferredLanguage: requestModel.PreferredLanguage,
	})
	if err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusCreated, respond.RespSuccess(user, elapsed(t)))
}

// GetMe godoc
// @Summary 当前用户
// @Tags Users
// @Produce json
// @Security UserAuth
// @Success 200 {object} respond.Response{data=models.User} "成功响应"
// @Failure 404 {object} respond.Response "用户不存在"
// @Router /api/users/me [get]
func (ctl *ChatController) GetMe(c *gin.Context) {
	t := tool.MakeTimestamp()
	user, err := ctl.service.GetUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusOK, respond.RespSuccess(user, elapsed(t)))
}

// UpdateProfile godoc
// @Summary 更新资料
// @Description 只允许修改头像（data url）和偏好语言
// @Tags Users
// @Accept json
// @Produce json
// @Security UserAuth
// @Param request body request.UpdateProfileReq true "部分更新"
// @Success 200 {object} respond.Response{data=models.User} "成功响应"
// @Failure 400 {object} respond.Response "参数错误"
// @Failure 404 {object} respond.Response "用户不存在"
// @Failure 500 {object} respond.Response "上传失败"
// @Router /api/users/profile [put]
func (ctl *ChatController) UpdateProfile(c *gin.Context) {
	var (
		t            = tool.MakeTimestamp()
		requestModel request.UpdateProfileReq
	)
	if !ctl.bindJSON(c, &requestModel, t) {
		return
	}
	user, err := ctl.service.UpdateProfile(c.Request.Context(), auth.UserID(c), &models.ProfileUpdate{
		ProfileImage:      requestModel.ProfileImage,
		PreferredLanguage: requestModel.PreferredLanguage,
	})
	if err != nil {
		ctl.respondError(c, err, t)
		return
	}
	c.JSONP(http.StatusOK, respond.RespSuccess(user, elapsed(t)))
}

// bindJSON 解析请求体，失败时已写出响应
func (ctl *ChatController) bindJSON(c *gin.Context, obj interface{}, t int64) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSONP(http.StatusRequestEntityTooLarge, respond.RespErr(errors.New("request body too large"), elapsed(t), http.StatusRequestEntityTooLarge))
		return false
	}
	c.JSONP(http.StatusBadRequest, respond.RespErr(errBadRequest, elapsed(t), respond.HttpsCodeBadRequest))
	return false
}
