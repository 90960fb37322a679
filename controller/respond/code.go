package respond

// 响应码，错误时与 HTTP 状态码一致
const (
	HttpsCodeSuccess      = 0
	HttpsCodeBadRequest   = 400
	HttpsCodeUnauthorized = 401
	HttpsCodeForbidden    = 403
	HttpsCodeNotFound     = 404
	HttpsCodeConflict     = 409
	HttpsCodeError        = 500
)

const (
	RespMessageSuccess = "success"
)
