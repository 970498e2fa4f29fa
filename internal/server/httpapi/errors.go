package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/observability"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var statusByErr = []struct {
	err    error
	status int
}{
	{common.ErrNotAuthenticated, http.StatusUnauthorized},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrRefreshTokenExpired, http.StatusUnauthorized},
	{common.ErrForbidden, http.StatusForbidden},
	{common.ErrNotAuthor, http.StatusForbidden},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrNoSuchRequest, http.StatusNotFound},
	{common.ErrDuplicateUsername, http.StatusConflict},
	{common.ErrAlreadyBound, http.StatusConflict},
	{common.ErrAlreadyRequested, http.StatusConflict},
	{common.ErrNotBound, http.StatusConflict},
	{common.ErrDuplicateContent, http.StatusConflict},
	{common.ErrorAlreadyExists, http.StatusConflict},
	{common.ErrImmutable, http.StatusConflict},
	{common.ErrEmptyField, http.StatusBadRequest},
	{common.ErrSelfTarget, http.StatusBadRequest},
	{common.ErrorValidation, http.StatusBadRequest},
	{common.ErrInvalidDocument, http.StatusUnprocessableEntity},
	{common.ErrUnsupportedFormat, http.StatusUnprocessableEntity},
}

// StatusOf maps a service error to an HTTP status; unknown errors and
// storage failures are 500.
func StatusOf(err error) int {
	for _, e := range statusByErr {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

type message struct{ en, zh string }

var messages = map[string]message{
	"not_authenticated":     {"Please log in first.", "请先登录。"},
	"unauthorized":          {"Wrong username or password.", "用户名或密码错误。"},
	"invalid_token":         {"The session token is invalid.", "会话令牌无效。"},
	"token_expired":         {"The session has expired, please log in again.", "会话已过期，请重新登录。"},
	"refresh_token_expired": {"The session has expired, please log in again.", "会话已过期，请重新登录。"},
	"forbidden":             {"You do not have permission to do that.", "您没有执行此操作的权限。"},
	"not_author":            {"Only the author may edit this item.", "只有作者可以编辑此内容。"},
	"not_found":             {"Not found.", "未找到。"},
	"no_such_request":       {"There is no such pending request.", "没有这样的待处理请求。"},
	"duplicate_username":    {"That username is already taken.", "用户名已存在。"},
	"already_bound":         {"You are already bound to this user.", "你们已经绑定。"},
	"already_requested":     {"A request has already been sent.", "已发送过绑定请求。"},
	"not_bound":             {"You are not bound to this user.", "你们尚未绑定。"},
	"duplicate_content":     {"Identical content was already uploaded.", "相同内容已上传，已跳过。"},
	"already_exists":        {"Already exists.", "已存在。"},
	"immutable":             {"This item cannot be edited.", "此内容无法编辑。"},
	"empty_field":           {"A required field is empty.", "必填字段为空。"},
	"self_target":           {"You cannot do that to yourself.", "不能对自己执行此操作。"},
	"validation":            {"The request is invalid.", "请求无效。"},
	"invalid_document":      {"The file could not be read as a timetable.", "无法读取该课表文件。"},
	"unsupported_format":    {"Only .xlsx, .xlsm and .csv files are supported.", "仅支持 .xlsx、.xlsm 和 .csv 文件。"},
	"storage":               {"Storage is unavailable, please try again later.", "存储暂不可用，请稍后再试。"},
	"internal":              {"Something went wrong.", "服务器内部错误。"},
}

// Localize returns the message for code in the language preferred by an
// Accept-Language header. Only English and Chinese are available.
func Localize(code, acceptLanguage string) string {
	m, ok := messages[code]
	if !ok {
		m = messages["internal"]
	}
	if prefersChinese(acceptLanguage) {
		return m.zh
	}
	return m.en
}

func prefersChinese(header string) bool {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		switch {
		case tag == "":
			continue
		case strings.HasPrefix(tag, "zh"):
			return true
		case strings.HasPrefix(tag, "en"):
			return false
		}
	}
	return false
}

// abort renders err and stops the chain. Server faults go to Sentry.
func abort(c *gin.Context, err error) {
	status := StatusOf(err)
	code := common.Code(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		observability.CaptureErr(c.Request.Context(), err, map[string]string{
			"route":  c.FullPath(),
			"method": c.Request.Method,
		})
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   code,
		Message: Localize(code, c.GetHeader("Accept-Language")),
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   common.Code(common.ErrorValidation),
		Message: err.Error(),
	})
}
