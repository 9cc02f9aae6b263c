package errorx

import (
	"errors"
	"fmt"
	"net/http"
)

// CodeError 带业务错误码的自定义错误
// 支持 %w 包装底层错误，能被 errors.Is/errors.As 识别
type CodeError struct {
	Code  int    // 业务错误码
	Msg   string // 错误消息
	cause error  // 被包装的底层错误
}

func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *CodeError) Unwrap() error {
	return e.cause
}

// Is 按错误码和消息匹配哨兵错误，包装后的副本同样满足 errors.Is
func (e *CodeError) Is(target error) bool {
	t, ok := target.(*CodeError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Msg == t.Msg
}

// New 创建一个新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

// Newf 创建一个带格式化消息的 CodeError
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap 包装底层错误，添加业务错误码和消息
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   msg,
		cause: err,
	}
}

// Wrapf 包装底层错误，支持格式化消息
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// GetCode 从错误中提取业务错误码，如果不是 CodeError 则返回默认码
func GetCode(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeServerBusy
}

const (
	CodeSuccess         = 1000
	CodeInvalidParam    = 1001 // validation error
	CodeUserExist       = 1002
	CodeUserNotExist    = 1003
	CodeInvalidPassword = 1004
	CodeServerBusy      = 1005 // internal
	CodeUnauthorized    = 1006
	CodeForbidden       = 1007
	CodeNotFound        = 1008
	CodeConflict        = 1009
	CodeDBError         = 1010
	CodeCacheError      = 1011
	CodeUnavailable     = 1012 // upstream provider or peer unreachable
	CodeNotConfigured   = 1013 // optional provider disabled
)

var (
	ErrInvalidParam = New(CodeInvalidParam, "invalid request parameters")
	ErrServerBusy   = New(CodeServerBusy, "server busy")
	ErrUnauthorized = New(CodeUnauthorized, "unauthorized")

	ErrAlreadyFriends       = New(CodeConflict, "already friends")
	ErrDuplicatePending     = New(CodeConflict, "friend request already pending")
	ErrReverseRequestExists = New(CodeConflict, "this user already sent you a friend request, respond to it instead")
	ErrAlreadyHandled       = New(CodeConflict, "friend request already handled")
)

// IsNotFound 检查错误是否为"未找到"类型
func IsNotFound(err error) bool {
	var codeErr *CodeError
	if errors.As(err, &codeErr) && codeErr.Code == CodeNotFound {
		return true
	}
	return err != nil && err.Error() == "record not found"
}

// HTTPStatus 业务错误码对应的 HTTP 状态码
func HTTPStatus(code int) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeInvalidPassword:
		return http.StatusBadRequest
	case CodeUserExist, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeUserNotExist:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusBadGateway
	case CodeNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
