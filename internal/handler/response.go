package handler

import (
	"errors"
	"net/http"

	"pulse_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ResponseData 统一响应结构体
type ResponseData struct {
	Code int `json:"code"`           // 业务响应状态码
	Msg  any `json:"msg"`            // 提示信息
	Data any `json:"data,omitempty"` // 数据
}

// HandleSuccess 返回 200 成功响应
func HandleSuccess(c *gin.Context, data any) {
	reply(c, http.StatusOK, errorx.CodeSuccess, "success", data)
}

// HandleCreated 返回 201，用于创建资源的接口
func HandleCreated(c *gin.Context, data any) {
	reply(c, http.StatusCreated, errorx.CodeSuccess, "success", data)
}

// HandleError 通用错误处理方法
// 业务错误按错误码映射 HTTP 状态；数据库、缓存和未知错误记录日志后统一返回服务繁忙
//
//	if err := svc.DoSomething(ctx); err != nil {
//	    HandleError(c, err)
//	    return
//	}
func HandleError(c *gin.Context, err error) {
	HandleErrorWithData(c, err, nil)
}

// HandleErrorWithData 错误响应仍携带 data，调用方可以返回降级结果
func HandleErrorWithData(c *gin.Context, err error, data any) {
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) && !isInternal(codeErr.Code) {
		reply(c, errorx.HTTPStatus(codeErr.Code), codeErr.Code, codeErr.Msg, data)
		return
	}

	zap.L().Error("system error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	reply(c, http.StatusInternalServerError, errorx.ErrServerBusy.Code, errorx.ErrServerBusy.Msg, data)
}

// HandleParamError 处理参数绑定错误，validator 错误会被翻译成字段 -> 提示
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && Trans != nil {
		reply(c, http.StatusBadRequest, errorx.CodeInvalidParam, RemoveTopStruct(validationErrs.Translate(Trans)), nil)
		return
	}

	// JSON 格式错误等
	zap.L().Debug("param bind error", zap.String("path", c.Request.URL.Path), zap.Error(err))
	reply(c, http.StatusBadRequest, errorx.ErrInvalidParam.Code, errorx.ErrInvalidParam.Msg, nil)
}

func isInternal(code int) bool {
	switch code {
	case errorx.CodeServerBusy, errorx.CodeDBError, errorx.CodeCacheError:
		return true
	}
	return false
}

func reply(c *gin.Context, status, code int, msg, data any) {
	c.JSON(status, ResponseData{Code: code, Msg: msg, Data: data})
}
