// Package resp 提供统一的 JSON 响应结构。
// 所有接口都返回 {code, message, data, request_id}，code 为 0 表示成功。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务错误码
const (
	CodeOK              = 0
	CodeInvalidParam    = 40000
	CodeUnauthorized    = 40100
	CodeForbidden       = 40300
	CodeNotFound        = 40400
	CodeConflict        = 40900
	CodeUnprocessable   = 42200
	CodeTooManyRequests = 42900
	CodeInternalError   = 50000
	CodeTimeout         = 50400
)

// Envelope 统一响应体
type Envelope struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// HTTPStatusFromCode 由业务错误码推导 HTTP 状态码
func HTTPStatusFromCode(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnprocessable:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON 写出任意 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK 写出成功响应
func OK(w http.ResponseWriter, data interface{}, requestID, traceID string) {
	WriteJSON(w, http.StatusOK, Envelope{
		Code:      CodeOK,
		Message:   "ok",
		Data:      data,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// Created 写出 201 响应
func Created(w http.ResponseWriter, data interface{}, requestID, traceID string) {
	WriteJSON(w, http.StatusCreated, Envelope{
		Code:      CodeOK,
		Message:   "created",
		Data:      data,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// Error 写出错误响应
func Error(w http.ResponseWriter, status, code int, message, requestID, traceID string) {
	WriteJSON(w, status, Envelope{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		TraceID:   traceID,
	})
}
