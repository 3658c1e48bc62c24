package errors

import "net/http"

// 공통 에러 코드 정의
const (
	ErrInternal           = "INTERNAL"
	ErrNotFound           = "NOT_FOUND"
	ErrInvalidArgument    = "INVALID_ARGUMENT"
	ErrUnauthenticated    = "UNAUTHENTICATED"
	ErrAccountBlocked     = "ACCOUNT_BLOCKED"
	ErrInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	ErrConflict           = "CONFLICT"
)

// 에러 코드별 HTTP 상태 코드
var httpStatusByCode = map[string]int{
	ErrInternal:           http.StatusInternalServerError,
	ErrNotFound:           http.StatusNotFound,
	ErrInvalidArgument:    http.StatusBadRequest,
	ErrUnauthenticated:    http.StatusUnauthorized,
	ErrAccountBlocked:     http.StatusForbidden,
	ErrInsufficientFunds:  http.StatusBadRequest,
	ErrGatewayUnavailable: http.StatusInternalServerError,
	ErrConflict:           http.StatusConflict,
}

// ToHTTPStatus는 에러 코드를 HTTP 상태 코드로 변환합니다
func ToHTTPStatus(code string) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
