package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse는 HTTP 에러 응답 본문입니다
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToHTTPError는 에러를 Echo HTTP 에러로 변환합니다
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return echo.NewHTTPError(ToHTTPStatus(appErr.Code()), appErr.Message())
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		return echoErr
	}

	// 분류되지 않은 에러는 내부 메시지를 노출하지 않습니다
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

// NewHTTPErrorHandler는 모든 에러를 {"error": "..."} 형태로 응답하는 Echo 에러 핸들러를 생성합니다
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		httpErr := ToHTTPError(err)
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}

		if httpErr.Code >= http.StatusInternalServerError {
			LogError(logger, err, "request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", httpErr.Code))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(httpErr.Code)
		} else {
			writeErr = c.JSON(httpErr.Code, ErrorResponse{Error: message})
		}
		if writeErr != nil {
			logger.Warn("failed to write error response", zap.Error(writeErr))
		}
	}
}
