package errors

import (
	"go.uber.org/zap"
)

// Fields는 에러 체인에서 로그 필드(error, error_code, cause)를 추출합니다
func Fields(err error) []zap.Field {
	if err == nil {
		return nil
	}

	fields := []zap.Field{zap.Error(err)}

	var appErr *AppError
	if As(err, &appErr) {
		fields = append(fields, zap.String("error_code", appErr.Code()))
		if appErr.err != nil {
			fields = append(fields, zap.NamedError("cause", appErr.err))
		}
	}
	return fields
}

// LogError는 에러를 구조화된 로그로 기록합니다. 서버 에러 코드가 아니면 warn 으로 기록합니다
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	all := append(Fields(err), fields...)
	if ToHTTPStatus(CodeOf(err)) < 500 {
		logger.Warn(msg, all...)
		return
	}
	logger.Error(msg, all...)
}
