package domain

import "errors"

var (
	ErrNotFound           = errors.New("identity not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrStudentNoTaken     = errors.New("student id already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminProtected     = errors.New("operation not allowed on admin account")
	ErrDeactivated        = errors.New("account deactivated")
	// 找回密码：无此邮箱 / 码不匹配 / 已过期 统一归并，避免枚举注册邮箱
	ErrRecoveryInvalid = errors.New("invalid or expired recovery code")
)

// ValidationError 入参缺失或格式不合法（HTTP 400）
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(msg string) error { return &ValidationError{Msg: msg} }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
