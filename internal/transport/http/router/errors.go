package router

import (
	"errors"

	"studyhub/internal/domain"
	"studyhub/internal/transport/http/ez"
)

// toActionErr 领域错误 → 统一 HTTP 映射，所有受保护路由口径一致
func toActionErr(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsValidation(err):
		return ez.BadRequest(err.Error())
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrStudentNoTaken):
		return ez.Conflict(err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return ez.Unauthorized(err.Error())
	case errors.Is(err, domain.ErrDeactivated):
		return ez.Forbidden(err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return ez.NotFound(err.Error())
	case errors.Is(err, domain.ErrAdminProtected),
		errors.Is(err, domain.ErrRecoveryInvalid):
		return ez.BadRequest(err.Error())
	default:
		return ez.Internal("internal error", err)
	}
}
