package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studyhub/internal/core/auth"
	"studyhub/internal/domain"
	"studyhub/internal/transport/http/ez"
)

const (
	KeyUserID   = "userId"
	KeyIdentity = "identity"
)

// Authenticate 认证门：Bearer token → 验签 → 回库重查身份。
// token 里不带角色/状态，已删除或已停用的账号拿未过期 token 也会被拒。
// 认证通过后把身份挂到上下文（不含口令哈希），并尽力刷新 last_active_at
func Authenticate(j *auth.JWTer, store domain.IdentityStore, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			abortWith(c, ez.Unauthorized("missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			if err == auth.ErrTokenExpired {
				abortWith(c, ez.Unauthorized("token expired"))
			} else {
				abortWith(c, ez.Unauthorized("invalid token"))
			}
			return
		}

		u, err := store.FindByID(claims.UID)
		if err != nil {
			abortWith(c, ez.Internal("identity lookup failed", err))
			return
		}
		if u == nil {
			// 发 token 之后账号被删
			abortWith(c, ez.Unauthorized("unknown identity"))
			return
		}
		if u.Status == domain.StatusDeactivated {
			abortWith(c, ez.Forbidden("account deactivated"))
			return
		}

		if e := store.TouchLastActive(u.ID, time.Now()); e != nil {
			// 尽力而为，不因此挂掉请求
			l.Debug("touch last_active failed", zap.String("id", u.ID), zap.Error(e))
		}

		c.Set(KeyUserID, u.ID)
		c.Set(KeyIdentity, u)
		c.Next()
	}
}

// RequireRole 授权门：必须排在 Authenticate 之后
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentIdentity(c)
		if u == nil {
			abortWith(c, ez.Unauthorized("unauthorized"))
			return
		}
		for _, r := range roles {
			if u.Role == r {
				c.Next()
				return
			}
		}
		abortWith(c, ez.Forbidden("forbidden"))
	}
}

// CurrentIdentity 取认证门挂上的身份；未认证返回 nil
func CurrentIdentity(c *gin.Context) *domain.Identity {
	v, ok := c.Get(KeyIdentity)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.Identity)
	return u
}

func abortWith(c *gin.Context, err error) {
	ez.WriteError(c, err)
	c.Abort()
}
