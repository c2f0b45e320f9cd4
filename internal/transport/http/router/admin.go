package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studyhub/internal/core/auth"
	"studyhub/internal/domain"
	"studyhub/internal/service"
	mdw "studyhub/internal/transport/http/middleware"
)

type AdminDeps struct {
	Log   *zap.Logger
	DB    *gorm.DB
	JWTer *auth.JWTer
	Store domain.IdentityStore
	Admin *service.AdminService
}

func NewAdminEngine(d AdminDeps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(d.Log, true),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	// 管理端 v1：认证门 + admin 角色门
	admin := r.Group("/admin/v1")
	admin.Use(
		mdw.Authenticate(d.JWTer, d.Store, d.Log),
		mdw.RequireRole(domain.RoleAdmin),
	)

	MountAllAdmin(admin)
	MountAdminActions(admin, d)

	return r
}
