package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studyhub/internal/core/auth"
	"studyhub/internal/domain"
	"studyhub/internal/service"
	"studyhub/internal/transport/http/ez"
	mdw "studyhub/internal/transport/http/middleware"
)

type APIDeps struct {
	Log   *zap.Logger
	DB    *gorm.DB
	JWTer *auth.JWTer
	Store domain.IdentityStore
	Auth  *service.AuthService
}

func NewAPIEngine(d APIDeps) *gin.Engine {
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
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// 鉴权分组（⚠️ /me、学习内容 必须挂这里）
	authed := api.Group("")
	authed.Use(mdw.Authenticate(d.JWTer, d.Store, d.Log))

	mountAuthActions(api, authed, d)

	// 已注册的业务模块（学习内容 CRUD 等）统一挂到鉴权分组
	MountAllAPI(authed)

	return r
}

// ---------- 认证动作：注册 / 登录 / 找回密码 / 个人资料 ----------

func mountAuthActions(api, authed *gin.RouterGroup, d APIDeps) {
	ezPublic := ez.New(api)

	// POST /auth/register
	type registerIn struct {
		Name      string `json:"name"      binding:"required,max=64"`
		Email     string `json:"email"     binding:"required,email"`
		Password  string `json:"password"  binding:"required"`
		StudentNo string `json:"studentId" binding:"omitempty,max=32"`
	}
	type sessionOut struct {
		User  *domain.Identity `json:"user"`
		Token string           `json:"token"`
	}
	ez.RegisterAction[registerIn, sessionOut](ezPublic, d.DB, ez.Action[registerIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *gorm.DB, in *registerIn) (sessionOut, error) {
			u, tok, err := d.Auth.Register(service.RegisterInput{
				Name:      in.Name,
				Email:     in.Email,
				Password:  in.Password,
				StudentNo: in.StudentNo,
			})
			if err != nil {
				return sessionOut{}, toActionErr(err)
			}
			return sessionOut{User: u, Token: tok}, nil
		},
	})

	// POST /auth/login
	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	ez.RegisterAction[loginIn, sessionOut](ezPublic, d.DB, ez.Action[loginIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *loginIn) (sessionOut, error) {
			u, tok, err := d.Auth.Login(in.Email, in.Password)
			if err != nil {
				return sessionOut{}, toActionErr(err)
			}
			return sessionOut{User: u, Token: tok}, nil
		},
	})

	// POST /auth/forgot-password
	// 验证码直接随响应返回（沿用移动端契约，渠道即保密边界；见 DESIGN.md）
	type forgotIn struct {
		Email string `json:"email" binding:"required,email"`
	}
	type forgotOut struct {
		RecoveryCode string `json:"recoveryCode"`
	}
	ez.RegisterAction[forgotIn, forgotOut](ezPublic, d.DB, ez.Action[forgotIn, forgotOut]{
		Method: http.MethodPost,
		Path:   "/auth/forgot-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *forgotIn) (forgotOut, error) {
			code, err := d.Auth.BeginRecovery(in.Email)
			if err != nil {
				return forgotOut{}, toActionErr(err)
			}
			return forgotOut{RecoveryCode: code}, nil
		},
	})

	// POST /auth/reset-password（单次有效，成功后需重新登录）
	type resetIn struct {
		Email        string `json:"email"        binding:"required,email"`
		RecoveryCode string `json:"recoveryCode" binding:"required"`
		NewPassword  string `json:"newPassword"  binding:"required"`
	}
	ez.RegisterAction[resetIn, gin.H](ezPublic, d.DB, ez.Action[resetIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/reset-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *resetIn) (gin.H, error) {
			if err := d.Auth.CompleteRecovery(in.Email, in.RecoveryCode, in.NewPassword); err != nil {
				return nil, toActionErr(err)
			}
			return gin.H{"reset": true}, nil
		},
	})

	// ---------- 以下需要登录 ----------
	ezAuth := ez.New(authed)

	// GET /me
	ez.RegisterAction[struct{}, *domain.Identity](ezAuth, d.DB, ez.Action[struct{}, *domain.Identity]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.Identity, error) {
			u := mdw.CurrentIdentity(c)
			if u == nil {
				return nil, ez.Unauthorized("unauthorized")
			}
			return u, nil
		},
	})

	// PUT /auth/update-profile
	// 入参里的 identityId 是移动端的既有契约；只允许改自己，指向别人一律 403
	type profileIn struct {
		IdentityID string  `json:"identityId" binding:"omitempty"`
		Name       *string `json:"name"`
		Course     *string `json:"course"`
		Year       *int    `json:"year"`
		Bio        *string `json:"bio"`
	}
	ez.RegisterAction[profileIn, *domain.Identity](ezAuth, d.DB, ez.Action[profileIn, *domain.Identity]{
		Method: http.MethodPut,
		Path:   "/auth/update-profile",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *profileIn) (*domain.Identity, error) {
			me := mdw.CurrentIdentity(c)
			if me == nil {
				return nil, ez.Unauthorized("unauthorized")
			}
			if in.IdentityID != "" && in.IdentityID != me.ID {
				return nil, ez.Forbidden("can only update own profile")
			}
			u, err := d.Auth.UpdateProfile(me.ID, service.ProfileUpdate{
				Name:   in.Name,
				Course: in.Course,
				Year:   in.Year,
				Bio:    in.Bio,
			})
			if err != nil {
				return nil, toActionErr(err)
			}
			return u, nil
		},
	})

	// PUT /auth/change-password（当前口令错 → 401）
	type changePwIn struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword"     binding:"required"`
	}
	ez.RegisterAction[changePwIn, gin.H](ezAuth, d.DB, ez.Action[changePwIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/auth/change-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *changePwIn) (gin.H, error) {
			me := mdw.CurrentIdentity(c)
			if me == nil {
				return nil, ez.Unauthorized("unauthorized")
			}
			if err := d.Auth.ChangePassword(me.ID, in.CurrentPassword, in.NewPassword); err != nil {
				return nil, toActionErr(err)
			}
			return gin.H{"changed": true}, nil
		},
	})
}
