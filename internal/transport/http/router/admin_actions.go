package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studyhub/internal/domain"
	"studyhub/internal/service"
	"studyhub/internal/transport/http/ez"
)

// MountAdminActions 管理端用户接口集中在这里注册
func MountAdminActions(admin *gin.RouterGroup, d AdminDeps) {
	e := ez.New(admin)

	// --- GET /admin/v1/users 用户列表 ---
	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Search string `form:"search"` // 按 email/name/学号 模糊搜
		Status string `form:"status" binding:"omitempty,oneof=active deactivated"`
		Role   string `form:"role"   binding:"omitempty,oneof=user admin"`
	}
	type listOut struct {
		Users []domain.Identity `json:"users"`
		Count int64             `json:"count"`
	}
	ez.RegisterAction[listQ, listOut](e, d.DB, ez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) (listOut, error) {
			us, total, err := d.Admin.List(domain.ListFilter{
				Search: in.Search,
				Status: in.Status,
				Role:   in.Role,
				Offset: in.Offset,
				Limit:  in.Limit,
			})
			if err != nil {
				return listOut{}, toActionErr(err)
			}
			return listOut{Users: us, Count: total}, nil
		},
	})

	// --- PUT /users/:id/deactivate （目标是 admin → 400） ---
	ez.RegisterAction[struct{}, *domain.Identity](e, d.DB, ez.Action[struct{}, *domain.Identity]{
		Method: http.MethodPut,
		Path:   "/users/:id/deactivate",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.Identity, error) {
			u, err := d.Admin.Deactivate(c.Param("id"))
			if err != nil {
				return nil, toActionErr(err)
			}
			return u, nil
		},
	})

	// --- PUT /users/:id/activate ---
	ez.RegisterAction[struct{}, *domain.Identity](e, d.DB, ez.Action[struct{}, *domain.Identity]{
		Method: http.MethodPut,
		Path:   "/users/:id/activate",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.Identity, error) {
			u, err := d.Admin.Activate(c.Param("id"))
			if err != nil {
				return nil, toActionErr(err)
			}
			return u, nil
		},
	})

	// --- PUT /users/:id 管理端资料编辑（可改邮箱/学号/角色） ---
	type adminEditIn struct {
		Name      *string `json:"name"`
		Email     *string `json:"email" binding:"omitempty,email"`
		StudentNo *string `json:"studentId"`
		Course    *string `json:"course"`
		Year      *int    `json:"year"`
		Bio       *string `json:"bio"`
		Role      *string `json:"role" binding:"omitempty,oneof=user admin"`
	}
	ez.RegisterAction[adminEditIn, *domain.Identity](e, d.DB, ez.Action[adminEditIn, *domain.Identity]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *adminEditIn) (*domain.Identity, error) {
			u, err := d.Admin.UpdateProfile(c.Param("id"), service.AdminProfileUpdate{
				Name:      in.Name,
				Email:     in.Email,
				StudentNo: in.StudentNo,
				Course:    in.Course,
				Year:      in.Year,
				Bio:       in.Bio,
				Role:      in.Role,
			})
			if err != nil {
				return nil, toActionErr(err)
			}
			return u, nil
		},
	})

	// --- DELETE /users/:id 硬删除（目标是 admin → 400） ---
	ez.RegisterAction[struct{}, gin.H](e, d.DB, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			if err := d.Admin.Delete(c.Param("id")); err != nil {
				return nil, toActionErr(err)
			}
			return gin.H{"id": c.Param("id")}, nil
		},
	})
}
