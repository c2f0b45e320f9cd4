package service

import (
	"strings"

	"go.uber.org/zap"

	"studyhub/internal/domain"
)

// AdminService 管理端账号生命周期。
// 不变式：role=admin 的账号不可停用、不可删除
type AdminService struct {
	store domain.IdentityStore
	log   *zap.Logger
}

func NewAdminService(store domain.IdentityStore, log *zap.Logger) *AdminService {
	return &AdminService{store: store, log: log}
}

func (s *AdminService) List(f domain.ListFilter) ([]domain.Identity, int64, error) {
	return s.store.List(f)
}

func (s *AdminService) Deactivate(targetID string) (*domain.Identity, error) {
	u, err := s.store.FindByID(targetID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	if u.IsAdmin() {
		return nil, domain.ErrAdminProtected
	}
	if u.Status == domain.StatusDeactivated {
		return u, nil // 幂等
	}
	u.Status = domain.StatusDeactivated
	if err := s.store.Update(u); err != nil {
		return nil, err
	}
	s.log.Info("identity deactivated", zap.String("id", u.ID))
	return u, nil
}

// Activate 反向无需保护，无条件置回 active
func (s *AdminService) Activate(targetID string) (*domain.Identity, error) {
	u, err := s.store.FindByID(targetID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	if u.Status == domain.StatusActive {
		return u, nil
	}
	u.Status = domain.StatusActive
	if err := s.store.Update(u); err != nil {
		return nil, err
	}
	s.log.Info("identity activated", zap.String("id", u.ID))
	return u, nil
}

func (s *AdminService) Delete(targetID string) error {
	u, err := s.store.FindByID(targetID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrNotFound
	}
	if u.IsAdmin() {
		return domain.ErrAdminProtected
	}
	if err := s.store.Delete(targetID); err != nil {
		return err
	}
	s.log.Info("identity deleted", zap.String("id", targetID))
	return nil
}

// AdminProfileUpdate 管理端可改字段超集（含邮箱/学号/角色）
type AdminProfileUpdate struct {
	Name      *string
	Email     *string
	StudentNo *string // 传空串表示清除学号
	Course    *string
	Year      *int
	Bio       *string
	Role      *string
}

func (s *AdminService) UpdateProfile(targetID string, p AdminProfileUpdate) (*domain.Identity, error) {
	u, err := s.store.FindByID(targetID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, domain.Invalid("name must not be empty")
		}
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		if strings.TrimSpace(*p.Email) == "" {
			return nil, domain.Invalid("email must not be empty")
		}
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.StudentNo != nil {
		if sn := strings.TrimSpace(*p.StudentNo); sn == "" {
			u.StudentNo = nil
		} else {
			u.StudentNo = &sn
		}
	}
	if p.Course != nil {
		u.Course = *p.Course
	}
	if p.Year != nil {
		u.Year = *p.Year
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Role != nil {
		switch *p.Role {
		case domain.RoleUser, domain.RoleAdmin:
			u.Role = *p.Role
		default:
			return nil, domain.Invalid("role must be user or admin")
		}
	}
	// 邮箱/学号改动的唯一性复核交给唯一索引，冲突由 store 译成领域错误
	if err := s.store.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}
