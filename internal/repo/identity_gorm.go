package repo

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"studyhub/internal/domain"
)

type IdentityRepo struct{ db *gorm.DB }

func NewIdentityRepo(db *gorm.DB) *IdentityRepo { return &IdentityRepo{db: db} }

var _ domain.IdentityStore = (*IdentityRepo)(nil)

// NormalizeEmail 邮箱统一小写比较/存储
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *IdentityRepo) Create(u *domain.Identity) error {
	u.Email = NormalizeEmail(u.Email)
	if err := r.db.Create(u).Error; err != nil {
		return r.translateDup(err, u)
	}
	return nil
}

func (r *IdentityRepo) FindByID(id string) (*domain.Identity, error) {
	var u domain.Identity
	err := r.db.First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *IdentityRepo) FindByEmail(email string) (*domain.Identity, error) {
	var u domain.Identity
	err := r.db.First(&u, "email = ?", NormalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *IdentityRepo) Update(u *domain.Identity) error {
	u.Email = NormalizeEmail(u.Email)
	// Save 写全部字段并自动 bump updated_at
	if err := r.db.Save(u).Error; err != nil {
		return r.translateDup(err, u)
	}
	return nil
}

func (r *IdentityRepo) List(f domain.ListFilter) ([]domain.Identity, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	q := r.db.Model(&domain.Identity{})
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("email LIKE ? OR name LIKE ? OR student_no LIKE ?", like, like, like)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var us []domain.Identity
	if err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&us).Error; err != nil {
		return nil, 0, err
	}
	return us, total, nil
}

func (r *IdentityRepo) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Identity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *IdentityRepo) TouchLastActive(id string, at time.Time) error {
	return r.db.Model(&domain.Identity{}).Where("id = ?", id).
		Update("last_active_at", at).Error
}

// translateDup 唯一索引冲突 → 领域错误。
// 不依赖 gorm.ErrDuplicatedKey，避免驱动/版本差异
func (r *IdentityRepo) translateDup(err error, u *domain.Identity) error {
	msg := strings.ToLower(err.Error())
	dup := strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "unique failed")
	if !dup {
		return err
	}
	if strings.Contains(msg, "student_no") {
		return domain.ErrStudentNoTaken
	}
	if strings.Contains(msg, "email") {
		return domain.ErrEmailTaken
	}
	// 冲突列无法从驱动消息判别时按邮箱处理（最常见）
	if u.StudentNo != nil {
		if ex, _ := r.FindByEmail(u.Email); ex == nil || ex.ID == u.ID {
			return domain.ErrStudentNoTaken
		}
	}
	return domain.ErrEmailTaken
}
