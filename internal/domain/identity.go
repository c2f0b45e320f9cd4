package domain

import "time"

// 角色 / 状态取值
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive      = "active"
	StatusDeactivated = "deactivated"
)

// MinPasswordLen 明文口令最短长度（入库前校验）
const MinPasswordLen = 6

// Identity 用户身份记录。PasswordHash 永不出 JSON；
// StudentNo 可空，非空时全局唯一（空值之间不冲突）。
type Identity struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Email        string  `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string  `gorm:"size:64;not null" json:"name"`
	PasswordHash string  `gorm:"size:191;not null" json:"-"`
	StudentNo    *string `gorm:"uniqueIndex;size:32" json:"studentId,omitempty"`
	Role         string  `gorm:"size:16;not null;default:user" json:"role"`
	Status       string  `gorm:"size:16;not null;default:active" json:"status"`

	Course string `gorm:"size:64" json:"course,omitempty"`
	Year   int    `json:"year,omitempty"`
	Bio    string `gorm:"size:512" json:"bio,omitempty"`

	// 找回密码流程进行中才非空；重置成功或覆盖发码时清空
	RecoveryCode   *string    `gorm:"size:16" json:"-"`
	RecoveryExpiry *time.Time `json:"-"`

	LastActiveAt *time.Time `json:"lastActiveAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Identity) TableName() string { return "identities" }

// IsAdmin 管理员账号受保护：不可停用、不可删除
func (u *Identity) IsAdmin() bool { return u.Role == RoleAdmin }

// ListFilter 管理端用户列表筛选
type ListFilter struct {
	Search string // email/name/student_no 模糊
	Status string
	Role   string
	Offset int
	Limit  int
}

// IdentityStore 凭据存储。唯一性由底层唯一索引保证：
// 并发同邮箱注册恰有一个成功，另一个得 ErrEmailTaken。
type IdentityStore interface {
	Create(u *Identity) error
	FindByID(id string) (*Identity, error)
	FindByEmail(email string) (*Identity, error)
	Update(u *Identity) error
	List(f ListFilter) ([]Identity, int64, error)
	Delete(id string) error
	// TouchLastActive 尽力而为，失败不影响请求
	TouchLastActive(id string, at time.Time) error
}
