package service

import (
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"

	"studyhub/internal/core/auth"
	"studyhub/internal/domain"
	"studyhub/pkg/utils"
)

// AuthService 注册 / 登录 / 改密 / 找回密码。
// 明文口令只在本层短暂存在，哈希后落库。
type AuthService struct {
	store domain.IdentityStore
	jwter *auth.JWTer
	log   *zap.Logger

	bcryptCost     int
	recoveryTTL    time.Duration
	recoveryDigits int
}

type AuthOpts struct {
	BcryptCost         int
	RecoveryCodeTTLMin int
	RecoveryCodeDigits int
}

func NewAuthService(store domain.IdentityStore, jwter *auth.JWTer, log *zap.Logger, o AuthOpts) *AuthService {
	if o.RecoveryCodeTTLMin <= 0 {
		o.RecoveryCodeTTLMin = 15
	}
	if o.RecoveryCodeDigits <= 0 {
		o.RecoveryCodeDigits = 6
	}
	return &AuthService{
		store:          store,
		jwter:          jwter,
		log:            log,
		bcryptCost:     o.BcryptCost,
		recoveryTTL:    time.Duration(o.RecoveryCodeTTLMin) * time.Minute,
		recoveryDigits: o.RecoveryCodeDigits,
	}
}

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	StudentNo string // 可选
}

// Register 创建身份并签发会话。邮箱/学号唯一冲突由唯一索引兜底，
// 并发注册同邮箱恰有一个成功。
func (s *AuthService) Register(in RegisterInput) (*domain.Identity, string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, "", domain.Invalid("name and email are required")
	}
	if len(in.Password) < domain.MinPasswordLen {
		return nil, "", domain.Invalid("password must be at least 6 characters")
	}

	u := &domain.Identity{
		ID:           utils.NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: utils.HashPassword(in.Password, s.bcryptCost),
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
	}
	if sn := strings.TrimSpace(in.StudentNo); sn != "" {
		u.StudentNo = &sn
	}
	if err := s.store.Create(u); err != nil {
		return nil, "", err
	}

	tok, err := s.jwter.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("identity registered", zap.String("id", u.ID))
	return u, tok, nil
}

// Login 校验凭据并签发会话；同时刷新 last_active_at
func (s *AuthService) Login(email, password string) (*domain.Identity, string, error) {
	u, err := s.store.FindByEmail(email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}
	if u.Status == domain.StatusDeactivated {
		return nil, "", domain.ErrDeactivated
	}

	tok, err := s.jwter.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	now := time.Now()
	if e := s.store.TouchLastActive(u.ID, now); e != nil {
		s.log.Warn("touch last_active failed", zap.String("id", u.ID), zap.Error(e))
	} else {
		u.LastActiveAt = &now
	}
	return u, tok, nil
}

// ChangePassword 需验证当前口令；错误口令返回 ErrInvalidCredentials（401）
func (s *AuthService) ChangePassword(id, current, newPassword string) error {
	if len(newPassword) < domain.MinPasswordLen {
		return domain.Invalid("password must be at least 6 characters")
	}
	u, err := s.store.FindByID(id)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrNotFound
	}
	if !utils.CheckPassword(current, u.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	u.PasswordHash = utils.HashPassword(newPassword, s.bcryptCost)
	return s.store.Update(u)
}

// ProfileUpdate 本人可改字段；nil 表示不改
type ProfileUpdate struct {
	Name   *string
	Course *string
	Year   *int
	Bio    *string
}

func (s *AuthService) UpdateProfile(id string, p ProfileUpdate) (*domain.Identity, error) {
	u, err := s.store.FindByID(id)
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
	if p.Course != nil {
		u.Course = *p.Course
	}
	if p.Year != nil {
		u.Year = *p.Year
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if err := s.store.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

// BeginRecovery 发找回密码验证码，覆盖该身份上已有的未用验证码。
// 验证码直接随响应返回是沿用移动端的既有契约（渠道即保密边界），
// 接邮件/短信时只需替换 handler 的出口。
func (s *AuthService) BeginRecovery(email string) (string, error) {
	u, err := s.store.FindByEmail(email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", domain.ErrNotFound
	}
	code := utils.NumericCode(s.recoveryDigits)
	exp := time.Now().Add(s.recoveryTTL)
	u.RecoveryCode = &code
	u.RecoveryExpiry = &exp
	if err := s.store.Update(u); err != nil {
		return "", err
	}
	s.log.Info("recovery code issued", zap.String("id", u.ID))
	return code, nil
}

// CompleteRecovery 单次有效：成功即清码，不自动发会话。
// 无此邮箱 / 码不匹配 / 已过期 统一返回 ErrRecoveryInvalid
func (s *AuthService) CompleteRecovery(email, code, newPassword string) error {
	if len(newPassword) < domain.MinPasswordLen {
		return domain.Invalid("password must be at least 6 characters")
	}
	u, err := s.store.FindByEmail(email)
	if err != nil {
		return err
	}
	if u == nil || u.RecoveryCode == nil || u.RecoveryExpiry == nil {
		return domain.ErrRecoveryInvalid
	}
	if subtle.ConstantTimeCompare([]byte(*u.RecoveryCode), []byte(code)) != 1 {
		return domain.ErrRecoveryInvalid
	}
	if time.Now().After(*u.RecoveryExpiry) {
		return domain.ErrRecoveryInvalid
	}

	u.PasswordHash = utils.HashPassword(newPassword, s.bcryptCost)
	u.RecoveryCode = nil
	u.RecoveryExpiry = nil
	if err := s.store.Update(u); err != nil {
		return err
	}
	s.log.Info("password reset completed", zap.String("id", u.ID))
	return nil
}
