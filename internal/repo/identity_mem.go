package repo

import (
	"strings"
	"sync"
	"time"

	"studyhub/internal/domain"
)

// IdentityMem 内存版凭据存储：测试和本地起服务用。
// 与 GORM 版遵守同一份契约，包括唯一性错误的语义
type IdentityMem struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Identity
	clock func() time.Time
}

func NewIdentityMem() *IdentityMem {
	return &IdentityMem{
		byID:  make(map[string]*domain.Identity),
		clock: time.Now,
	}
}

var _ domain.IdentityStore = (*IdentityMem)(nil)

func (m *IdentityMem) clone(u *domain.Identity) *domain.Identity {
	cp := *u
	if u.StudentNo != nil {
		v := *u.StudentNo
		cp.StudentNo = &v
	}
	if u.RecoveryCode != nil {
		v := *u.RecoveryCode
		cp.RecoveryCode = &v
	}
	if u.RecoveryExpiry != nil {
		v := *u.RecoveryExpiry
		cp.RecoveryExpiry = &v
	}
	if u.LastActiveAt != nil {
		v := *u.LastActiveAt
		cp.LastActiveAt = &v
	}
	return &cp
}

func (m *IdentityMem) checkUnique(u *domain.Identity) error {
	for _, ex := range m.byID {
		if ex.ID == u.ID {
			continue
		}
		if ex.Email == u.Email {
			return domain.ErrEmailTaken
		}
		if u.StudentNo != nil && ex.StudentNo != nil && *ex.StudentNo == *u.StudentNo {
			return domain.ErrStudentNoTaken
		}
	}
	return nil
}

func (m *IdentityMem) Create(u *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = NormalizeEmail(u.Email)
	if err := m.checkUnique(u); err != nil {
		return err
	}
	now := m.clock()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.byID[u.ID] = m.clone(u)
	return nil
}

func (m *IdentityMem) FindByID(id string) (*domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return m.clone(u), nil
}

func (m *IdentityMem) FindByEmail(email string) (*domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			return m.clone(u), nil
		}
	}
	return nil, nil
}

func (m *IdentityMem) Update(u *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	u.Email = NormalizeEmail(u.Email)
	if err := m.checkUnique(u); err != nil {
		return err
	}
	u.UpdatedAt = m.clock()
	m.byID[u.ID] = m.clone(u)
	return nil
}

func (m *IdentityMem) List(f domain.ListFilter) ([]domain.Identity, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []domain.Identity
	for _, u := range m.byID {
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Search != "" && !matches(u, f.Search) {
			continue
		}
		all = append(all, *m.clone(u))
	}
	total := int64(len(all))
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], total, nil
}

func matches(u *domain.Identity, s string) bool {
	if strings.Contains(u.Email, s) || strings.Contains(u.Name, s) {
		return true
	}
	return u.StudentNo != nil && strings.Contains(*u.StudentNo, s)
}

func (m *IdentityMem) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *IdentityMem) TouchLastActive(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.LastActiveAt = &at
	}
	return nil
}
