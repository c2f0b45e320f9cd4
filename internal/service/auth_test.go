package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studyhub/internal/core/auth"
	"studyhub/internal/domain"
	"studyhub/internal/repo"
)

func newTestAuth(t *testing.T) (*AuthService, *repo.IdentityMem, *auth.JWTer) {
	t.Helper()
	store := repo.NewIdentityMem()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "studyhub", TTL: time.Hour}
	svc := NewAuthService(store, jwter, zap.NewNop(), AuthOpts{
		BcryptCost:         bcrypt.MinCost, // 测试里用最低代价
		RecoveryCodeTTLMin: 15,
	})
	return svc, store, jwter
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	_, _, err := svc.Register(RegisterInput{Name: "", Email: "a@x.com", Password: "secret1"})
	assert.True(t, domain.IsValidation(err))

	_, _, err = svc.Register(RegisterInput{Name: "Ann", Email: "", Password: "secret1"})
	assert.True(t, domain.IsValidation(err))

	_, _, err = svc.Register(RegisterInput{Name: "Ann", Email: "a@x.com", Password: "short"})
	assert.True(t, domain.IsValidation(err), "password below 6 chars must be rejected")
}

func TestRegister_HashNeverPlaintext(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t)

	u, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	stored, err := store.FindByID(u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	_, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Register(RegisterInput{Name: "Bob", Email: "ann@x.com", Password: "secret2"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	// 大小写只在比较口径上折叠
	_, _, err = svc.Register(RegisterInput{Name: "Bob", Email: "ANN@X.COM", Password: "secret2"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// 恰有一个成功，其余全部唯一冲突
	var ok, conflict int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrEmailTaken):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflict)
}

func TestRegister_DuplicateStudentNo(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	_, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1", StudentNo: "S100"})
	require.NoError(t, err)

	_, _, err = svc.Register(RegisterInput{Name: "Bob", Email: "bob@x.com", Password: "secret2", StudentNo: "S100"})
	assert.ErrorIs(t, err, domain.ErrStudentNoTaken)

	// 学号缺省之间不冲突
	_, _, err = svc.Register(RegisterInput{Name: "Cid", Email: "cid@x.com", Password: "secret3"})
	require.NoError(t, err)
	_, _, err = svc.Register(RegisterInput{Name: "Dee", Email: "dee@x.com", Password: "secret4"})
	require.NoError(t, err)
}

func TestLogin_Scenario(t *testing.T) {
	t.Parallel()
	svc, _, jwter := newTestAuth(t)

	reg, tok, err := svc.Register(RegisterInput{Name: "Ann Lee", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	u, tok2, err := svc.Login("ann@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)

	claims, err := jwter.Parse(tok2)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, claims.UID)

	_, _, err = svc.Login("ann@x.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@x.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_Deactivated(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t)

	u, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	got, _ := store.FindByID(u.ID)
	got.Status = domain.StatusDeactivated
	require.NoError(t, store.Update(got))

	_, _, err = svc.Login("ann@x.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrDeactivated)
}

func TestLogin_TouchesLastActive(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t)

	u, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login("ann@x.com", "secret1")
	require.NoError(t, err)

	got, _ := store.FindByID(u.ID)
	require.NotNil(t, got.LastActiveAt)
	assert.WithinDuration(t, time.Now(), *got.LastActiveAt, 5*time.Second)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	u, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(u.ID, "wrong", "newsecret"), domain.ErrInvalidCredentials)
	assert.True(t, domain.IsValidation(svc.ChangePassword(u.ID, "secret1", "tiny")))

	require.NoError(t, svc.ChangePassword(u.ID, "secret1", "newsecret"))
	_, _, err = svc.Login("ann@x.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = svc.Login("ann@x.com", "newsecret")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	u, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	course := "Physics"
	year := 3
	got, err := svc.UpdateProfile(u.ID, ProfileUpdate{Course: &course, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, "Physics", got.Course)
	assert.Equal(t, 3, got.Year)
	assert.Equal(t, "Ann", got.Name, "未提供的字段保持不变")

	empty := ""
	_, err = svc.UpdateProfile(u.ID, ProfileUpdate{Name: &empty})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.UpdateProfile("missing", ProfileUpdate{Course: &course})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecovery_Flow(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t)

	u, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	code, err := svc.BeginRecovery("ann@x.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	got, _ := store.FindByID(u.ID)
	require.NotNil(t, got.RecoveryCode)
	require.NotNil(t, got.RecoveryExpiry)

	require.NoError(t, svc.CompleteRecovery("ann@x.com", code, "brandnew"))

	// 单次有效：清码 + 二次使用失败
	got, _ = store.FindByID(u.ID)
	assert.Nil(t, got.RecoveryCode)
	assert.Nil(t, got.RecoveryExpiry)
	assert.ErrorIs(t, svc.CompleteRecovery("ann@x.com", code, "another1"), domain.ErrRecoveryInvalid)

	// 旧口令失效，新口令可登录，且不自动发会话（调用方需重新登录）
	_, _, err = svc.Login("ann@x.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = svc.Login("ann@x.com", "brandnew")
	assert.NoError(t, err)
}

func TestRecovery_Invalid(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestAuth(t)

	u, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	// 无此邮箱：BeginRecovery 明确 404，CompleteRecovery 归并为无效码
	_, err = svc.BeginRecovery("nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.CompleteRecovery("nobody@x.com", "123456", "brandnew"), domain.ErrRecoveryInvalid)

	code, err := svc.BeginRecovery("ann@x.com")
	require.NoError(t, err)

	// 错码
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, svc.CompleteRecovery("ann@x.com", wrong, "brandnew"), domain.ErrRecoveryInvalid)

	// 过期
	got, _ := store.FindByID(u.ID)
	past := time.Now().Add(-time.Minute)
	got.RecoveryExpiry = &past
	require.NoError(t, store.Update(got))
	assert.ErrorIs(t, svc.CompleteRecovery("ann@x.com", code, "brandnew"), domain.ErrRecoveryInvalid)
}

func TestRecovery_ReissueOverwrites(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	_, _, err := svc.Register(RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	code1, err := svc.BeginRecovery("ann@x.com")
	require.NoError(t, err)
	code2, err := svc.BeginRecovery("ann@x.com")
	require.NoError(t, err)

	// 每个身份同一时刻至多一个有效码
	if code1 != code2 {
		assert.ErrorIs(t, svc.CompleteRecovery("ann@x.com", code1, "brandnew"), domain.ErrRecoveryInvalid)
	}
	assert.NoError(t, svc.CompleteRecovery("ann@x.com", code2, "brandnew"))
}
