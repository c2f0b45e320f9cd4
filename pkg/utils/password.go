package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword 加盐单向哈希；cost 越界时回退 bcrypt 默认值
func HashPassword(pw string, cost int) string {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), cost)
	return string(b)
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
