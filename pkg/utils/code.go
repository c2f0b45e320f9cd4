package utils

import (
	"crypto/rand"
	"math/big"
)

// NumericCode 生成定长数字验证码（找回密码用，人工可输入）
func NumericCode(digits int) string {
	if digits <= 0 {
		digits = 6
	}
	max := big.NewInt(10)
	buf := make([]byte, digits)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand 失败说明系统熵源不可用，直接 panic
			panic(err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf)
}
