package random

import (
	"crypto/rand"
	"math/big"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// String 生成指定长度的字母数字随机串
func String(length int) string {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			result[i] = 'x'
			continue
		}
		result[i] = charset[n.Int64()]
	}
	return string(result)
}

// TimestampedName 带日期前缀的随机串，用作上传文件名
// 格式: YYMMDD + 字母数字混合，例如 241230AbCdE12345
func TimestampedName(length int) string {
	return time.Now().Format("060102") + String(length)
}
