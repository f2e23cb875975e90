package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// 参数沿用 argon2id 的推荐配置（64 MiB，3 轮）。
const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 1
	keyLen      = 32
	saltLen     = 16
)

// NewSalt 生成一个随机盐（base64 编码，入库保存）。
func NewSalt() (string, error) {
	raw := make([]byte, saltLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(raw), nil
}

// Hash 用给定盐对明文密码做 argon2id 摘要。
//
// 盐由调用方单独持久化，同样的 (password, salt) 总是得到同样的摘要。
func Hash(plain, salt string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	dk := argon2.IDKey([]byte(plain), rawSalt, iterations, memory, parallelism, keyLen)
	return base64.RawStdEncoding.EncodeToString(dk), nil
}

// Verify 校验明文密码在给定盐下是否匹配存储的摘要（常量时间比较）。
func Verify(plain, salt, digest string) bool {
	computed, err := Hash(plain, salt)
	if err != nil {
		return false
	}
	stored, err := base64.RawStdEncoding.DecodeString(digest)
	if err != nil {
		return false
	}
	got, err := base64.RawStdEncoding.DecodeString(computed)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, stored) == 1
}
