package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword 明文密码为空。
	ErrEmptyPassword = errors.New("empty password")
	// ErrHashFormat 存储的哈希已损坏或格式不符。
	ErrHashFormat = errors.New("malformed password hash")
)

// Hash 将明文密码转换为可持久化的 bcrypt 哈希。
//
// 失败时返回错误，绝不退回明文；调用方只在密码值真正变化时调用
// （注册、重置成功），其余保存路径不得重复哈希。
func Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify 校验明文与存储哈希是否匹配。
//
// 格式正确但不匹配返回 (false, nil)；哈希本身损坏返回 ErrHashFormat。
func Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrHashFormat, err)
}
