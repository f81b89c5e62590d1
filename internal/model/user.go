package model

import "time"

// User 表示系统用户。
//
// ResetCode 与 ResetCodeExpiresAt 要么同时存在（有待处理的密码重置），
// 要么同时为空；成功重置密码时两者必须在同一次更新中清除。
type User struct {
	ID                 uint       `gorm:"primaryKey"`                                        // 用户 ID
	Username           string     `gorm:"type:varchar(191) COLLATE utf8mb4_bin;uniqueIndex"` // 用户名（唯一，区分大小写）
	Email              string     `gorm:"type:varchar(191);uniqueIndex"`                     // 邮箱（唯一）
	Password           string     `gorm:"not null"`                                          // bcrypt 哈希
	ResetCode          string     `gorm:"type:varchar(16)"`                                  // 密码重置验证码
	ResetCodeExpiresAt *time.Time // 验证码过期时间
	CreatedAt          time.Time  // 创建时间
}
