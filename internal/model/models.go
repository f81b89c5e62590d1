package model

import (
	"time"
)

// Image 表示一次图片上传及其表单元数据。
//
// ImagePath 是 uploads 目录内的文件名，ImageURL 是对外可访问的完整链接。
type Image struct {
	ID        uint      `gorm:"primaryKey"` // 内部 ID
	CreatedAt time.Time // 上传时间

	ImagePath   string `gorm:"type:varchar(191);not null"` // 存储文件名
	ImageURL    string `gorm:"not null"`                   // 完整访问链接
	Language    string // 描述语言
	Tags        int    // 期望标签数量
	Keywords    string // 关键词
	Model       string `gorm:"type:varchar(64)"` // 指定的视觉模型
	Description string `gorm:"type:text"`        // 用户填写的描述
}

// ImageDescription 表示 AI 生成并被用户保存的图片描述。
type ImageDescription struct {
	ID        uint      `gorm:"primaryKey"` // 内部 ID
	CreatedAt time.Time // 保存时间

	ImageURL    string `gorm:"not null"`          // 图片链接
	Description string `gorm:"type:text;not null"` // 生成的描述
}
