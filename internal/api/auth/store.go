package auth

import (
	"context"
	"errors"
	"time"

	"github.com/anmol2673/insta-api/internal/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// gormUserStore 是 UserStore 的 MySQL 实现。
type gormUserStore struct {
	db *gorm.DB
}

func (s gormUserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s gormUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s gormUserStore) Create(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// SetResetCode 只更新验证码相关列，密码列不参与，保存不会重复哈希。
func (s gormUserStore) SetResetCode(ctx context.Context, userID uint, code string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_code":            code,
			"reset_code_expires_at": expiresAt,
		}).Error
}

// ConsumeResetCode 以当前验证码为更新条件，保证单次使用：
// 两个并发请求提交同一个有效验证码时，只有第一个 UPDATE 能匹配到行，
// 第二个 RowsAffected 为 0。密码写入与验证码清除在同一条语句中完成。
func (s gormUserStore) ConsumeResetCode(ctx context.Context, userID uint, code string, newHash string) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND reset_code = ?", userID, code).
		Updates(map[string]interface{}{
			"password":              newHash,
			"reset_code":            "",
			"reset_code_expires_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidOrExpiredCode
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
