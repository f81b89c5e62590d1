package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anmol2673/insta-api/internal/model"
	"github.com/anmol2673/insta-api/internal/pkg/metrics"
	"github.com/anmol2673/insta-api/internal/pkg/notify"
	"github.com/anmol2673/insta-api/internal/pkg/password"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// 重置验证码的有效期。
const resetCodeTTL = time.Hour

var (
	// ErrNotFound 账户不存在。
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate 用户名或邮箱已被占用。
	ErrDuplicate = errors.New("username or email already exists")
	// ErrInvalidOrExpiredCode 验证码缺失、不匹配或已过期。
	ErrInvalidOrExpiredCode = errors.New("invalid or expired reset code")
)

// UserStore 抽象账户存储，便于在测试中替换。
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	// SetResetCode 整体覆盖当前的验证码与过期时间，旧码立即失效。
	SetResetCode(ctx context.Context, userID uint, code string, expiresAt time.Time) error
	// ConsumeResetCode 在验证码仍然匹配的前提下，一次性写入新密码哈希
	// 并清除验证码与过期时间；验证码已被消费时返回 ErrInvalidOrExpiredCode。
	ConsumeResetCode(ctx context.Context, userID uint, code string, newHash string) error
}

// Handler 提供注册、登录与密码重置接口。
type Handler struct {
	store              UserStore
	mailer             notify.Mailer
	jwtSecret          []byte
	revealUnknownEmail bool
	logger             *slog.Logger
	now                func() time.Time
}

// NewHandler 创建 Auth Handler。
func NewHandler(db *gorm.DB, jwtSecret string, revealUnknownEmail bool, mailer notify.Mailer, logger *slog.Logger) *Handler {
	return &Handler{
		store:              gormUserStore{db: db},
		mailer:             mailer,
		jwtSecret:          []byte(jwtSecret),
		revealUnknownEmail: revealUnknownEmail,
		logger:             logger,
		now:                time.Now,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register 创建新用户。
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// 用户名区分大小写，不做归一化；邮箱统一小写。
	email := strings.TrimSpace(strings.ToLower(req.Email))

	_, err := h.store.FindByUsername(c.Request.Context(), req.Username)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	}
	if !errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	user := model.User{
		Username: req.Username,
		Email:    email,
		Password: hash,
	}
	if err := h.store.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
			return
		}
		if h.logger != nil {
			h.logger.Error("create user failed", slog.String("username", req.Username), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	if h.logger != nil {
		h.logger.Info("user registered", slog.String("username", req.Username), slog.String("email", email))
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user registered successfully"})
}

// Login 校验用户名密码并返回 JWT。
//
// 用户不存在与密码错误返回完全相同的响应，避免探测账号。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && h.logger != nil {
			h.logger.Error("query user failed", slog.String("username", req.Username), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	ok, err := password.Verify(req.Password, user.Password)
	if err != nil {
		// 存储的哈希损坏属于基础设施故障，不能当作密码错误。
		if h.logger != nil {
			h.logger.Error("verify password failed", slog.String("username", req.Username), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verify password failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("sign token failed", slog.String("username", req.Username), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}

	if h.logger != nil {
		h.logger.Info("user logged in", slog.String("username", req.Username))
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Logout 处理注销请求（当前为无状态，直接返回成功）。
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// ForgotPassword 签发密码重置验证码并发送邮件。
//
// 重复请求会整体覆盖上一个验证码；邮件发送失败不回滚已签发的验证码。
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.store.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if h.revealUnknownEmail {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			if h.logger != nil {
				h.logger.Info("reset requested for unknown email", slog.String("email", email))
			}
			c.JSON(http.StatusOK, gin.H{"message": "reset code sent"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	code, err := generateCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate code failed"})
		return
	}
	expiresAt := h.now().Add(resetCodeTTL)

	if err := h.store.SetResetCode(c.Request.Context(), user.ID, code, expiresAt); err != nil {
		if h.logger != nil {
			h.logger.Error("save reset code failed", slog.String("email", email), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save reset code failed"})
		return
	}
	metrics.ResetCodeIssuedTotal.Inc()

	if err := h.mailer.SendResetCode(user.Email, code); err != nil {
		// 验证码已持久化且依旧有效，只报告投递失败。
		metrics.ResetMailFailedTotal.Inc()
		if h.logger != nil {
			h.logger.Warn("send reset email failed", slog.String("email", email), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "send email failed"})
		return
	}

	if h.logger != nil {
		h.logger.Info("reset code sent", slog.String("email", email))
	}
	c.JSON(http.StatusOK, gin.H{"message": "reset code sent"})
}

// ResetPassword 校验验证码并更新密码。
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.store.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if h.revealUnknownEmail {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	if !h.codeValid(user, req.OTP) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
		return
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	// 以当前验证码为条件更新：并发提交同一个码时最多一个成功。
	if err := h.store.ConsumeResetCode(c.Request.Context(), user.ID, user.ResetCode, hash); err != nil {
		if errors.Is(err, ErrInvalidOrExpiredCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
			return
		}
		if h.logger != nil {
			h.logger.Error("reset password failed", slog.String("email", email), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset password failed"})
		return
	}
	metrics.ResetCodeConsumedTotal.Inc()

	if h.logger != nil {
		h.logger.Info("password reset", slog.String("email", email))
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset successful"})
}

// codeValid 校验提交的验证码：存在、完全匹配且未过期。
//
// 到达过期时刻本身即视为过期；比较使用恒定时间，避免按前缀泄露。
func (h *Handler) codeValid(user *model.User, submitted string) bool {
	if user.ResetCode == "" || user.ResetCodeExpiresAt == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user.ResetCode), []byte(submitted)) != 1 {
		return false
	}
	return h.now().Before(*user.ResetCodeExpiresAt)
}

func (h *Handler) issueToken(userID uint) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   fmtUint(userID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// generateCode 从加密随机源生成 6 位十六进制验证码。
func generateCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func fmtUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
