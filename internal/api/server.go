package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anmol2673/insta-api/internal/api/auth"
	"github.com/anmol2673/insta-api/internal/api/middleware"
	"github.com/anmol2673/insta-api/internal/config"
	"github.com/anmol2673/insta-api/internal/model"
	"github.com/anmol2673/insta-api/internal/pkg/describe"
	"github.com/anmol2673/insta-api/internal/pkg/metrics"
	"github.com/anmol2673/insta-api/internal/pkg/notify"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、认证 Handler、图片存储与视觉模型客户端。
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *gorm.DB
	router     *gin.Engine
	auth       *auth.Handler
	imageStore ImageStore
	describer  Describer
}

// ImageStore 抽象图片与描述记录的持久化。
type ImageStore interface {
	CreateImage(ctx context.Context, img *model.Image) error
	LatestImage(ctx context.Context) (*model.Image, error)
	CreateDescription(ctx context.Context, d *model.ImageDescription) error
	ListDescriptions(ctx context.Context) ([]model.ImageDescription, error)
}

// Describer 抽象图片描述生成。
type Describer interface {
	Describe(ctx context.Context, model string, imageURL string) (string, error)
}

type dbImageStore struct {
	db *gorm.DB
}

func (s dbImageStore) CreateImage(ctx context.Context, img *model.Image) error {
	return s.db.WithContext(ctx).Create(img).Error
}

func (s dbImageStore) LatestImage(ctx context.Context) (*model.Image, error) {
	var img model.Image
	if err := s.db.WithContext(ctx).Order("id DESC").First(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

func (s dbImageStore) CreateDescription(ctx context.Context, d *model.ImageDescription) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s dbImageStore) ListDescriptions(ctx context.Context) ([]model.ImageDescription, error) {
	descriptions := []model.ImageDescription{}
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&descriptions).Error; err != nil {
		return nil, err
	}
	return descriptions, nil
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移
// 2. 准备上传目录
// 3. 初始化邮件、视觉模型客户端与 Gin 路由引擎
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent), // 关闭GORM调试日志
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(&model.User{}, &model.Image{}, &model.ImageDescription{}); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	mailer := notify.NewEmailNotifier(&cfg.Email, logger)
	describer := describe.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, logger)

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.MaxMultipartMemory = cfg.Upload.MaxSizeMB << 20

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		router:     r,
		auth:       auth.NewHandler(db, cfg.Security.JWTSecret, cfg.Security.RevealUnknownEmail, mailer, logger),
		imageStore: dbImageStore{db: db},
		describer:  describer,
	}
	s.registerRoutes()
	return s, nil
}

// Run 启动 HTTP 服务器并开始监听请求。
func (s *Server) Run() error {
	s.logger.Info("api server listening", slog.String("addr", s.cfg.App.HTTPAddr))
	return s.router.Run(s.cfg.App.HTTPAddr)
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库连接。
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	// 上传的图片直接静态伺服
	s.router.Static("/uploads", s.cfg.Upload.Dir)

	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/healthz", s.handleHealthz)

	s.router.POST("/api/register", s.auth.Register)
	s.router.POST("/login", s.auth.Login)
	s.router.POST("/forget-password", s.auth.ForgotPassword)
	s.router.POST("/reset-password", s.auth.ResetPassword)

	s.router.POST("/api/generate", s.handleGenerate)
	s.router.POST("/api/generate-description", s.handleGenerateDescription)
	s.router.POST("/save", s.handleSaveDescription)
	s.router.GET("/api/images", s.handleListImages)

	authed := s.router.Group("/")
	authed.Use(middleware.AuthMiddleware(s.cfg.Security.JWTSecret))
	authed.POST("/logout", s.auth.Logout)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
