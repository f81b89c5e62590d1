package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/anmol2673/insta-api/internal/model"
	"github.com/anmol2673/insta-api/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 视觉模型调用的超时上限。
const describeTimeout = 60 * time.Second

// handleGenerate 处理图片上传与表单元数据。
//
// POST /api/generate (multipart/form-data)
func (s *Server) handleGenerate(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image uploaded"})
		return
	}

	language := c.PostForm("language")
	keywords := c.PostForm("keywords")
	modelName := c.PostForm("model")
	description := c.PostForm("description")
	tags, _ := strconv.Atoi(c.PostForm("tags"))

	// uuid 文件名避免并发上传互相覆盖
	filename := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	dst := filepath.Join(s.cfg.Upload.Dir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		if s.logger != nil {
			s.logger.Error("save uploaded file failed", slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}

	imageURL := strings.TrimSuffix(s.cfg.App.BaseURL, "/") + "/uploads/" + filename

	img := model.Image{
		ImagePath:   filename,
		ImageURL:    imageURL,
		Language:    language,
		Tags:        tags,
		Keywords:    keywords,
		Model:       modelName,
		Description: description,
	}
	if err := s.imageStore.CreateImage(c.Request.Context(), &img); err != nil {
		if s.logger != nil {
			s.logger.Error("save image record failed", slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save image failed"})
		return
	}
	metrics.ImageUploadTotal.Inc()

	if s.logger != nil {
		s.logger.Info("image uploaded", slog.String("path", filename), slog.String("url", imageURL))
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "form data received",
		"data": gin.H{
			"language":    language,
			"tags":        tags,
			"keywords":    keywords,
			"model":       modelName,
			"image":       imageURL,
			"description": description,
		},
		"imagePath": filename,
	})
}

type generateDescriptionRequest struct {
	Model    string `json:"model"`
	ImageURL string `json:"image_url"`
}

// handleGenerateDescription 请求视觉模型生成图片描述。
//
// image_url 为空时回退到最近一次上传的图片记录，
// 不依赖任何进程级共享状态。
func (s *Server) handleGenerateDescription(c *gin.Context) {
	var req generateDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		img, err := s.imageStore.LatestImage(c.Request.Context())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "no uploaded image to describe"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query image failed"})
			return
		}
		imageURL = img.ImageURL
	}

	metrics.DescriptionRequestTotal.Inc()

	ctx, cancel := context.WithTimeout(c.Request.Context(), describeTimeout)
	defer cancel()

	description, err := s.describer.Describe(ctx, req.Model, imageURL)
	if err != nil {
		metrics.DescriptionFailedTotal.Inc()
		if s.logger != nil {
			s.logger.Error("generate description failed", slog.String("image_url", imageURL), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate description failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "image description generated successfully",
		"description": description,
	})
}

type saveDescriptionRequest struct {
	ImageURL    string `json:"imageUrl" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// handleSaveDescription 保存一条图片描述记录。
//
// POST /save
func (s *Server) handleSaveDescription(c *gin.Context) {
	var req saveDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record := model.ImageDescription{
		ImageURL:    req.ImageURL,
		Description: req.Description,
	}
	if err := s.imageStore.CreateDescription(c.Request.Context(), &record); err != nil {
		if s.logger != nil {
			s.logger.Error("save description failed", slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save description failed"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// handleListImages 返回全部已保存的图片描述。
//
// GET /api/images
func (s *Server) handleListImages(c *gin.Context) {
	descriptions, err := s.imageStore.ListDescriptions(c.Request.Context())
	if err != nil {
		if s.logger != nil {
			s.logger.Error("list images failed", slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list images failed"})
		return
	}
	c.JSON(http.StatusOK, descriptions)
}
