package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ImageUploadTotal 图片上传成功总数。
	ImageUploadTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "instatags_image_upload_total",
		Help: "Total number of images uploaded and stored.",
	})

	// DescriptionRequestTotal 描述生成请求总数。
	DescriptionRequestTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "instatags_description_request_total",
		Help: "Total number of AI description requests.",
	})

	// DescriptionFailedTotal 描述生成失败总数。
	DescriptionFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "instatags_description_failed_total",
		Help: "Total number of failed AI description requests.",
	})

	// ResetCodeIssuedTotal 密码重置验证码签发总数。
	ResetCodeIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "instatags_reset_code_issued_total",
		Help: "Total number of password reset codes issued.",
	})

	// ResetCodeConsumedTotal 密码重置成功（验证码被消费）总数。
	ResetCodeConsumedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "instatags_reset_code_consumed_total",
		Help: "Total number of password reset codes consumed successfully.",
	})

	// ResetMailFailedTotal 重置邮件发送失败总数。
	ResetMailFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "instatags_reset_mail_failed_total",
		Help: "Total number of reset code emails that failed to send.",
	})
)

var registerOnce sync.Once

// InitMetrics 向默认 Registry 注册全部指标。
//
// 可重复调用（测试中多次初始化只注册一次）。
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ImageUploadTotal,
			DescriptionRequestTotal,
			DescriptionFailedTotal,
			ResetCodeIssuedTotal,
			ResetCodeConsumedTotal,
			ResetMailFailedTotal,
		)
	})
}
