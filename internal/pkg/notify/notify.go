package notify

// Mailer 定义密码重置邮件的发送接口。
type Mailer interface {
	// SendResetCode 将重置验证码发送到指定邮箱。
	//
	// 发送失败只代表投递失败，已签发的验证码依旧有效，
	// 调用方不应因此回滚。
	SendResetCode(toEmail string, code string) error
}
