package services

import "go.uber.org/zap"

// MailerInterface - отправка писем пользователю.
type MailerInterface interface {
	SendVerificationEmail(to, token string) error
}

// mockMailer пишет письмо в лог вместо реальной отправки.
type mockMailer struct {
	verifyURL string
	logger    *zap.Logger
}

func NewMockMailer(publicURL string, logger *zap.Logger) MailerInterface {
	return &mockMailer{verifyURL: publicURL + "/verify-email?token=", logger: logger}
}

func (m *mockMailer) SendVerificationEmail(to, token string) error {
	m.logger.Info("!!! ИМИТАЦИЯ ОТПРАВКИ EMAIL !!!",
		zap.String("кому", to),
		zap.String("тема", "Confirma tu correo electrónico"),
		zap.String("готовая_ссылка", m.verifyURL+token),
	)
	return nil
}
