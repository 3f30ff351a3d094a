package config

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	PathPrefix       string
}

// Общий набор типов для вложений тикетов и сообщений
var attachmentMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

const (
	UploadTicketAttachment  = "ticket_attachment"
	UploadMessageAttachment = "message_attachment"
)

var UploadContexts = map[string]UploadConfig{
	UploadTicketAttachment: {
		AllowedMimeTypes: attachmentMimeTypes,
		MaxSizeMB:        10,
		PathPrefix:       "tickets",
	},
	UploadMessageAttachment: {
		AllowedMimeTypes: attachmentMimeTypes,
		MaxSizeMB:        10,
		PathPrefix:       "messages",
	},
}

const (
	BucketTicketAttachments  = "ticket-attachments"
	BucketMessageAttachments = "message-attachments"
)

// BucketContexts сопоставляет бакет хранилища с правилами загрузки.
var BucketContexts = map[string]string{
	BucketTicketAttachments:  UploadTicketAttachment,
	BucketMessageAttachments: UploadMessageAttachment,
}
