package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// ContactMessage 联系表单内容，不落库
type ContactMessage struct {
	Subject  string
	Message  string
	Sender   string
	CCMyself bool
}

type ContactService interface {
	Send(ctx context.Context, msg *ContactMessage) error
}

type contactService struct{}

func NewContactService() ContactService { return contactService{} }

// Send 目前只记录日志
func (contactService) Send(ctx context.Context, msg *ContactMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("contact message",
		zap.String("subject", msg.Subject),
		zap.String("sender", msg.Sender),
		zap.Bool("cc_myself", msg.CCMyself),
		zap.Int("length", len(msg.Message)),
	)
	return nil
}
