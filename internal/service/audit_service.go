package service

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/project-portal/internal/events"
)

// AuditService writes authentication events to the log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handle(zapcore.InfoLevel))
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handle(zapcore.WarnLevel))
	a.dispatcher.Subscribe(events.EventLoginThrottled, a.handle(zapcore.WarnLevel))
	a.dispatcher.Subscribe(events.EventTokensRefreshed, a.handle(zapcore.InfoLevel))
	a.dispatcher.Subscribe(events.EventLoggedOut, a.handle(zapcore.InfoLevel))
}

func (a *AuditService) handle(level zapcore.Level) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.String("principal", event.Actor.PrincipalName),
			zap.Time("at", event.Timestamp),
		}
		if event.Actor.SubjectID != "" {
			fields = append(fields, zap.String("subject_id", event.Actor.SubjectID))
		}
		if event.Actor.Role != "" {
			fields = append(fields, zap.String("role", string(event.Actor.Role)))
		}
		if event.Payload != nil {
			fields = append(fields, zap.Any("payload", event.Payload))
		}
		a.logger.Log(level, string(event.Type), fields...)
		return nil
	}
}
