package service

import (
	"context"
	"errors"
	"time"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/internal/reqctx"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/gorm"
)

// notFound turns a missing row into a NotFound workflow error and passes anything else through.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.NotFoundf("%s", msg)
	}
	return err
}

// closed turns repository.ErrClosed into an InvalidTransition workflow error.
func closed(err error, msg string) error {
	if errors.Is(err, repository.ErrClosed) {
		return workflow.InvalidTransitionf("%s", msg)
	}
	return err
}

// roleOf derives the caller's role from the participants of an entity.
func roleOf(uid, clientID, workerID string) (workflow.Role, error) {
	switch {
	case uid == "":
		return "", workflow.Forbiddenf("Inicia sesión para continuar")
	case uid == clientID:
		return workflow.RoleClient, nil
	case uid == workerID:
		return workflow.RoleWorker, nil
	default:
		return "", workflow.Forbiddenf("No participas en esta operación")
	}
}

func senderFor(role workflow.Role) workflow.SenderType {
	if role == workflow.RoleWorker {
		return workflow.SenderWorker
	}
	return workflow.SenderClient
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// withShortDeadline bounds best-effort side effects so they cannot stall the main flow.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
}

// ctxLog attaches the request correlation values to log.
func ctxLog(ctx context.Context, log logger.ILogger) logger.ILogger {
	fields := make([]logger.Field, 0, 2)
	if rid := reqctx.RID(ctx); rid != "" {
		fields = append(fields, logger.String("rid", rid))
	}
	if uid := reqctx.UID(ctx); uid != "" {
		fields = append(fields, logger.String("actor", uid))
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}
