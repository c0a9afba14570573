package service

import (
	"context"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

// systemNotes posts workflow events into the chat of a client/worker pair.
type systemNotes struct {
	chats repository.ChatRepository
	log   logger.ILogger
}

// post is best-effort: pairs without a session are skipped, failures only logged.
func (n systemNotes) post(ctx context.Context, clientID, workerID, body string) {
	if n.chats == nil {
		return
	}
	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	cs, err := n.chats.FindByPair(ctx, clientID, workerID)
	if err != nil {
		ctxLog(ctx, n.log).Warning("system message lookup failed", logger.String("client", clientID), logger.String("worker", workerID), logger.Error(err))
		return
	}
	if cs == nil {
		return
	}
	n.postTo(ctx, cs.ID, body)
}

func (n systemNotes) postTo(ctx context.Context, sessionID uint64, body string) {
	msg := &model.Message{SessionID: sessionID, SenderType: workflow.SenderSystem, Body: body}
	if err := n.chats.CreateMessage(ctx, msg); err != nil {
		ctxLog(ctx, n.log).Warning("system message not stored", logger.Uint64("session_id", sessionID), logger.Error(err))
	}
}
