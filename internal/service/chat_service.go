package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/metrics"
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/datatypes"
)

type ChatService interface {
	FindOrCreate(ctx context.Context, uid, clientID, workerID string, st workflow.ServiceType) (*model.ChatSession, error)
	Search(ctx context.Context, uid, clientID, workerID string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, uid string) ([]model.ChatSession, error)
	SendMessage(ctx context.Context, uid string, sessionID uint64, senderType workflow.SenderType, text string) (*model.Message, error)
	FetchMessages(ctx context.Context, uid string, sessionID uint64, viewer workflow.SenderType) ([]model.Message, error)
	SendPurchaseRequest(ctx context.Context, uid string, sessionID uint64, details workflow.ProductDetails) (*model.Message, error)
	RespondToPurchase(ctx context.Context, uid string, messageID uint64, decision workflow.PurchaseStatus) (*model.Message, error)
	UpdateAgreedPrice(ctx context.Context, uid string, sessionID uint64, price float64) (*model.ChatSession, error)
}

type chatService struct {
	repo   repository.ChatRepository
	notify NotificationService
	notes  systemNotes
	log    logger.ILogger
}

func NewChatService(repo repository.ChatRepository, notify NotificationService, log logger.ILogger) ChatService {
	return &chatService{repo: repo, notify: notify, notes: systemNotes{chats: repo, log: log}, log: log}
}

// FindOrCreate returns the pair's session for st, creating it on first contact. A
// closed session is reopened rather than duplicated.
func (s *chatService) FindOrCreate(ctx context.Context, uid, clientID, workerID string, st workflow.ServiceType) (*model.ChatSession, error) {
	clientID, workerID = strings.TrimSpace(clientID), strings.TrimSpace(workerID)
	if clientID == "" || workerID == "" {
		return nil, workflow.Validationf("Faltan los participantes del chat")
	}
	if clientID == workerID {
		return nil, workflow.Validationf("No puedes chatear contigo mismo")
	}
	if !st.Valid() {
		return nil, workflow.Validationf("Tipo de servicio no válido")
	}
	if _, err := roleOf(uid, clientID, workerID); err != nil {
		return nil, err
	}
	cs, err := s.repo.FindOrCreate(ctx, clientID, workerID, st)
	if err != nil {
		return nil, err
	}
	if !cs.Status.Open() {
		if err := s.repo.UpdateSession(ctx, cs.ID, map[string]interface{}{"status": workflow.SessionActive}); err != nil {
			return nil, err
		}
		cs.Status = workflow.SessionActive
		ctxLog(ctx, s.log).Info("chat session reopened", logger.Uint64("session_id", cs.ID))
	}
	return cs, nil
}

// Search returns the pair's most recent session, or nil when they never talked.
func (s *chatService) Search(ctx context.Context, uid, clientID, workerID string) (*model.ChatSession, error) {
	if clientID == "" || workerID == "" {
		return nil, workflow.Validationf("Faltan los participantes del chat")
	}
	if _, err := roleOf(uid, clientID, workerID); err != nil {
		return nil, err
	}
	return s.repo.FindByPair(ctx, clientID, workerID)
}

func (s *chatService) ListSessions(ctx context.Context, uid string) ([]model.ChatSession, error) {
	list, err := s.repo.FindByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(list))
	for _, cs := range list {
		ids = append(ids, cs.ID)
	}
	unread, err := s.repo.UnreadSessions(ctx, uid, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].HasUnread = unread[list[i].ID]
	}
	return list, nil
}

// participant loads the session and resolves the caller's role in it. A declared
// sender type has to match that role.
func (s *chatService) participant(ctx context.Context, uid string, sessionID uint64, declared workflow.SenderType) (*model.ChatSession, workflow.Role, error) {
	if declared != "" && !declared.Valid() {
		return nil, "", workflow.Validationf("Tipo de remitente no válido")
	}
	cs, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, "", notFound(err, "Chat no encontrado")
	}
	role, err := roleOf(uid, cs.ClientID, cs.WorkerID)
	if err != nil {
		return nil, "", err
	}
	if declared != "" && declared != senderFor(role) {
		return nil, "", workflow.Forbiddenf("No puedes escribir como %s", declared)
	}
	return cs, role, nil
}

func (s *chatService) SendMessage(ctx context.Context, uid string, sessionID uint64, senderType workflow.SenderType, text string) (*model.Message, error) {
	body, err := workflow.NormalizeMessageText(text)
	if err != nil {
		return nil, err
	}
	_, role, err := s.participant(ctx, uid, sessionID, senderType)
	if err != nil {
		return nil, err
	}
	msg := &model.Message{
		SessionID:  sessionID,
		SenderUID:  uid,
		SenderType: senderFor(role),
		Body:       body,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// FetchMessages returns the whole history oldest first and records the caller's read position.
func (s *chatService) FetchMessages(ctx context.Context, uid string, sessionID uint64, viewer workflow.SenderType) ([]model.Message, error) {
	if _, _, err := s.participant(ctx, uid, sessionID, viewer); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	readAt := time.Now().UTC()
	if n := len(msgs); n > 0 && msgs[n-1].CreatedAt.After(readAt) {
		readAt = msgs[n-1].CreatedAt
	}
	if err := s.repo.MarkRead(ctx, sessionID, uid, readAt); err != nil {
		ctxLog(ctx, s.log).Warning("read state not stored", logger.Uint64("session_id", sessionID), logger.Error(err))
	}
	if err := s.notify.MarkBySession(ctx, uid, sessionID); err != nil {
		ctxLog(ctx, s.log).Warning("session notifications not marked read", logger.Uint64("session_id", sessionID), logger.Error(err))
	}
	return msgs, nil
}

func (s *chatService) SendPurchaseRequest(ctx context.Context, uid string, sessionID uint64, details workflow.ProductDetails) (*model.Message, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	_, role, err := s.participant(ctx, uid, sessionID, "")
	if err != nil {
		return nil, err
	}
	if role != workflow.RoleClient {
		return nil, workflow.Forbiddenf("Solo el cliente puede solicitar una compra")
	}
	msg := &model.Message{
		SessionID:       sessionID,
		SenderUID:       uid,
		SenderType:      workflow.SenderClient,
		Body:            details.Summary(),
		PurchaseRequest: true,
		ProductDetails:  datatypes.NewJSONType(details),
		PurchaseStatus:  workflow.PurchasePending,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.RecordTransition("purchase", "", string(workflow.PurchasePending))
	ctxLog(ctx, s.log).Info("purchase requested", logger.Uint64("message_id", msg.ID), logger.Float64("total", details.Total()))
	return msg, nil
}

// RespondToPurchase is the worker's one-way decision on a pending purchase request.
func (s *chatService) RespondToPurchase(ctx context.Context, uid string, messageID uint64, decision workflow.PurchaseStatus) (*model.Message, error) {
	msg, err := s.repo.FindMessage(ctx, messageID)
	if err != nil {
		return nil, notFound(err, "Mensaje no encontrado")
	}
	_, role, err := s.participant(ctx, uid, msg.SessionID, "")
	if err != nil {
		return nil, err
	}
	if role != workflow.RoleWorker {
		return nil, workflow.Forbiddenf("Solo el trabajador puede responder la compra")
	}
	current := msg.PurchaseStatus
	if !msg.PurchaseRequest {
		current = workflow.PurchaseNone
	}
	if err := workflow.CheckPurchaseDecision(current, decision); err != nil {
		if errors.Is(err, workflow.ErrConflict) {
			metrics.RecordConflict("purchase")
		}
		return nil, err
	}
	n, err := s.repo.UpdatePurchaseStatusIf(ctx, messageID, workflow.PurchasePending, decision)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		metrics.RecordConflict("purchase")
		return nil, workflow.Conflictf("La solicitud de compra ya fue respondida")
	}
	msg.PurchaseStatus = decision
	metrics.RecordTransition("purchase", string(workflow.PurchasePending), string(decision))
	ctxLog(ctx, s.log).Info("purchase decided", logger.Uint64("message_id", messageID), logger.String("decision", string(decision)))

	label := "aceptada"
	if decision == workflow.PurchaseRejected {
		label = "rechazada"
	}
	s.notes.postTo(ctx, msg.SessionID, fmt.Sprintf("Compra %s: %s", label, msg.ProductDetails.Data().Name))
	return msg, nil
}

func (s *chatService) UpdateAgreedPrice(ctx context.Context, uid string, sessionID uint64, price float64) (*model.ChatSession, error) {
	if err := workflow.ValidateAgreedPrice(price); err != nil {
		return nil, err
	}
	cs, _, err := s.participant(ctx, uid, sessionID, "")
	if err != nil {
		return nil, err
	}
	if !cs.Status.Open() {
		return nil, workflow.InvalidTransitionf("El chat ya fue cerrado")
	}
	price = workflow.RoundCents(price)
	if err := s.repo.UpdateSession(ctx, sessionID, map[string]interface{}{
		"agreed_price": price,
		"status":       workflow.SessionPriceAgreed,
	}); err != nil {
		return nil, err
	}
	cs.AgreedPrice = &price
	cs.Status = workflow.SessionPriceAgreed
	ctxLog(ctx, s.log).Info("agreed price set", logger.Uint64("session_id", sessionID), logger.Float64("price", price))
	s.notes.postTo(ctx, sessionID, fmt.Sprintf("Precio acordado: $%.2f", price))
	return cs, nil
}
