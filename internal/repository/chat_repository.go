package repository

import (
	"context"
	"errors"
	"time"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository interface {
	FindOrCreate(ctx context.Context, clientID, workerID string, st workflow.ServiceType) (*model.ChatSession, error)
	FindByPair(ctx context.Context, clientID, workerID string) (*model.ChatSession, error)
	FindByUser(ctx context.Context, uid string) ([]model.ChatSession, error)
	FindByID(ctx context.Context, id uint64) (*model.ChatSession, error)
	UpdateSession(ctx context.Context, id uint64, fields map[string]interface{}) error
	CreateMessage(ctx context.Context, msg *model.Message) error
	FindMessage(ctx context.Context, id uint64) (*model.Message, error)
	ListMessages(ctx context.Context, sessionID uint64) ([]model.Message, error)
	UpdatePurchaseStatusIf(ctx context.Context, msgID uint64, from, to workflow.PurchaseStatus) (int64, error)
	MarkRead(ctx context.Context, sessionID uint64, uid string, at time.Time) error
	UnreadSessions(ctx context.Context, uid string, sessionIDs []uint64) (map[uint64]bool, error)
	SetDB(db *gorm.DB)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// FindOrCreate relies on uniq_chat_triple: when a concurrent insert wins, the
// losing caller reads the winner's row.
func (r *chatRepository) FindOrCreate(ctx context.Context, clientID, workerID string, st workflow.ServiceType) (*model.ChatSession, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	cs := model.ChatSession{ClientID: clientID, WorkerID: workerID, ServiceType: st, Status: workflow.SessionActive}
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND worker_id = ? AND service_type = ?", clientID, workerID, st).
		FirstOrCreate(&cs).Error
	if err == nil {
		return &cs, nil
	}
	var existing model.ChatSession
	if ferr := r.db.WithContext(ctx).
		Where("client_id = ? AND worker_id = ? AND service_type = ?", clientID, workerID, st).
		First(&existing).Error; ferr == nil {
		return &existing, nil
	}
	return nil, err
}

func (r *chatRepository) FindByPair(ctx context.Context, clientID, workerID string) (*model.ChatSession, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cs model.ChatSession
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND worker_id = ?", clientID, workerID).
		Order("updated_at DESC, id DESC").
		First(&cs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (r *chatRepository) FindByUser(ctx context.Context, uid string) ([]model.ChatSession, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.ChatSession
	if err := r.db.WithContext(ctx).
		Where("client_id = ? OR worker_id = ?", uid, uid).
		Order("updated_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *chatRepository) FindByID(ctx context.Context, id uint64) (*model.ChatSession, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cs model.ChatSession
	if err := r.db.WithContext(ctx).First(&cs, id).Error; err != nil {
		return nil, err
	}
	return &cs, nil
}

func (r *chatRepository) UpdateSession(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Model(&model.ChatSession{ID: id}).Updates(fields).Error
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		// bump the session so lists sort by latest activity
		return tx.Model(&model.ChatSession{ID: msg.SessionID}).Update("updated_at", tx.NowFunc()).Error
	})
}

func (r *chatRepository) FindMessage(ctx context.Context, id uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var m model.Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, sessionID uint64) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	msgs := []model.Message{}
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *chatRepository) UpdatePurchaseStatusIf(ctx context.Context, msgID uint64, from, to workflow.PurchaseStatus) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ? AND purchase_request = ? AND purchase_status = ?", msgID, true, from).
		Update("purchase_status", to)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *chatRepository) MarkRead(ctx context.Context, sessionID uint64, uid string, at time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_read_at": at, "updated_at": at}),
	}).Create(&model.ChatReadState{SessionID: sessionID, UID: uid, LastReadAt: at}).Error
}

// UnreadSessions reports which sessions hold a message from someone other than uid
// newer than uid's last read.
func (r *chatRepository) UnreadSessions(ctx context.Context, uid string, sessionIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Table("messages AS m").
		Joins("LEFT JOIN chat_read_states AS s ON s.session_id = m.session_id AND s.uid = ?", uid).
		Where("m.session_id IN ? AND m.sender_uid <> ?", sessionIDs, uid).
		Where("s.last_read_at IS NULL OR m.created_at > s.last_read_at").
		Distinct().
		Pluck("m.session_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
