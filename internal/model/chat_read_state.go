package model

import "time"

// ChatReadState is the last time a participant fetched a session's messages.
type ChatReadState struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	SessionID  uint64    `gorm:"column:session_id;uniqueIndex:uniq_session_uid"`
	UID        string    `gorm:"column:uid;size:128;uniqueIndex:uniq_session_uid"`
	LastReadAt time.Time `gorm:"column:last_read_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (ChatReadState) TableName() string {
	return "chat_read_states"
}
