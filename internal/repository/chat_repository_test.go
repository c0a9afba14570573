package repository

import (
	"context"
	"testing"
	"time"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/testutil"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatFindOrCreate(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	ctx := context.Background()

	a, err := repo.FindOrCreate(ctx, "c1", "w1", workflow.ServiceMechanic)
	require.NoError(t, err)
	b, err := repo.FindOrCreate(ctx, "c1", "w1", workflow.ServiceMechanic)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, workflow.SessionActive, b.Status)

	none, err := repo.FindByPair(ctx, "c1", "w9")
	require.NoError(t, err)
	assert.Nil(t, none)

	list, err := repo.FindByUser(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateMessageBumpsSession(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	ctx := context.Background()
	older, err := repo.FindOrCreate(ctx, "c1", "w1", workflow.ServiceMechanic)
	require.NoError(t, err)
	_, err = repo.FindOrCreate(ctx, "c1", "w1", workflow.ServiceCrane)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.CreateMessage(ctx, &model.Message{SessionID: older.ID, SenderUID: "c1", SenderType: workflow.SenderClient, Body: "hola"}))

	latest, err := repo.FindByPair(ctx, "c1", "w1")
	require.NoError(t, err)
	assert.Equal(t, older.ID, latest.ID)
}

func TestUnreadSessions(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	ctx := context.Background()
	s1, err := repo.FindOrCreate(ctx, "c1", "w1", workflow.ServiceMechanic)
	require.NoError(t, err)
	s2, err := repo.FindOrCreate(ctx, "c1", "w2", workflow.ServiceMechanic)
	require.NoError(t, err)

	require.NoError(t, repo.CreateMessage(ctx, &model.Message{SessionID: s1.ID, SenderUID: "w1", SenderType: workflow.SenderWorker, Body: "listo"}))
	require.NoError(t, repo.CreateMessage(ctx, &model.Message{SessionID: s2.ID, SenderUID: "c1", SenderType: workflow.SenderClient, Body: "hola"}))

	unread, err := repo.UnreadSessions(ctx, "c1", []uint64{s1.ID, s2.ID})
	require.NoError(t, err)
	assert.True(t, unread[s1.ID])
	assert.False(t, unread[s2.ID])

	require.NoError(t, repo.MarkRead(ctx, s1.ID, "c1", time.Now().UTC().Add(time.Second)))
	require.NoError(t, repo.MarkRead(ctx, s1.ID, "c1", time.Now().UTC().Add(time.Second)), "upsert")
	unread, err = repo.UnreadSessions(ctx, "c1", []uint64{s1.ID, s2.ID})
	require.NoError(t, err)
	assert.Empty(t, unread)

	unread, err = repo.UnreadSessions(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestUpdatePurchaseStatusIf(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	ctx := context.Background()
	s, err := repo.FindOrCreate(ctx, "c1", "w1", workflow.ServiceParts)
	require.NoError(t, err)
	msg := &model.Message{SessionID: s.ID, SenderUID: "c1", SenderType: workflow.SenderClient, Body: "compra", PurchaseRequest: true, PurchaseStatus: workflow.PurchasePending}
	require.NoError(t, repo.CreateMessage(ctx, msg))

	n, err := repo.UpdatePurchaseStatusIf(ctx, msg.ID, workflow.PurchasePending, workflow.PurchaseRejected)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.UpdatePurchaseStatusIf(ctx, msg.ID, workflow.PurchasePending, workflow.PurchaseAccepted)
	require.NoError(t, err)
	assert.Zero(t, n)
}
