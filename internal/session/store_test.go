package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policylens/internal/testutils"
	"policylens/pkg/policytypes"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	testutils.ResetTestCounters()
	return NewStore(capacity, testutils.TestMode(true))
}

func TestStore_CreateSession(t *testing.T) {
	store := newTestStore(t, 20)

	id := store.CreateSession("")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, store.CurrentID())
	assert.Equal(t, 1, store.Len())

	sessions := store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, DefaultPreview, sessions[0].Preview)
	assert.Empty(t, sessions[0].Messages)
}

func TestStore_NewestFirst(t *testing.T) {
	store := newTestStore(t, 20)

	first := store.CreateSession("第一个")
	second := store.CreateSession("第二个")

	sessions := store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, second, sessions[0].ID)
	assert.Equal(t, first, sessions[1].ID)
}

func TestStore_UniqueIDs(t *testing.T) {
	store := newTestStore(t, 20)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		id := store.CreateSession("")
		assert.False(t, seen[id], "duplicate session id %s", id)
		seen[id] = true
	}
}

func TestStore_CapacityEviction(t *testing.T) {
	store := newTestStore(t, 20)

	ids := make([]string, 0, 21)
	for i := 0; i < 21; i++ {
		ids = append(ids, store.CreateSession(""))
	}

	// The 21st creation evicts exactly the oldest; newest stays at index 0.
	assert.Equal(t, 20, store.Len())
	sessions := store.Sessions()
	assert.Equal(t, ids[20], sessions[0].ID)
	assert.Equal(t, ids[1], sessions[19].ID)
	_, err := store.LoadSession(ids[0])
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_RecordExchange(t *testing.T) {
	store := newTestStore(t, 20)
	id := store.CreateSession("")

	store.RecordExchange(id, "这是一个问题", "这是回答")

	sess, err := store.LoadSession(id)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "user", sess.Messages[0].Role)
	assert.Equal(t, "这是一个问题", sess.Messages[0].Content)
	assert.Equal(t, "assistant", sess.Messages[1].Role)
	assert.Equal(t, "这是回答", sess.Messages[1].Content)
	assert.Equal(t, "这是一个问题", sess.Preview)
}

func TestStore_RecordExchange_PreviewTruncation(t *testing.T) {
	store := newTestStore(t, 20)
	id := store.CreateSession("")

	long := strings.Repeat("政", 31)
	store.RecordExchange(id, long, "回答")

	sess, err := store.LoadSession(id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("政", 30)+"...", sess.Preview)

	// Exactly at the budget: no ellipsis.
	exact := strings.Repeat("策", policytypes.MaxPreviewRunes)
	store.RecordExchange(id, exact, "回答")
	sess, err = store.LoadSession(id)
	require.NoError(t, err)
	assert.Equal(t, exact, sess.Preview)
}

func TestStore_RecordExchange_MissingSessionIsNoOp(t *testing.T) {
	store := newTestStore(t, 20)
	store.CreateSession("")

	// Must not panic or create anything.
	store.RecordExchange("session_999", "问题", "回答")
	assert.Equal(t, 1, store.Len())
}

func TestStore_RecordExchange_DoesNotReorder(t *testing.T) {
	store := newTestStore(t, 20)
	older := store.CreateSession("")
	newer := store.CreateSession("")

	store.RecordExchange(older, "晚到的消息", "回答")

	sessions := store.Sessions()
	assert.Equal(t, newer, sessions[0].ID)
	assert.Equal(t, older, sessions[1].ID)
}

func TestStore_DeleteSession(t *testing.T) {
	store := newTestStore(t, 20)
	id := store.CreateSession("")

	store.DeleteSession(id)

	assert.Equal(t, 0, store.Len())
	// Current pointer cleared, nothing auto-selected.
	assert.Empty(t, store.CurrentID())
	_, err := store.LoadSession(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_DeleteSession_NonCurrentKeepsPointer(t *testing.T) {
	store := newTestStore(t, 20)
	first := store.CreateSession("")
	second := store.CreateSession("")

	store.DeleteSession(first)

	assert.Equal(t, second, store.CurrentID())
	assert.Equal(t, 1, store.Len())
}

func TestStore_LoadSession_SetsCurrent(t *testing.T) {
	store := newTestStore(t, 20)
	first := store.CreateSession("")
	store.CreateSession("")

	sess, err := store.LoadSession(first)
	require.NoError(t, err)
	assert.Equal(t, first, sess.ID)
	assert.Equal(t, first, store.CurrentID())
}

func TestStore_LoadSession_ReturnsCopy(t *testing.T) {
	store := newTestStore(t, 20)
	id := store.CreateSession("")
	store.RecordExchange(id, "问题", "回答")

	sess, err := store.LoadSession(id)
	require.NoError(t, err)
	sess.Messages[0].Content = "篡改"
	sess.Preview = "篡改"

	again, err := store.LoadSession(id)
	require.NoError(t, err)
	assert.Equal(t, "问题", again.Messages[0].Content)
	assert.Equal(t, "问题", again.Preview)
}

func TestStore_RecordInterruption(t *testing.T) {
	store := newTestStore(t, 20)
	id := store.CreateSession("")

	store.RecordInterruption(id, "分析这份文件", "已停止生成。")

	sess, err := store.LoadSession(id)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "user", sess.Messages[0].Role)
	assert.Equal(t, "分析这份文件", sess.Messages[0].Content)
	assert.Equal(t, "assistant", sess.Messages[1].Role)
	assert.Equal(t, "已停止生成。", sess.Messages[1].Content)

	// The user's message still drives the preview even without a reply.
	assert.Equal(t, "分析这份文件", sess.Preview)
}

func TestStore_RecordInterruptionMissingSession(t *testing.T) {
	store := newTestStore(t, 20)

	store.RecordInterruption("session_missing", "问题", "已停止生成。")
	assert.Equal(t, 0, store.Len())
}
