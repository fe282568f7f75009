package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/propmap/internal/logger"
)

func TestQueue_PushDrainOrder(t *testing.T) {
	q := NewQueue(10, logger.New("test"))

	q.Push(Command{Kind: SetViewport}, Command{Kind: Highlight})
	q.Push(Command{Kind: ClearHighlight})

	cmds := q.Drain()
	require.Len(t, cmds, 3)
	assert.Equal(t, SetViewport, cmds[0].Kind)
	assert.Equal(t, Highlight, cmds[1].Kind)
	assert.Equal(t, ClearHighlight, cmds[2].Kind)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{cmds[0].Seq, cmds[1].Seq, cmds[2].Seq})

	assert.Empty(t, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_SequenceContinuesAfterDrain(t *testing.T) {
	q := NewQueue(10, nil)
	q.Push(Command{Kind: SetViewport})
	q.Drain()
	q.Push(Command{Kind: SetViewport})

	cmds := q.Drain()
	require.Len(t, cmds, 1)
	assert.Equal(t, uint64(2), cmds[0].Seq)
}

func TestQueue_DropsOldestWhenFull(t *testing.T) {
	q := NewQueue(2, logger.New("test"))

	q.Push(Command{Kind: AttachOverlay, Region: "a"})
	q.Push(Command{Kind: AttachOverlay, Region: "b"})
	q.Push(Command{Kind: AttachOverlay, Region: "c"})

	cmds := q.Drain()
	require.Len(t, cmds, 2)
	assert.Equal(t, "b", cmds[0].Region)
	assert.Equal(t, "c", cmds[1].Region)
	assert.Equal(t, uint64(1), q.Dropped())
}

func TestQueue_EmptyPushIsNoop(t *testing.T) {
	q := NewQueue(0, nil)
	q.Push()
	assert.Equal(t, 0, q.Len())
	assert.NotNil(t, q.Drain())
}
