package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitStroke(t *testing.T) {
	b := New()
	b.BeginStroke(ToolPen, "#000000", 2, 0, 0)
	b.AppendPoint(5, 5)
	b.AppendPoint(10, 3)

	st, sh, ok := b.Commit()
	require.True(t, ok)
	require.NotNil(t, st)
	assert.Nil(t, sh)
	assert.Equal(t, []float64{0, 0, 5, 5, 10, 3}, st.Points)

	lines, shapes := b.Counts()
	assert.Equal(t, 1, lines)
	assert.Equal(t, 0, shapes)
}

func TestCommitDropsSinglePointStroke(t *testing.T) {
	b := New()
	b.BeginStroke(ToolPen, "#ff0000", 2, 1, 1)

	_, _, ok := b.Commit()
	assert.False(t, ok)
	lines, _ := b.Counts()
	assert.Equal(t, 0, lines)
}

func TestCommitShapeIsPermissive(t *testing.T) {
	b := New()
	b.BeginShape(ToolRectangle, "#000000", 2, 3)
	// No pointer movement: zero-extent shapes still commit.
	st, sh, ok := b.Commit()
	require.True(t, ok)
	assert.Nil(t, st)
	require.NotNil(t, sh)
	assert.Equal(t, 0.0, sh.Width)
	assert.Equal(t, 0.0, sh.Height)

	_, shapes := b.Counts()
	assert.Equal(t, 1, shapes)
}

func TestUpdateShapeKeepsSignedExtent(t *testing.T) {
	b := New()
	b.BeginShape(ToolCircle, "#0000ff", 10, 10)
	b.UpdateShape(4, 2) // dragged up-left
	st, sh, ok := b.Commit()
	require.True(t, ok)
	assert.Nil(t, st)
	assert.Equal(t, -6.0, sh.Width)
	assert.Equal(t, -8.0, sh.Height)
	assert.InDelta(t, 10.0, sh.Radius(), 1e-9)
}

func TestSnapshotDoesNotAliasLiveState(t *testing.T) {
	b := New()
	b.BeginStroke(ToolPen, "#000000", 2, 0, 0)
	b.AppendPoint(1, 1)
	b.Commit()

	sn := b.Snapshot()
	sn.Lines[0].Points[0] = 999

	again := b.Snapshot()
	assert.Equal(t, 0.0, again.Lines[0].Points[0])
}

func TestReplaceAllAndClear(t *testing.T) {
	b := New()
	b.ReplaceAll(Snapshot{
		Lines:  []Stroke{{Points: []float64{0, 0, 1, 1}, Tool: ToolPen}},
		Shapes: []Shape{{Type: ToolCircle, Tool: ToolCircle}},
	})
	lines, shapes := b.Counts()
	assert.Equal(t, 1, lines)
	assert.Equal(t, 1, shapes)

	b.Clear()
	lines, shapes = b.Counts()
	assert.Equal(t, 0, lines)
	assert.Equal(t, 0, shapes)
	act, actSh := b.Active()
	assert.Nil(t, act)
	assert.Nil(t, actSh)
}

func TestAddStrokeRejectsDegenerate(t *testing.T) {
	b := New()
	b.AddStroke(Stroke{Points: []float64{1, 2}, Tool: ToolPen})
	lines, _ := b.Counts()
	assert.Equal(t, 0, lines)
}
