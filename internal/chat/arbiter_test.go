package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedPick(i int) func(int) int {
	return func(int) int { return i }
}

func TestArbiterAssign(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1")
	a := NewArbiter(reg, []string{"#111111", "#222222"}, fixedPick(1))

	id, err := a.Assign("c1", "  ann  ")
	require.NoError(t, err)
	assert.Equal(t, Identity{Nickname: "ann", Color: "#222222"}, id)

	bound, ok := reg.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, id, bound)
}

func TestArbiterErrors(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1")
	reg.Register("c2")
	a := NewArbiter(reg, nil, fixedPick(0))

	_, err := a.Assign("c1", "ann")
	require.NoError(t, err)

	tests := []struct {
		name      string
		conn      string
		requested string
		want      error
	}{
		{name: "empty", conn: "c2", requested: "", want: ErrEmptyNickname},
		{name: "whitespace only", conn: "c2", requested: " \t\n", want: ErrEmptyNickname},
		{name: "taken", conn: "c2", requested: "ann", want: ErrNicknameTaken},
		{name: "taken after trim", conn: "c2", requested: " ann ", want: ErrNicknameTaken},
		{name: "already bound", conn: "c1", requested: "someone-else", want: ErrAlreadyBound},
		{name: "unknown connection", conn: "ghost", requested: "zed", want: ErrUnknownConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Assign(tt.conn, tt.requested)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, bound := reg.Lookup("c2")
	assert.False(t, bound, "failed assignments must not bind")
}

func TestArbiterColorComesFromPalette(t *testing.T) {
	reg := NewRegistry()
	a := NewArbiter(reg, nil, nil)

	for i := 0; i < 50; i++ {
		id := string(rune('a' + i%26)) + string(rune('A'+i/26))
		reg.Register(id)
		got, err := a.Assign(id, id)
		require.NoError(t, err)
		assert.Contains(t, DefaultPalette, got.Color)
		assert.Regexp(t, `^#[0-9A-F]{6}$`, got.Color)
	}
}
