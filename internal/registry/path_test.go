package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"memory", ":memory:", ":memory:"},
		{"memory uri", "file::memory:", "file::memory:"},
		{"relative", "notes", "/data/notes.db"},
		{"relative with suffix", "notes.db", "/data/notes.db"},
		{"nested", "users/alice", "/data/users/alice.db"},
		{"absolute", "/tmp/notes", "/tmp/notes.db"},
		{"absolute with suffix", "/tmp/notes.db", "/tmp/notes.db"},
		{"uri", "file:notes?cache=shared", "file:notes.db?cache=shared"},
		{"named memory", "notes?mode=memory", "file:notes.db?mode=memory"},
		{"named memory uri", "file:notes.db?mode=memory&cache=shared", "file:notes.db?mode=memory&cache=shared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath("/data", tt.in))
		})
	}
}

func TestResolvePath_NormalizesUnicode(t *testing.T) {
	// "é" as e + combining acute accent and as the precomposed rune.
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	assert.Equal(t, ResolvePath("/data", composed), ResolvePath("/data", decomposed))
	assert.Equal(t, "/data/caf\u00e9.db", ResolvePath("/data", decomposed))
}

func TestIsMemory(t *testing.T) {
	assert.True(t, isMemory(":memory:"))
	assert.True(t, isMemory("file::memory:"))
	assert.True(t, isMemory("file:notes.db?mode=memory"))
	assert.False(t, isMemory("/data/notes.db"))
}
