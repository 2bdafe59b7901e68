package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		stored   int
		expected int
		want     Compatibility
	}{
		{"empty database", 0, 5, NeedsSetup{}},
		{"same version", 5, 5, Compatible{}},
		{"older version", 3, 5, NeedsMigration{From: 3}},
		{"newer version", 7, 5, NeedsSetup{Stored: 7}},
		{"first version", 1, 1, Compatible{}},
		{"one behind", 1, 2, NeedsMigration{From: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.stored, tt.expected))
		})
	}
}

func TestNeedsSetup_Newer(t *testing.T) {
	assert.False(t, NeedsSetup{}.Newer())
	assert.True(t, NeedsSetup{Stored: 7}.Newer())

	c, ok := Resolve(7, 5).(NeedsSetup)
	assert.True(t, ok)
	assert.True(t, c.Newer())
}

func TestIsCompatible(t *testing.T) {
	assert.True(t, IsCompatible(Resolve(2, 2)))
	assert.False(t, IsCompatible(Resolve(0, 2)))
	assert.False(t, IsCompatible(Resolve(1, 2)))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "compatible", Describe(Compatible{}))
	assert.Equal(t, "needs setup", Describe(NeedsSetup{}))
	assert.Equal(t, "needs setup (stored version 7 is newer than expected)", Describe(NeedsSetup{Stored: 7}))
	assert.Equal(t, "needs migration from version 3", Describe(NeedsMigration{From: 3}))
}
