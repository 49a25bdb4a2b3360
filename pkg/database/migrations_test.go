package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	migrations := Migrations()
	assert.NotEmpty(t, migrations)

	seen := make(map[int]bool)
	last := 0
	for _, m := range migrations {
		assert.False(t, seen[m.Version], "duplicate version %d", m.Version)
		assert.Greater(t, m.Version, last)
		assert.NotEmpty(t, m.Description)
		assert.NotNil(t, m.Up)
		seen[m.Version] = true
		last = m.Version
	}
}
