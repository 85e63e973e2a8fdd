package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMailmapForms(t *testing.T) {
	m := ParseMailmap(`
# canonical identities
Jane Doe <jane@old.example.com>
<jane@example.com> <jane@work.example.com>
Joe Smith <joe@example.com> <joe@laptop.local>
Joe Smith <joe@example.com> joe <joe@shared.example.com>
`)

	tests := []struct {
		name, inName, inEmail string
		wantName, wantEmail   string
	}{
		{"name only", "jane", "jane@old.example.com", "Jane Doe", "jane@old.example.com"},
		{"email only", "Jane", "jane@work.example.com", "Jane", "jane@example.com"},
		{"name and email", "joseph", "joe@laptop.local", "Joe Smith", "joe@example.com"},
		{"matched by commit name", "joe", "joe@shared.example.com", "Joe Smith", "joe@example.com"},
		{"commit name mismatch", "someone", "joe@shared.example.com", "someone", "joe@shared.example.com"},
		{"case insensitive email", "x", "JOE@LAPTOP.LOCAL", "Joe Smith", "joe@example.com"},
		{"unmapped", "Bob", "bob@example.com", "Bob", "bob@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, email := m.Resolve(tt.inName, tt.inEmail)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantEmail, email)
		})
	}
}

func TestMailmapMissingFile(t *testing.T) {
	m := LoadMailmap("/nonexistent/.mailmap")
	assert.Equal(t, 0, m.Len())

	name, email := m.Resolve("a", "b")
	assert.Equal(t, "a", name)
	assert.Equal(t, "b", email)
}
