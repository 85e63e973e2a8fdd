package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTicketRef(t *testing.T) {
	tests := []struct {
		msg  string
		want string
		ok   bool
	}{
		{"[PROJ-123] fix login", "PROJ-123", true},
		{"[wip] AB-7 partial", "AB-7", true},
		{"fix: handle PAY-42 refunds", "PAY-42", true},
		{"fix: handle xPAY-42 refunds", "", false},
		{"A-1 is too short", "", false},
		{"fix: crash, fixes #88", "#88", true},
		{"Closed #5 and #6", "#5", true},
		{"see #12 for context", "#12", true},
		{"no reference here", "", false},
		{"subject\n\nbody mentions ABC-9", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got, ok := ExtractTicketRef(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
