package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "run an-1", []string{"run", "an-1"}},
		{"extra whitespace", "  logs   an-1\t--lines 20 ", []string{"logs", "an-1", "--lines", "20"}},
		{"double quotes", `upload t1 "my script.py"`, []string{"upload", "t1", "my script.py"}},
		{"single quotes", "upload t1 'my script.py'", []string{"upload", "t1", "my script.py"}},
		{"mixed quote inside other quote", `echo "it's fine"`, []string{"echo", "it's fine"}},
		{"empty", "", nil},
		{"only spaces", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCommandLine(tt.in))
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	InitRegistry()

	cmd := GetCommand("teams")
	if assert.NotNil(t, cmd) {
		assert.Equal(t, "Teams", cmd.Category)
	}

	assert.NotNil(t, GetCommand("t"), "aliases resolve")
	assert.Nil(t, GetCommand("bogus"))

	cfg := GetCommand("config")
	if assert.NotNil(t, cfg) {
		assert.NotNil(t, findSubCommand(cfg, "show"))
		assert.Nil(t, findSubCommand(cfg, "bogus"))
	}
}
