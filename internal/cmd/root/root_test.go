package root

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Subcommands(t *testing.T) {
	cmd := New()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "modes")
	assert.Contains(t, names, "init")
}

func TestNew_PersistentFlagsBoundToViper(t *testing.T) {
	cmd := New()

	err := cmd.PersistentFlags().Set("verbose", "true")
	require.NoError(t, err)
	assert.True(t, viper.GetBool("verbose"))

	t.Cleanup(func() {
		_ = cmd.PersistentFlags().Set("verbose", "false")
	})
}
