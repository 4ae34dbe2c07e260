package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardedFlags(t *testing.T) {
	tests := map[string]struct {
		args     []string
		sub      bool
		expected []string
	}{
		"root invocation": {
			args:     []string{"--log-level=debug", "--aws-endpoint=http://localhost:4566", "--log-file=run.log"},
			expected: []string{"--aws-endpoint=http://localhost:4566", "--log-level=debug"},
		},
		"run subcommand": {
			args:     []string{"run", "--s3-force-path-style", "--log-level=warn"},
			sub:      true,
			expected: []string{"--log-level=warn", "--s3-force-path-style=true"},
		},
		"nothing set": {
			args: []string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var forwarded []string
			capture := func(cmd *cobra.Command, _ []string) {
				forwarded = forwardedFlags(cmd)
			}
			root := &cobra.Command{Use: "health-pipeline", Run: capture}
			root.PersistentFlags().String("log-level", "info", "")
			root.PersistentFlags().String("aws-endpoint", "", "")
			root.PersistentFlags().Bool("s3-force-path-style", false, "")
			root.Flags().String("log-file", "pipeline.log", "")
			child := &cobra.Command{Use: "run", Run: capture}
			child.Flags().String("log-file", "pipeline.log", "")
			root.AddCommand(child)

			root.SetArgs(tt.args)
			require.NoError(t, root.Execute())
			assert.Equal(t, tt.expected, forwarded)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "health-pipeline")
}
