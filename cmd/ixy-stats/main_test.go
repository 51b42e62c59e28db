package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandRequiresAtLeastOnePCIAddress(t *testing.T) {
	cmd := newCommand()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.ErrorContains(t, err, "at least one --pci address")
}
