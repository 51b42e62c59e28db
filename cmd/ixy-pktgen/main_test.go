package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandRequiresExactlyOnePCIAddress(t *testing.T) {
	cmd := newCommand()
	cmd.SetArgs([]string{"--pci=0000:00:08.0", "--pci=0000:00:09.0"})

	err := cmd.Execute()
	require.ErrorContains(t, err, "exactly one --pci address")
}

func TestCommandRejectsNoPCIAddress(t *testing.T) {
	cmd := newCommand()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.ErrorContains(t, err, "exactly one --pci address")
}
