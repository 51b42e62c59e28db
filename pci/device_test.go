package pci

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ixy-go/ixy/ixerr"
)

// writeFakeConfig writes a 16-byte PCI config space header with the given
// vendor/device ids and base class at the conventional offsets.
func writeFakeConfig(t *testing.T, path string, vendor, device uint16, baseClass byte) {
	t.Helper()

	buf := make([]byte, 16)
	binary.LittleEndian.PutUint16(buf[0:], vendor)
	binary.LittleEndian.PutUint16(buf[2:], device)
	buf[11] = baseClass

	require.NoError(t, os.WriteFile(path, buf, 0o600))
}

func withFakeSysfs(t *testing.T, addr string) string {
	t.Helper()

	root := t.TempDir()
	oldRoot := sysfsRoot
	sysfsRoot = root
	t.Cleanup(func() { sysfsRoot = oldRoot })

	require.NoError(t, os.MkdirAll(filepath.Dir(configPath(addr)), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(bindPath()), 0o755))

	return root
}

func TestProbeAcceptsSupportedDevice(t *testing.T) {
	const addr = "0000:01:00.0"
	withFakeSysfs(t, addr)
	writeFakeConfig(t, configPath(addr), IntelVendorID, 0x10fb, networkControllerClass)

	d, err := Probe(addr)
	require.NoError(t, err)
	assert.Equal(t, addr, d.Address)
	assert.Equal(t, "82599 SFP+", d.Name)
}

func TestProbeRejectsNonIntelVendor(t *testing.T) {
	const addr = "0000:01:00.0"
	withFakeSysfs(t, addr)
	writeFakeConfig(t, configPath(addr), 0x10de, 0x10fb, networkControllerClass)

	_, err := Probe(addr)
	assert.ErrorIs(t, err, ixerr.ErrUnsupportedDevice)
}

func TestProbeRejectsUnknownDevice(t *testing.T) {
	const addr = "0000:01:00.0"
	withFakeSysfs(t, addr)
	writeFakeConfig(t, configPath(addr), IntelVendorID, 0xffff, networkControllerClass)

	_, err := Probe(addr)
	assert.ErrorIs(t, err, ixerr.ErrUnsupportedDevice)
}

func TestProbeRejectsWrongClass(t *testing.T) {
	const addr = "0000:01:00.0"
	withFakeSysfs(t, addr)
	writeFakeConfig(t, configPath(addr), IntelVendorID, 0x10fb, 0x01)

	_, err := Probe(addr)
	assert.ErrorIs(t, err, ixerr.ErrUnsupportedDevice)
}

func TestUnbindIsIdempotentWhenNoDriverBound(t *testing.T) {
	const addr = "0000:01:00.0"
	withFakeSysfs(t, addr)
	writeFakeConfig(t, configPath(addr), IntelVendorID, 0x10fb, networkControllerClass)

	d, err := Probe(addr)
	require.NoError(t, err)

	assert.NoError(t, d.Unbind())
	assert.NoError(t, d.Unbind())
}

func TestBindWritesAddressToBindFile(t *testing.T) {
	const addr = "0000:01:00.0"
	withFakeSysfs(t, addr)
	writeFakeConfig(t, configPath(addr), IntelVendorID, 0x10fb, networkControllerClass)

	require.NoError(t, os.WriteFile(bindPath(), nil, 0o200))

	d, err := Probe(addr)
	require.NoError(t, err)
	require.NoError(t, d.Bind())

	got, err := os.ReadFile(bindPath())
	require.NoError(t, err)
	assert.Equal(t, addr, string(got))
}
