package localindex

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cellstate/duskvault/model"
)

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "index.cbor"))
	require.NoError(t, err)
	require.Empty(t, idx.FamilyNames())
}

func TestSetFamilyRootRoundTripsThroughSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.cbor")
	idx, err := Open(path)
	require.NoError(t, err)

	ref := model.HashRef{Hash: bytes.Repeat([]byte{0x5}, 32), Height: 2}
	idx.SetFamilyRoot("backups", ref)
	require.NoError(t, idx.Save())

	reopened, err := Open(path)
	require.NoError(t, err)

	got, ok := reopened.FamilyRoot("backups")
	require.True(t, ok, "expected family 'backups' to round-trip")
	require.True(t, got.Equal(ref), "root mismatch: got %+v, want %+v", got, ref)
}
