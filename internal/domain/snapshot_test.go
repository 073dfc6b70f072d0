package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumKnownValue(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Checksum(""))
}

func TestNewSnapshotRejectsEmptyName(t *testing.T) {
	_, err := NewSnapshot("  ", "content", nil, 1)
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestSnapshotVerifyDetectsTamper(t *testing.T) {
	snap, err := NewSnapshot("doc1", "v1", map[string]interface{}{"author": "a"}, 1)
	require.NoError(t, err)
	require.NoError(t, snap.Verify())

	snap.Content = "v1 tampered"
	err = snap.Verify()
	require.Error(t, err)
	assert.True(t, IsIntegrity(err))

	var integrityErr *IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, snap.VersionID, integrityErr.VersionID)
	assert.Equal(t, Checksum("v1 tampered"), integrityErr.Actual)
}

func TestSnapshotMetadataIsCopied(t *testing.T) {
	metadata := map[string]interface{}{"author": "a"}
	snap, err := NewSnapshot("doc1", "v1", metadata, 1)
	require.NoError(t, err)

	metadata["author"] = "b"
	assert.Equal(t, "a", snap.Metadata["author"])
}

func TestSnapshotChecksumProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("checksum matches content and survives encoding", prop.ForAll(
		func(content string) bool {
			snap, err := NewSnapshot("doc", content, nil, 7)
			if err != nil {
				return false
			}
			if snap.Checksum != Checksum(content) {
				return false
			}

			data, err := snap.ToBytes()
			if err != nil {
				return false
			}
			decoded, err := SnapshotFromBytes(data)
			if err != nil {
				return false
			}
			return decoded.Content == content && decoded.Verify() == nil
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestSnapshotEncodingKeepsInvalidUTF8(t *testing.T) {
	content := "caf\xe9 latin-1"
	snap, err := NewSnapshot("doc", content, nil, 1)
	require.NoError(t, err)

	data, err := snap.ToBytes()
	require.NoError(t, err)
	decoded, err := SnapshotFromBytes(data)
	require.NoError(t, err)

	assert.Equal(t, []byte(content), []byte(decoded.Content))
	assert.NoError(t, decoded.Verify())
}

func TestSnapshotByteContentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("arbitrary bytes survive encoding and verify", prop.ForAll(
		func(raw []byte) bool {
			content := string(raw)
			snap, err := NewSnapshot("doc", content, nil, 1)
			if err != nil {
				return false
			}
			data, err := snap.ToBytes()
			if err != nil {
				return false
			}
			decoded, err := SnapshotFromBytes(data)
			if err != nil {
				return false
			}
			return decoded.Content == content && decoded.Verify() == nil
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

func TestSnapshotSummary(t *testing.T) {
	snap, err := NewSnapshot("doc1", "hello", nil, 3)
	require.NoError(t, err)

	summary := snap.Summary()
	assert.Equal(t, snap.VersionID, summary.VersionID)
	assert.Equal(t, 5, summary.Size)
	assert.Equal(t, int64(3), summary.Sequence)
}
