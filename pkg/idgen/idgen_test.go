package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDRoundTrip(t *testing.T) {
	require.NoError(t, InitSqidsEncoderWithSeed("test-seed"))

	tests := []struct {
		name       string
		dbID       uint
		entityType uint64
	}{
		{"用户ID", 1, EntityTypeUser},
		{"归档文章ID", 42, EntityTypeArchivedPost},
		{"大数值ID", 987654321, EntityTypeArchivedUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publicID, err := GeneratePublicID(tt.dbID, tt.entityType)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(publicID), 6)

			got, err := DecodeTyped(publicID, tt.entityType)
			require.NoError(t, err)
			assert.Equal(t, tt.dbID, got)
		})
	}
}

func TestDecodeTypedRejectsOtherEntity(t *testing.T) {
	require.NoError(t, InitSqidsEncoder())

	publicID, err := GeneratePublicID(7, EntityTypePost)
	require.NoError(t, err)

	_, err = DecodeTyped(publicID, EntityTypeArchivedPost)
	assert.Error(t, err)

	_, err = DecodeTyped("!!", EntityTypePost)
	assert.Error(t, err)
}

func TestDecodePublicIDBatch(t *testing.T) {
	require.NoError(t, InitSqidsEncoder())

	a := MustPublicID(3, EntityTypeTag)
	b := MustPublicID(9, EntityTypeTag)

	ids, err := DecodePublicIDBatch([]string{a, b}, EntityTypeTag)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 9}, ids)

	assert.Equal(t, "", MustPublicID(0, EntityTypeTag))
}
