package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("mypw")
	require.NoError(t, err)

	assert.NotEqual(t, "mypw", hash)
	assert.True(t, CheckPassword(hash, "mypw"))
	assert.False(t, CheckPassword(hash, "MyPw"))
	assert.False(t, CheckPassword(hash, ""))
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name     string
		hash     string
		password string
		expected bool
	}{
		{
			name:     "legacy digest",
			hash:     "25f693ea822cfa8e5f6cb3709b5c68fa97b6aaf9c591b689d8754e78e5e382a3",
			password: "mypw",
			expected: true,
		},
		{
			name:     "legacy digest uppercase",
			hash:     "25F693EA822CFA8E5F6CB3709B5C68FA97B6AAF9C591B689D8754E78E5E382A3",
			password: "mypw",
			expected: true,
		},
		{
			name:     "legacy digest mismatch",
			hash:     "25f693ea822cfa8e5f6cb3709b5c68fa97b6aaf9c591b689d8754e78e5e382a3",
			password: "other",
			expected: false,
		},
		{
			name:     "empty hash never matches",
			hash:     "",
			password: "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CheckPassword(tt.hash, tt.password))
		})
	}
}

func TestLegacyDigest(t *testing.T) {
	assert.Equal(t, "25f693ea822cfa8e5f6cb3709b5c68fa97b6aaf9c591b689d8754e78e5e382a3", LegacyDigest("mypw"))
}
