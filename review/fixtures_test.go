package review

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"warranty-registration/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFixtures(t *testing.T) {
	requests, err := DefaultFixtures()
	require.NoError(t, err)

	require.Len(t, requests, 5)
	assert.Equal(t, "WR-001", requests[0].ID)
	assert.Equal(t, "Premium Blender X200", requests[0].ProductName)
	assert.Equal(t, models.RequestStatusVerified, requests[0].Status)
	assert.Equal(t, time.Date(2023, 5, 7, 14, 30, 0, 0, time.UTC), requests[0].SubmittedAt.UTC())

	_, err = NewMemoryStore(requests)
	require.NoError(t, err)
}

func TestDecodeFixturesRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"Unknown Status", "requests:\n  - id: WR-9\n    status: archived\n", "invalid request status"},
		{"Missing ID", "requests:\n  - status: pending\n", "missing id"},
		{"Unknown Key", "requests:\n  - id: WR-9\n    colour: red\n", "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFixtures(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFixturesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.yaml")
	require.NoError(t, os.WriteFile(path, []byte("requests:\n  - id: WR-100\n    order_id: \"42\"\n    status: pending\n"), 0o600))

	requests, err := LoadFixtures(path)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "42", requests[0].OrderID)

	_, err = LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
