package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-hub/internal/domain"
)

func TestLoad_Default(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	for _, kind := range []string{KindCameraTurnedOn, KindCameraTurnedOff, KindCameraStartedRecording, KindCameraStoppedRecording, KindCameraCreated, KindCameraMoved, KindCustomerCreated} {
		assert.True(t, c.Has(kind), kind)
	}
}

func TestRender(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	r, err := c.Render(KindCameraTurnedOff, map[string]any{
		"camera_name":  "Lobby",
		"performed_by": "Ali Rezaei",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TypeOfflineCamera, r.Type)
	assert.Equal(t, domain.PriorityHigh, r.Priority)
	assert.Equal(t, "Camera Lobby - Turned off", r.Title)
	assert.Equal(t, "Ali Rezaei performed action 'turned_off' on camera 'Lobby'", r.Description)
}

func TestRender_UnknownKind(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	_, err = c.Render("camera_exploded", nil)
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	t.Run("Unknown type", func(t *testing.T) {
		_, err := Parse([]byte("kinds:\n  x:\n    type: NOPE\n    priority: LOW\n"))
		assert.ErrorContains(t, err, "unknown notification type")
	})

	t.Run("Unknown priority", func(t *testing.T) {
		_, err := Parse([]byte("kinds:\n  x:\n    type: ONLINE_CAMERA\n    priority: URGENT\n"))
		assert.ErrorContains(t, err, "unknown priority")
	})

	t.Run("Bad template", func(t *testing.T) {
		_, err := Parse([]byte("kinds:\n  x:\n    type: ONLINE_CAMERA\n    priority: LOW\n    title: \"{{.a\"\n"))
		assert.Error(t, err)
	})
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kinds:
  camera_turned_on:
    type: ONLINE_CAMERA
    priority: CRITICAL
    title: "{{.camera_name}} is back"
    description: "online"
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	r, err := c.Render(KindCameraTurnedOn, map[string]any{"camera_name": "Gate"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityCritical, r.Priority)
	assert.Equal(t, "Gate is back", r.Title)
	assert.False(t, c.Has(KindCameraTurnedOff))
}
