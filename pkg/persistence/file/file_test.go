package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
	"github.com/tirs/Automotive-database-demo/pkg/testutil"
)

func TestNewPersistence(t *testing.T) {
	fp := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_Close(t *testing.T) {
	fp := NewPersistence("./test-data")
	err := fp.Close(t.Context())
	assert.NoError(t, err)
}

func TestPersistence_HealthCheck(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	assert.NoError(t, fp.HealthCheck(t.Context()))

	missing := NewPersistence(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.ErrorIs(t, missing.HealthCheck(t.Context()), os.ErrNotExist)
}

func TestPersistence_InstanceStore(t *testing.T) {
	testutil.RunInstanceStoreSuite(t, func(t *testing.T) persistence.InstanceStore {
		t.Helper()

		return NewPersistence(t.TempDir())
	})
}

func TestPersistence_SaveInstance_WritesJSONFile(t *testing.T) {
	testDir := t.TempDir()
	fp := NewPersistence(testDir)

	instance := testutil.CreateTestInstance()
	require.NoError(t, fp.SaveInstance(t.Context(), instance))

	filePath := filepath.Join(testDir, "instances", instance.ID+".json")
	info, err := os.Stat(filePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(filePath + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestPersistence_RejectsPathTraversal(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	instance := testutil.CreateTestInstance()
	instance.ID = "../escape"

	err := fp.SaveInstance(t.Context(), instance)
	assert.ErrorIs(t, err, persistence.ErrInvalidInstanceID)

	_, err = fp.InstanceByID(t.Context(), "../escape")
	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestPersistence_Instances_SkipsCorruptFiles(t *testing.T) {
	testDir := t.TempDir()
	fp := NewPersistence(testDir)

	instance := testutil.CreateTestInstance()
	require.NoError(t, fp.SaveInstance(t.Context(), instance))
	require.NoError(t, os.WriteFile(filepath.Join(testDir, "instances", "broken.json"), []byte("{not json"), 0600))

	instances, err := fp.Instances(t.Context(), persistence.ListInstancesOptions{})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, instance.ID, instances[0].ID)
}
