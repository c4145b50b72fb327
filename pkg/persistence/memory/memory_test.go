package memory_test

import (
	"testing"

	"github.com/tirs/Automotive-database-demo/pkg/persistence"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/memory"
	"github.com/tirs/Automotive-database-demo/pkg/testutil"
)

func TestPersistence_InstanceStore(t *testing.T) {
	testutil.RunInstanceStoreSuite(t, func(t *testing.T) persistence.InstanceStore {
		t.Helper()

		return memory.NewPersistence()
	})
}
