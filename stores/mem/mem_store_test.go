package mem_test

import (
	"testing"

	es "github.com/userevents/core"
	"github.com/userevents/core/internal/storetest"
	"github.com/userevents/core/stores/mem"
)

func TestStore_Compliance(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) es.UnitOfWork {
		t.Helper()
		return mem.New()
	})
}
