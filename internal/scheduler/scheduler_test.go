package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAuditor struct {
	calls atomic.Int32
	err   error
}

func (a *countingAuditor) RunAudit(ctx context.Context, dryRun bool) (ledger.AuditReport, error) {
	a.calls.Add(1)
	return ledger.AuditReport{}, a.err
}

func TestScheduler(t *testing.T) {
	t.Run("runs the audit periodically", func(t *testing.T) {
		auditor := &countingAuditor{}
		s, err := New(auditor, 20*time.Millisecond)
		require.NoError(t, err)
		s.Start()
		defer s.Shutdown()

		assert.Eventually(t, func() bool { return auditor.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("keeps running after a failed audit", func(t *testing.T) {
		auditor := &countingAuditor{err: errors.New("db gone")}
		s, err := New(auditor, 20*time.Millisecond)
		require.NoError(t, err)
		s.Start()
		defer s.Shutdown()

		assert.Eventually(t, func() bool { return auditor.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("zero interval disables", func(t *testing.T) {
		auditor := &countingAuditor{}
		s, err := New(auditor, 0)
		require.NoError(t, err)
		s.Start()
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, s.Shutdown())
		assert.Equal(t, int32(0), auditor.calls.Load())
	})
}
