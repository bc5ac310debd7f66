package pgstore

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistration(t *testing.T) {
	var (
		user  = "myuser"
		host  = "myhost"
		name  = "mydbname"
		count = 5
		reg   = prometheus.NewRegistry()
	)
	for i := 1; i <= count; i++ {
		c := newPoolCollector(user, host, name, func() stat { return &pgxStatMock{} })
		if err := reg.Register(c); err != nil {
			t.Errorf("Register %d/%d: %v", i, count, err)
		}
	}
}

func TestCollect(t *testing.T) {
	mock := &pgxStatMock{
		acquireCount:    7,
		acquireDuration: 1500 * time.Millisecond,
		idleConns:       2,
		maxConns:        4,
		totalConns:      3,
	}

	c := newPoolCollector("u", "h", "n", func() stat { return mock })

	if want, have := 9, testutil.CollectAndCount(c); want != have {
		t.Fatalf("metric count: want %d, have %d", want, have)
	}

	if want, have := 2, testutil.CollectAndCount(c, "candle_pgxpool_acquire_count_total", "candle_pgxpool_idle_conns"); want != have {
		t.Fatalf("filtered metric count: want %d, have %d", want, have)
	}
}

type pgxStatMock struct {
	acquireCount         int64
	acquireDuration      time.Duration
	canceledAcquireCount int64
	emptyAcquireCount    int64
	acquiredConns        int32
	constructingConns    int32
	idleConns            int32
	maxConns             int32
	totalConns           int32
}

var _ stat = (*pgxStatMock)(nil)

func (m *pgxStatMock) AcquireCount() int64            { return m.acquireCount }
func (m *pgxStatMock) AcquireDuration() time.Duration { return m.acquireDuration }
func (m *pgxStatMock) AcquiredConns() int32           { return m.acquiredConns }
func (m *pgxStatMock) CanceledAcquireCount() int64    { return m.canceledAcquireCount }
func (m *pgxStatMock) ConstructingConns() int32       { return m.constructingConns }
func (m *pgxStatMock) EmptyAcquireCount() int64       { return m.emptyAcquireCount }
func (m *pgxStatMock) IdleConns() int32               { return m.idleConns }
func (m *pgxStatMock) MaxConns() int32                { return m.maxConns }
func (m *pgxStatMock) TotalConns() int32              { return m.totalConns }
