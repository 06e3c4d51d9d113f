package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatter is satisfied by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// RegisterPgxPoolMetrics registers gauges for the connection pool that backs
// provider, plan, instance and activity storage. Values are read on scrape.
func RegisterPgxPoolMetrics(reg prometheus.Registerer, pool PoolStatter) error {
	gauge := func(name, help string, value func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(pool.Stat()) })
	}

	collectors := []prometheus.Collector{
		gauge("acquired_conns", "Connections currently checked out of the pool.",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("idle_conns", "Idle connections in the pool.",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("total_conns", "Total connections in the pool.",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("max_conns", "Configured pool size.",
			func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
		gauge("empty_acquire_total", "Acquires that had to wait for a connection.",
			func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
