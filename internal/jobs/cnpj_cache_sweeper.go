// internal/jobs/cnpj_cache_sweeper.go
package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/models"
)

// CNPJCacheSweeper deletes expired registry cache rows so the table tracks
// the working set instead of growing forever. Expired entries are also
// refreshed lazily on read; the sweeper just reclaims the ones nobody asks
// about anymore.
type CNPJCacheSweeper struct {
	db       *gorm.DB
	ttl      time.Duration
	interval time.Duration
}

func NewCNPJCacheSweeper(db *gorm.DB, cfg config.ReceitaConfig) *CNPJCacheSweeper {
	return &CNPJCacheSweeper{
		db:       db,
		ttl:      time.Duration(cfg.CacheTTLHours) * time.Hour,
		interval: time.Duration(cfg.SweepMinutes) * time.Minute,
	}
}

// Run sweeps on a fixed interval until the context is canceled. Start it on
// its own goroutine.
func (s *CNPJCacheSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (s *CNPJCacheSweeper) sweep() {
	cutoff := time.Now().Add(-s.ttl)
	res := s.db.Unscoped().
		Where("fetched_at < ?", cutoff).
		Delete(&models.CNPJRecord{})
	if res.Error != nil {
		logrus.WithError(res.Error).Error("CNPJ cache sweep failed")
		return
	}
	if res.RowsAffected > 0 {
		logrus.WithField("deleted", res.RowsAffected).Info("Swept expired CNPJ cache entries")
	}
}
