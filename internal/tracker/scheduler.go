package tracker

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// SnapshotFunc fetches the current snapshot for one ASIN.
type SnapshotFunc func(asin string) (Snapshot, error)

// Scheduler refreshes every tracked ASIN on a cron schedule so trend data
// accumulates without manual runs.
type Scheduler struct {
	store *Store
	fetch SnapshotFunc
	cron  *cron.Cron
}

// NewScheduler builds a scheduler over a store and a fetch function.
func NewScheduler(store *Store, fetch SnapshotFunc) *Scheduler {
	return &Scheduler{
		store: store,
		fetch: fetch,
		cron:  cron.New(),
	}
}

// Start registers the refresh job under the given cron spec (for example
// "0 6 * * *" for daily at 06:00) and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refreshAll); err != nil {
		return fmt.Errorf("scheduling snapshot refresh: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler. Running jobs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce refreshes all tracked ASINs immediately, outside the schedule.
func (s *Scheduler) RunOnce() {
	s.refreshAll()
}

func (s *Scheduler) refreshAll() {
	asins, err := s.store.TrackedASINs()
	if err != nil {
		log.Printf("tracker: listing asins for refresh: %v", err)
		return
	}

	var batch []Snapshot
	for _, asin := range asins {
		snap, err := s.fetch(asin)
		if err != nil {
			log.Printf("tracker: refreshing %s: %v", asin, err)
			continue
		}
		batch = append(batch, snap)
	}
	if len(batch) == 0 {
		return
	}

	n, err := s.store.AddSnapshots(batch)
	if err != nil {
		log.Printf("tracker: storing refreshed snapshots: %v", err)
		return
	}
	log.Printf("tracker: refreshed %d of %d tracked asins", n, len(asins))
}
