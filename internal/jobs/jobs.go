package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/vrsandeep/gitpm/internal/models"
)

const (
	IndexRefreshJob = "index-refresh"
	CatalogSyncJob  = "catalog-sync"
)

var ErrCatalogUnavailable = errors.New("catalog is not available without GitHub credentials")

// RegisterAll registers the built-in jobs with the manager.
func RegisterAll(jm *JobManager) {
	jm.Register(IndexRefreshJob, "Refresh installed packages", RunIndexRefresh)
	jm.Register(CatalogSyncJob, "Sync catalog", RunCatalogSync)
}

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	schedule(s, app, IndexRefreshJob, app.Config().Index.RefreshInterval)
	schedule(s, app, CatalogSyncJob, app.Config().Catalog.RefreshInterval)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func schedule(s *gocron.Scheduler, app JobContext, jobID string, interval int) {
	if interval <= 0 {
		log.Printf("Interval for '%s' is 0, scheduled runs are disabled.", jobID)
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", jobID, interval)
	_, err := s.Every(interval).Minutes().WaitForSchedule().Do(func() {
		log.Println("Scheduler is triggering job:", jobID)
		// Go through the manager so scheduled and manual runs never overlap.
		if err := app.JobManager().RunJob(jobID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", jobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", jobID, err)
	}
}

// RunIndexRefresh rebuilds the installed-package index.
func RunIndexRefresh(ctx JobContext) error {
	broadcast(ctx, IndexRefreshJob, "Refreshing installed packages...", 0, "running", false)
	if err := ctx.Index().Refresh(context.Background()); err != nil {
		broadcast(ctx, IndexRefreshJob, err.Error(), 100, "failed", true)
		return err
	}
	broadcast(ctx, IndexRefreshJob, "Installed packages refreshed.", 100, "completed", true)
	return nil
}

// RunCatalogSync re-syncs the selected source and waits for it to finish.
// The catalog broadcasts its own progress.
func RunCatalogSync(ctx JobContext) error {
	cat := ctx.Catalog()
	if cat == nil {
		return ErrCatalogUnavailable
	}
	bg := context.Background()
	if len(cat.Sources()) == 0 {
		cat.LoadSources(bg)
	}
	if _, err := cat.Refresh(bg); err != nil {
		return err
	}
	return cat.Wait(bg)
}

func broadcast(ctx JobContext, jobID, message string, progress float64, status string, done bool) {
	if hub := ctx.WsHub(); hub != nil {
		hub.BroadcastJSON(models.ProgressUpdate{
			JobID:    jobID,
			Message:  message,
			Progress: progress,
			Status:   status,
			Done:     done,
		})
	}
}
