package scan

import (
	"time"

	"github.com/rs/zerolog"
)

// Job runs the nightly market scan from the scheduler.
type Job struct {
	service *Service
	markets []string
	log     zerolog.Logger
}

// NewJob creates the nightly scan job.
func NewJob(service *Service, markets []string, log zerolog.Logger) *Job {
	return &Job{
		service: service,
		markets: markets,
		log:     log.With().Str("job", "nightly_scan").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *Job) Name() string {
	return "nightly_scan"
}

// Run scans the configured markets for today's date.
func (j *Job) Run() error {
	scanDate := time.Now().Format("2006-01-02")

	result, err := j.service.Run(j.markets, scanDate)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("candidates", result.Candidates).
		Int("synced", result.Synced).
		Msg("Nightly scan finished")

	return nil
}
