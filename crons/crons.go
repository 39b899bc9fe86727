package crons

import (
	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/config"
)

var cronService *cron.Cron

// Jobs are the callbacks the crons can run
type Jobs struct {
	Oracle  PriceRefresher
	Sweeper Sweeper
}

// Start Initiate the crons based on the given configuration file
func Start(crons config.Crons, jobs Jobs) {
	cronService = cron.New()
	for id, schedule := range crons {
		callback := GetCronByID(id, jobs)
		if err := cronService.AddFunc(schedule, callback); err != nil {
			log.Error().Err(err).Str("section", "crons").Str("cron", id).Str("schedule", schedule).Msg("Unable to schedule cron")
			continue
		}
		// call the caching functions at least once at startup to init caching
		callback()
	}
	cronService.Start()
}

// GetCronByID get a function to execute based on the id
func GetCronByID(id string, jobs Jobs) func() {
	switch id {
	case "update_token_price":
		return func() {
			CronUpdateTokenPrice(jobs.Oracle)
		}
	case "sweep_pending":
		return func() {
			CronSweepPending(jobs.Sweeper)
		}
	}
	log.Warn().Str("section", "crons").Str("cron", id).Msg("Unknown cron")
	return (func() {})
}

// Close godoc
func Close() {
	if cronService != nil {
		cronService.Stop()
	}
}
