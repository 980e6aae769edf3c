package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"hostel-pg/services"
)

// DuesSource lists Active tenants whose current period is missing or unpaid.
type DuesSource interface {
	OutstandingDues(ctx context.Context) ([]services.Dues, error)
}

type DuesReport struct {
	Missing int `json:"missing"`
	Unpaid  int `json:"unpaid"`
}

// DuesReporter logs outstanding rent on a schedule. It never writes.
type DuesReporter struct {
	source  DuesSource
	log     zerolog.Logger
	timeout time.Duration
}

func NewDuesReporter(source DuesSource, log zerolog.Logger) *DuesReporter {
	return &DuesReporter{source: source, log: log.With().Str("job", "dues").Logger(), timeout: 2 * time.Minute}
}

func (d *DuesReporter) RunOnce(ctx context.Context) (DuesReport, error) {
	var report DuesReport
	dues, err := d.source.OutstandingDues(ctx)
	if err != nil {
		return report, fmt.Errorf("outstanding dues: %w", err)
	}

	for _, due := range dues {
		event := d.log.Warn().Str("uid", due.UID).Str("name", due.Name)
		if due.RoomNumber != nil {
			event = event.Uint("room", *due.RoomNumber)
		}
		if due.Missing() {
			report.Missing++
			event.Msg("no billing period covers today")
			continue
		}
		report.Unpaid++
		event.Str("pay_id", due.Current.PayID).
			Str("billing_start_date", due.Current.BillingStartDate.String()).
			Str("amount", due.Current.Amount.String()).
			Msg("current period unpaid")
	}
	d.log.Info().Int("missing", report.Missing).Int("unpaid", report.Unpaid).Msg("dues check finished")
	return report, nil
}

// Start schedules RunOnce on spec (standard 5-field cron) in loc. Stop the
// returned cron to end it.
func (d *DuesReporter) Start(spec string, loc *time.Location) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if _, err := d.RunOnce(ctx); err != nil {
			d.log.Error().Err(err).Msg("dues check failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	d.log.Info().Str("schedule", spec).Str("tz", loc.String()).Msg("dues reporter started")
	return c, nil
}
