package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/clock"
	"github.com/linesmerrill/medtrack-api/config"
	"github.com/linesmerrill/medtrack-api/databases"
	"github.com/linesmerrill/medtrack-api/logging"
	"github.com/linesmerrill/medtrack-api/models"
	"github.com/linesmerrill/medtrack-api/realtime"
)

// Defaults used when the config leaves a reminder setting empty
const (
	DefaultSpec      = "@every 1m"
	DefaultWindow    = 15 * time.Minute
	DefaultRetention = time.Hour
	sweepTimeout     = 5 * time.Minute
)

// ErrAlreadyStarted is returned by Start on a running scheduler
var ErrAlreadyStarted = errors.New("scheduler already started")

// Publisher sends an event to every connection on a topic and returns how
// many received it
type Publisher interface {
	Publish(topic, name string, payload interface{}) int
}

// PresenceChecker reports whether a user is connected
type PresenceChecker interface {
	IsOnline(userID string) bool
}

// Scheduler delivers due medication reminders to connected patients and owns
// the reminder state transitions
type Scheduler struct {
	cron     *cron.Cron
	MedDB    databases.MedicationDatabase
	Bus      Publisher
	Presence PresenceChecker
	Ledger   *Ledger

	clock     clock.Clock
	spec      string
	window    time.Duration
	retention time.Duration

	sweepMu sync.Mutex
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// SweepResult summarizes one sweep
type SweepResult struct {
	Skipped     bool
	Medications int
	Due         int
	Dispatched  int
	Duplicates  int
	Offline     int
	Failed      int
	Pruned      int
}

// NewScheduler creates a new scheduler instance
func NewScheduler(conf *config.Config, medDB databases.MedicationDatabase, bus Publisher, presence PresenceChecker, clk clock.Clock) *Scheduler {
	s := &Scheduler{
		MedDB:     medDB,
		Bus:       bus,
		Presence:  presence,
		Ledger:    NewLedger(),
		clock:     clk,
		spec:      DefaultSpec,
		window:    DefaultWindow,
		retention: DefaultRetention,
	}
	if conf != nil {
		if conf.ReminderSweepSpec != "" {
			s.spec = conf.ReminderSweepSpec
		}
		if conf.ReminderWindow > 0 {
			s.window = conf.ReminderWindow
		}
		if conf.ReminderRetention > 0 {
			s.retention = conf.ReminderRetention
		}
	}
	if s.clock == nil {
		s.clock = clock.New()
	}

	logger := logging.NewCronLogger()
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return s
}

// Window returns the look-ahead window of the sweep
func (s *Scheduler) Window() time.Duration { return s.window }

// Start registers the sweep and begins running it on schedule
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	if _, err := s.cron.AddFunc(s.spec, s.runSweep); err != nil {
		s.cancel()
		return err
	}
	s.cron.Start()
	s.started = true
	zap.S().Infow("Reminder scheduler started", "spec", s.spec, "window", s.window, "retention", s.retention)
	return nil
}

// Stop gracefully stops the scheduler. A sweep in progress is cancelled and
// stops at the next medication boundary.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.started = false
	zap.S().Info("Reminder scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(s.ctx, sweepTimeout)
	defer cancel()
	s.Sweep(ctx)
}

// Sweep delivers every reminder due within the look-ahead window that has not
// been dispatched yet. Overlapping calls are skipped. Failures are logged per
// medication and never abort the rest of the batch.
func (s *Scheduler) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	if !s.sweepMu.TryLock() {
		zap.S().Debug("Reminder sweep already running, skipping")
		res.Skipped = true
		return res
	}
	defer s.sweepMu.Unlock()

	now := s.clock.Now()
	res.Pruned = s.Ledger.Prune(now.Add(-s.retention))

	meds, err := s.MedDB.FindDueWithin(ctx, now, s.window)
	if err != nil {
		zap.S().Errorw("failed to find due medications", "error", err)
		return res
	}
	res.Medications = len(meds)

	for i := range meds {
		if ctx.Err() != nil {
			zap.S().Warnw("reminder sweep interrupted", "error", ctx.Err(), "remaining", len(meds)-i)
			break
		}
		if err := s.sweepMedication(ctx, &meds[i], now, &res); err != nil {
			res.Failed++
			zap.S().Errorw("failed to process medication reminders",
				"error", err,
				"medicationID", meds[i].ID.Hex(),
				"patient", meds[i].Patient)
		}
	}

	zap.S().Infow("Reminder sweep complete",
		"medications", res.Medications,
		"due", res.Due,
		"dispatched", res.Dispatched,
		"duplicates", res.Duplicates,
		"offline", res.Offline,
		"failed", res.Failed,
		"pruned", res.Pruned,
	)
	return res
}

func (s *Scheduler) sweepMedication(ctx context.Context, med *models.Medication, now time.Time, res *SweepResult) error {
	due := med.DueReminders(now, s.window)
	res.Due += len(due)

	reactivated := false
	for _, r := range due {
		key := LedgerKey(med.ID.Hex(), r.ID.Hex())
		if s.Ledger.Seen(key) {
			res.Duplicates++
			continue
		}
		// offline patients are retried on the next sweep
		if !s.Presence.IsOnline(med.Patient) {
			res.Offline++
			continue
		}
		if s.Bus.Publish(realtime.UserTopic(med.Patient), models.EventMedicationReminder, reminderPayload(med, r, false)) == 0 {
			res.Offline++
			zap.S().Warnw("reminder not delivered to any connection",
				"medicationID", med.ID.Hex(),
				"reminderID", r.ID.Hex(),
				"patient", med.Patient)
			continue
		}
		s.Ledger.Mark(key, r.EffectiveTime())
		res.Dispatched++

		if r.Status == models.ReminderSnoozed {
			stored := med.FindReminder(r.ID.Hex())
			stored.Status = models.ReminderActive
			stored.SnoozeUntil = nil
			reactivated = true
		}
	}

	if !reactivated {
		return nil
	}
	med.RecomputeNextReminder(now)
	med.UpdatedAt = now
	return s.MedDB.Save(ctx, med)
}

func reminderPayload(med *models.Medication, r models.Reminder, test bool) models.ReminderPayload {
	return models.ReminderPayload{
		ID:             r.ID.Hex(),
		MedicationID:   med.ID.Hex(),
		MedicationName: med.BrandName,
		GenericName:    med.GenericName,
		Dosage:         med.Dosage,
		Time:           r.EffectiveTime(),
		Instructions:   med.Instructions,
		Notes:          med.ReminderNotes(r),
		IsTestReminder: test,
	}
}
