// Package report builds and schedules the once-daily nutrition summary.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nutrition-bot/internal/models"
	"nutrition-bot/pkg/logger"
)

// Ledger is the read-only slice of the meal store the report needs.
type Ledger interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	DailyTotals(ctx context.Context, userID int64, date time.Time) (models.DailyTotals, error)
}

// Build formats the summary for one date. A day with no logged meals
// produces no message.
func Build(profile *models.UserProfile, totals models.DailyTotals, date time.Time) (string, bool) {
	if totals.Calories == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 *Nutrition report for %s*\n\n", date.Format("Monday, Jan 2")))
	b.WriteString(fmt.Sprintf("• Calories: %.0f\n", totals.Calories))
	if profile != nil && profile.ProteinGoal > 0 {
		b.WriteString(fmt.Sprintf("• *Protein: %.1fg / %.0fg (%.0f%%)* 🎯\n",
			totals.Protein, profile.ProteinGoal, totals.Protein/profile.ProteinGoal*100))
	} else {
		b.WriteString(fmt.Sprintf("• Protein: %.1fg\n", totals.Protein))
	}
	b.WriteString(fmt.Sprintf("• Carbs: %.1fg\n", totals.Carbs))
	b.WriteString(fmt.Sprintf("• Fat: %.1fg\n", totals.Fat))
	b.WriteString(fmt.Sprintf("• Fiber: %.1fg", totals.Fiber))

	return b.String(), true
}

// Scheduler fires once per day at a fixed local wall-clock time and
// delivers the previous day's summary. It never mutates the ledger.
type Scheduler struct {
	ledger   Ledger
	userID   int64
	hour     int
	minute   int
	location *time.Location
	deliver  func(text string) error
	logger   *logger.Logger
}

func NewScheduler(ledger Ledger, userID int64, at string, location *time.Location, deliver func(text string) error, logger *logger.Logger) (*Scheduler, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("invalid report time %q: %w", at, err)
	}

	return &Scheduler{
		ledger:   ledger,
		userID:   userID,
		hour:     t.Hour(),
		minute:   t.Minute(),
		location: location,
		deliver:  deliver,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is cancelled, firing RunOnce for the previous day
// each time the configured wall-clock time comes around.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.nextFiring(time.Now().In(s.location))
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			yesterday := next.AddDate(0, 0, -1)
			date := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, s.location)
			if err := s.RunOnce(ctx, date); err != nil {
				s.logger.Error("Daily report failed", "error", err, "date", date.Format("2006-01-02"))
			}
		}
	}
}

// RunOnce reads the totals for one date and delivers the summary, if any.
func (s *Scheduler) RunOnce(ctx context.Context, date time.Time) error {
	profile, err := s.ledger.GetProfile(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	totals, err := s.ledger.DailyTotals(ctx, s.userID, date)
	if err != nil {
		return fmt.Errorf("failed to load daily totals: %w", err)
	}

	text, ok := Build(profile, totals, date)
	if !ok {
		s.logger.Info("No meals logged, skipping daily report", "date", date.Format("2006-01-02"))
		return nil
	}

	return s.deliver(text)
}

func (s *Scheduler) nextFiring(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
