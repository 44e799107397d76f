package services

import (
	"time"

	"moneta/internal/models"
)

// ScheduleDecision is the outcome of checking one recurring template against
// a calendar day: whether to generate now, the advanced next execution date,
// and the status the template moves to after generation.
type ScheduleDecision struct {
	Generate   bool
	NextDate   time.Time
	NextStatus models.RecurringStatus
}

// TemplateIsDue reports whether the template should generate on the given
// day: status ACTIVE, the day at or past StartDate, and the scheduled next
// execution date reached. EndDate is deliberately not checked here: a
// template whose end date passed while a generation was pending still owes
// its final catch-up generation, after which DecideSchedule completes it.
// The last-generated check guarantees at most one generation per calendar
// day even if the sweep runs more than once.
func TemplateIsDue(t *models.RecurringTransaction, today time.Time) bool {
	if t.Status != models.RecurringStatusActive {
		return false
	}
	day := models.DateOnly(today)
	if day.Before(models.DateOnly(t.StartDate)) {
		return false
	}
	if day.Before(models.DateOnly(t.NextExecutionDate)) {
		return false
	}
	if t.LastGeneratedDate != nil && models.SameDay(*t.LastGeneratedDate, today) {
		return false
	}
	return true
}

// AdvanceSchedule returns the next execution date one period after from.
// Month, quarter and year steps are calendar-aware: the day of month is
// clamped to the last valid day of the target month, so Jan 31 + 1 month is
// Feb 29 in a leap year and Feb 28 otherwise, never Mar 2.
func AdvanceSchedule(frequency models.RecurrenceFrequency, from time.Time) time.Time {
	from = models.DateOnly(from)
	switch frequency {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case models.FrequencyBiWeekly:
		return from.AddDate(0, 0, 14)
	case models.FrequencyMonthly:
		return addMonthsClamped(from, 1)
	case models.FrequencyQuarterly:
		return addMonthsClamped(from, 3)
	case models.FrequencyYearly:
		return addMonthsClamped(from, 12)
	default:
		return from.AddDate(0, 0, 1)
	}
}

// DecideSchedule maps (template, today) to a generation decision. When the
// sweep fell behind, exactly one transaction is generated and the next date
// advances one period from today; missed periods are not back-filled. The
// template completes when the advanced date, or today itself, passes EndDate.
func DecideSchedule(t *models.RecurringTransaction, today time.Time) ScheduleDecision {
	if !TemplateIsDue(t, today) {
		return ScheduleDecision{Generate: false, NextDate: t.NextExecutionDate, NextStatus: t.Status}
	}

	next := AdvanceSchedule(t.Frequency, today)
	status := models.RecurringStatusActive
	if t.EndDate != nil {
		end := models.DateOnly(*t.EndDate)
		if models.DateOnly(today).After(end) || next.After(end) {
			status = models.RecurringStatusCompleted
		}
	}

	return ScheduleDecision{Generate: true, NextDate: next, NextStatus: status}
}

// addMonthsClamped adds months to a date, clamping the day to the last valid
// day of the target month. time.AddDate alone normalizes overflow (Jan 31 +
// 1 month = Mar 2), which is wrong for payment schedules.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}
