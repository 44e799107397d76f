package services

import (
	"testing"
	"time"

	"moneta/internal/models"
)

func scheduleTemplate(frequency models.RecurrenceFrequency, start, next time.Time) *models.RecurringTransaction {
	return &models.RecurringTransaction{
		Frequency:         frequency,
		StartDate:         start,
		NextExecutionDate: next,
		Status:            models.RecurringStatusActive,
	}
}

func TestAdvanceSchedule(t *testing.T) {
	cases := []struct {
		name      string
		frequency models.RecurrenceFrequency
		from      time.Time
		want      time.Time
	}{
		{"daily", models.FrequencyDaily, day(2026, time.March, 15), day(2026, time.March, 16)},
		{"weekly", models.FrequencyWeekly, day(2026, time.March, 15), day(2026, time.March, 22)},
		{"bi_weekly", models.FrequencyBiWeekly, day(2026, time.March, 15), day(2026, time.March, 29)},
		{"monthly", models.FrequencyMonthly, day(2026, time.March, 15), day(2026, time.April, 15)},
		{"quarterly", models.FrequencyQuarterly, day(2026, time.January, 15), day(2026, time.April, 15)},
		{"yearly", models.FrequencyYearly, day(2026, time.March, 15), day(2027, time.March, 15)},
		{"jan_31_plus_month_clamps_to_feb_28", models.FrequencyMonthly, day(2026, time.January, 31), day(2026, time.February, 28)},
		{"jan_31_plus_month_leap_year", models.FrequencyMonthly, day(2028, time.January, 31), day(2028, time.February, 29)},
		{"oct_31_plus_month_clamps_to_nov_30", models.FrequencyMonthly, day(2026, time.October, 31), day(2026, time.November, 30)},
		{"nov_30_plus_quarter_clamps_to_feb_28", models.FrequencyQuarterly, day(2026, time.November, 30), day(2027, time.February, 28)},
		{"feb_29_plus_year_clamps", models.FrequencyYearly, day(2028, time.February, 29), day(2029, time.February, 28)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AdvanceSchedule(tc.frequency, tc.from)
			if !got.Equal(tc.want) {
				t.Errorf("expected %s, got %s", tc.want.Format("2006-01-02"), got.Format("2006-01-02"))
			}
		})
	}
}

func TestTemplateIsDue(t *testing.T) {
	today := day(2026, time.March, 15)

	t.Run("due_when_next_date_arrives", func(t *testing.T) {
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.January, 1), today)
		if !TemplateIsDue(tpl, today) {
			t.Error("expected due on next execution date")
		}
	})

	t.Run("due_when_next_date_passed", func(t *testing.T) {
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.January, 1), day(2026, time.March, 10))
		if !TemplateIsDue(tpl, today) {
			t.Error("expected due when the sweep fell behind")
		}
	})

	t.Run("not_due_before_next_date", func(t *testing.T) {
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.January, 1), day(2026, time.March, 20))
		if TemplateIsDue(tpl, today) {
			t.Error("expected not due before next execution date")
		}
	})

	t.Run("not_due_before_start_date", func(t *testing.T) {
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.April, 1), day(2026, time.March, 1))
		if TemplateIsDue(tpl, today) {
			t.Error("expected not due before start date")
		}
	})

	t.Run("not_due_when_paused", func(t *testing.T) {
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.January, 1), today)
		tpl.Status = models.RecurringStatusPaused
		if TemplateIsDue(tpl, today) {
			t.Error("expected paused template not due")
		}
	})

	t.Run("still_due_past_end_date", func(t *testing.T) {
		// A pending generation survives the end date passing; the final
		// catch-up generation is owed and completion follows it.
		end := day(2026, time.March, 10)
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.January, 1), day(2026, time.March, 8))
		tpl.EndDate = &end
		if !TemplateIsDue(tpl, today) {
			t.Error("expected final catch-up generation past end date")
		}
	})

	t.Run("same_day_guard_blocks_second_run", func(t *testing.T) {
		tpl := scheduleTemplate(models.FrequencyDaily, day(2026, time.January, 1), today)
		generated := today
		tpl.LastGeneratedDate = &generated
		if TemplateIsDue(tpl, today) {
			t.Error("expected at most one generation per day")
		}
	})

	t.Run("same_day_guard_ignores_time_of_day", func(t *testing.T) {
		tpl := scheduleTemplate(models.FrequencyDaily, day(2026, time.January, 1), today)
		morning := time.Date(2026, time.March, 15, 1, 5, 0, 0, time.UTC)
		tpl.LastGeneratedDate = &morning
		evening := time.Date(2026, time.March, 15, 23, 50, 0, 0, time.UTC)
		if TemplateIsDue(tpl, evening) {
			t.Error("expected same calendar day to block regardless of clock time")
		}
	})
}

func TestDecideSchedule(t *testing.T) {
	today := day(2026, time.March, 15)

	t.Run("not_due_leaves_template_unchanged", func(t *testing.T) {
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.January, 1), day(2026, time.March, 20))
		d := DecideSchedule(tpl, today)
		if d.Generate {
			t.Fatal("expected no generation")
		}
		if !d.NextDate.Equal(tpl.NextExecutionDate) || d.NextStatus != tpl.Status {
			t.Error("expected schedule state unchanged")
		}
	})

	t.Run("advances_from_today_without_backfill", func(t *testing.T) {
		// Due since March 1; the sweep catches up with a single generation
		// and schedules the next one a full period from today.
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.January, 1), day(2026, time.March, 1))
		d := DecideSchedule(tpl, today)
		if !d.Generate {
			t.Fatal("expected generation")
		}
		want := day(2026, time.April, 15)
		if !d.NextDate.Equal(want) {
			t.Errorf("expected next date %s, got %s", want.Format("2006-01-02"), d.NextDate.Format("2006-01-02"))
		}
		if d.NextStatus != models.RecurringStatusActive {
			t.Errorf("expected ACTIVE, got %s", d.NextStatus)
		}
	})

	t.Run("completes_when_next_date_passes_end_date", func(t *testing.T) {
		end := day(2026, time.April, 1)
		tpl := scheduleTemplate(models.FrequencyMonthly, day(2026, time.January, 1), today)
		tpl.EndDate = &end
		d := DecideSchedule(tpl, today)
		if !d.Generate {
			t.Fatal("expected final generation inside the window")
		}
		if d.NextStatus != models.RecurringStatusCompleted {
			t.Errorf("expected COMPLETED, got %s", d.NextStatus)
		}
	})

	t.Run("catches_up_past_end_date_then_completes", func(t *testing.T) {
		end := day(2026, time.March, 10)
		tpl := scheduleTemplate(models.FrequencyDaily, day(2026, time.January, 1), day(2026, time.March, 8))
		tpl.EndDate = &end
		d := DecideSchedule(tpl, today)
		if !d.Generate {
			t.Fatal("expected final generation after end date passed")
		}
		if d.NextStatus != models.RecurringStatusCompleted {
			t.Errorf("expected COMPLETED, got %s", d.NextStatus)
		}
	})

	t.Run("generates_on_end_date_then_completes", func(t *testing.T) {
		end := today
		tpl := scheduleTemplate(models.FrequencyDaily, day(2026, time.January, 1), today)
		tpl.EndDate = &end
		d := DecideSchedule(tpl, today)
		if !d.Generate {
			t.Fatal("expected generation on the end date itself")
		}
		if d.NextStatus != models.RecurringStatusCompleted {
			t.Errorf("expected COMPLETED, got %s", d.NextStatus)
		}
	})
}
