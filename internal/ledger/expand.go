// Package ledger expands a normalised plan template into execution records.
package ledger

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/plan"
	"alcyxob/program-ledger/internal/schedule"
)

// Input collects everything a single expansion needs.
type Input struct {
	Enrollment  domain.Enrollment
	Template    *plan.Template
	PeriodCount int
	Intensities IntensityTable
	// Categories holds catalogue categories by item id, used when a template
	// item does not carry its own category.
	Categories map[int64]string
}

// Expand enumerates periods × weeks × days-with-items × items and returns one
// unsaved record per combination, in schedule order. The result depends only
// on the input, so repeated calls produce the same keys.
func Expand(in Input) []domain.ExecutionRecord {
	tpl := in.Template
	if !tpl.HasWeeks() || tpl.ItemCount() == 0 {
		return nil
	}
	periods := in.PeriodCount
	if periods < 1 {
		periods = domain.DefaultPeriodCount
	}
	weekCount := tpl.WeekCount()
	enr := in.Enrollment

	records := make([]domain.ExecutionRecord, 0, tpl.ItemCount()*periods)
	for period := 1; period <= periods; period++ {
		for week := 1; week <= weekCount; week++ {
			w := tpl.Week(week)
			if w == nil {
				continue
			}
			for _, day := range w.Days {
				date := schedule.ScheduledDate(enr.StartDate, period, week, day.Number-1, weekCount)
				for _, item := range day.Items {
					records = append(records, domain.ExecutionRecord{
						EnrollmentID:     enr.ID,
						ActivityID:       enr.ActivityID,
						ClientID:         enr.ClientID,
						ItemID:           item.ItemID,
						Block:            item.Block,
						Order:            item.Order,
						PeriodIndex:      period,
						WeekIndex:        week,
						DayNumber:        day.Number,
						ScheduledDate:    date,
						AppliedIntensity: in.Intensities.For(categoryOf(item, in.Categories)),
					})
				}
			}
		}
	}
	return records
}

func categoryOf(item plan.PlanItem, catalog map[int64]string) string {
	if item.Category != "" {
		return item.Category
	}
	return catalog[item.ItemID]
}
