package domain

import "time"

// PeriodAttributes are the calendar fields derived from one date.
type PeriodAttributes struct {
	Year      int
	Semester  int // 1 for Jan-Jun, 2 for Jul-Dec
	Quarter   int
	Month     int
	MonthName string
	Week      int // ISO week number
}

// DerivePeriod computes the calendar attributes for a date. The derivation is
// deterministic, so a dim_period row never changes once minted.
func DerivePeriod(date time.Time) PeriodAttributes {
	month := int(date.Month())
	semester := 1
	if month > 6 {
		semester = 2
	}
	_, week := date.ISOWeek()

	return PeriodAttributes{
		Year:      date.Year(),
		Semester:  semester,
		Quarter:   (month-1)/3 + 1,
		Month:     month,
		MonthName: date.Month().String(),
		Week:      week,
	}
}
