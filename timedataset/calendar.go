package timedataset

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// USMarketHolidays are the federal holidays on which US equity markets are closed.
var USMarketHolidays = []*cal.Holiday{
	us.NewYear,
	us.MlkDay,
	us.PresidentsDay,
	us.MemorialDay,
	us.Juneteenth,
	us.IndependenceDay,
	us.LaborDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

// NewTradingCalendar returns a Monday to Friday business calendar with the provided
// holidays. With no holidays the US market holidays are used.
func NewTradingCalendar(holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	if len(holidays) == 0 {
		holidays = USMarketHolidays
	}
	c.AddHoliday(holidays...)
	return c
}

// NextTradingDays returns the n trading days strictly after last, keeping last's time of day.
func NextTradingDays(c *cal.BusinessCalendar, last time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	if c == nil {
		c = NewTradingCalendar()
	}
	days := make([]time.Time, 0, n)
	curr := last
	for len(days) < n {
		curr = curr.AddDate(0, 0, 1)
		if c.IsWorkday(curr) {
			days = append(days, curr)
		}
	}
	return days
}

// NextIntervals returns the n time points after last spaced by interval.
func NextIntervals(last time.Time, interval time.Duration, n int) []time.Time {
	if n <= 0 || interval <= 0 {
		return nil
	}
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, last.Add(time.Duration(i+1)*interval))
	}
	return t
}
