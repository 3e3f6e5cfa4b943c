package domain

import "time"

// TradingCalendar classifies calendar dates as open or closed for the
// exchange. NEPSE closes Friday and Saturday, but the set is
// configurable so the weekend definition is not baked in.
type TradingCalendar struct {
	closed map[time.Weekday]bool
}

func NewTradingCalendar(closedDays map[time.Weekday]bool) TradingCalendar {
	closed := make(map[time.Weekday]bool, len(closedDays))
	for d, v := range closedDays {
		if v {
			closed[d] = true
		}
	}
	return TradingCalendar{closed: closed}
}

// IsClosed reports whether the exchange is closed on the given date.
func (c TradingCalendar) IsClosed(t time.Time) bool {
	return c.closed[t.Weekday()]
}
