package datemath

import "time"

// Cell is one day slot in a month grid.
type Cell struct {
	Date Date
	// InMonth is false for filler days borrowed from the adjacent months.
	InMonth bool
}

// Grid is the 7xN day layout of a month, Sunday first.
type Grid struct {
	Year  int
	Month time.Month

	// Leading is the number of previous-month cells before the 1st.
	Leading int
	// Trailing is the number of next-month cells after the last day.
	Trailing int

	Cells []Cell
}

// Weeks returns the number of rows in the grid.
func (g Grid) Weeks() int {
	return len(g.Cells) / 7
}

// MonthGrid lays out the given month. Leading cells count equals
// FirstWeekday; trailing cells pad the total up to a multiple of 7.
func MonthGrid(year int, month time.Month) Grid {
	leading := int(FirstWeekday(year, month))
	days := DaysInMonth(year, month)

	total := leading + days
	trailing := 0
	if total%7 != 0 {
		trailing = 7 - total%7
	}

	g := Grid{
		Year:     year,
		Month:    month,
		Leading:  leading,
		Trailing: trailing,
		Cells:    make([]Cell, 0, total+trailing),
	}

	prevYear, prevMonth := AddMonths(year, month, -1)
	prevDays := DaysInMonth(prevYear, prevMonth)
	for i := leading - 1; i >= 0; i-- {
		g.Cells = append(g.Cells, Cell{
			Date: Date{Year: prevYear, Month: prevMonth, Day: prevDays - i},
		})
	}

	for day := 1; day <= days; day++ {
		g.Cells = append(g.Cells, Cell{
			Date:    Date{Year: year, Month: month, Day: day},
			InMonth: true,
		})
	}

	nextYear, nextMonth := AddMonths(year, month, 1)
	for day := 1; day <= trailing; day++ {
		g.Cells = append(g.Cells, Cell{
			Date: Date{Year: nextYear, Month: nextMonth, Day: day},
		})
	}

	return g
}
