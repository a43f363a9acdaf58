package followup

import "time"

// Anchor is a named timing reference resolved against a given day.
type Anchor struct {
	Name string
	Date time.Time
}

type yearly func(year int) time.Time

func fixed(m time.Month, d int) yearly {
	return func(year int) time.Time {
		return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
	}
}

var seasons = []struct {
	name string
	at   yearly
}{
	{"Spring", fixed(time.March, 20)},
	{"Summer", fixed(time.June, 21)},
	{"Fall", fixed(time.September, 22)},
	{"Winter", fixed(time.December, 21)},
}

var holidays = []struct {
	name string
	at   yearly
}{
	{"New Year", fixed(time.January, 1)},
	{"Easter", Easter},
	{"Thanksgiving", Thanksgiving},
	{"Christmas", fixed(time.December, 25)},
}

// Anchors resolves every relative, seasonal and holiday reference against today. Seasons
// and holidays use their next occurrence strictly after today.
func Anchors(today time.Time) []Anchor {
	today = Day(today)
	anchors := []Anchor{
		{Name: "Tomorrow", Date: today.AddDate(0, 0, 1)},
		{Name: "Next week", Date: today.AddDate(0, 0, 7)},
		{Name: "Next month", Date: AddMonths(today, 1)},
	}
	for _, s := range seasons {
		anchors = append(anchors, Anchor{Name: s.name, Date: nextOccurrence(today, s.at)})
	}
	for _, h := range holidays {
		anchors = append(anchors, Anchor{Name: h.name, Date: nextOccurrence(today, h.at)})
	}
	return anchors
}

func nextOccurrence(today time.Time, at yearly) time.Time {
	d := at(today.Year())
	if !d.After(today) {
		d = at(today.Year() + 1)
	}
	return d
}

// Easter computes Western Easter Sunday (anonymous Gregorian algorithm).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Thanksgiving is the fourth Thursday of November.
func Thanksgiving(year int) time.Time {
	first := time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Thursday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+21)
}
