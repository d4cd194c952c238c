package calendar

// SlotTemplate describes one mass time and its staffing tier
type SlotTemplate struct {
	Time     string
	MinStaff int
	MaxStaff int
	Label    string
}

// Regular schedule
var (
	SundayMasses = []SlotTemplate{
		{Time: "08:00", MinStaff: 15, MaxStaff: 20, Label: "Sunday 8h"},
		{Time: "10:00", MinStaff: 20, MaxStaff: 28, Label: "Sunday 10h"},
		{Time: "19:00", MinStaff: 20, MaxStaff: 28, Label: "Sunday 19h"},
	}

	WeekdayMass = SlotTemplate{Time: "06:30", MinStaff: 5, MaxStaff: 8, Label: "Weekday mass"}
)

// Novena schedule
var (
	NovenaWeekdayMass  = SlotTemplate{Time: "19:30", MinStaff: 18, MaxStaff: 20, Label: "Novena mass"}
	NovenaSaturdayMass = SlotTemplate{Time: "19:00", MinStaff: 18, MaxStaff: 20, Label: "Novena mass"}
)

// Feast day schedules, chosen by the weekday the feast day falls on
var (
	FeastWeekdayMasses = []SlotTemplate{
		{Time: "07:00", MinStaff: 12, MaxStaff: 12, Label: "Feast morning"},
		{Time: "15:00", MinStaff: 12, MaxStaff: 12, Label: "Feast afternoon"},
		{Time: "19:30", MinStaff: 20, MaxStaff: 25, Label: "Feast evening"},
	}

	FeastSaturdayMasses = []SlotTemplate{
		{Time: "07:00", MinStaff: 12, MaxStaff: 12, Label: "Feast morning"},
		{Time: "15:00", MinStaff: 12, MaxStaff: 12, Label: "Feast afternoon"},
		{Time: "19:00", MinStaff: 20, MaxStaff: 25, Label: "Feast evening"},
	}

	FeastSundayMasses = []SlotTemplate{
		{Time: "08:00", MinStaff: 20, MaxStaff: 20, Label: "Feast 8h"},
		{Time: "10:00", MinStaff: 25, MaxStaff: 28, Label: "Feast 10h"},
		{Time: "15:00", MinStaff: 18, MaxStaff: 20, Label: "Feast 15h"},
		{Time: "19:00", MinStaff: 25, MaxStaff: 28, Label: "Feast 19h"},
	}

	// FestivalFeastMasses applies when the feast day falls in the festival month
	FestivalFeastMasses = []SlotTemplate{
		{Time: "07:00", MinStaff: 12, MaxStaff: 12, Label: "Festival 7h"},
		{Time: "10:00", MinStaff: 12, MaxStaff: 12, Label: "Festival 10h"},
		{Time: "12:00", MinStaff: 12, MaxStaff: 12, Label: "Festival midday"},
		{Time: "15:00", MinStaff: 12, MaxStaff: 12, Label: "Festival 15h"},
		{Time: "17:00", MinStaff: 15, MaxStaff: 15, Label: "Festival 17h"},
		{Time: "19:30", MinStaff: 20, MaxStaff: 25, Label: "Festival solemn mass"},
	}
)
