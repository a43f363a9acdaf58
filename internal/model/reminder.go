package model

// ReminderStatus says what should happen to a queued follow-up reminder.
type ReminderStatus string

const (
	// ReminderDue means the contact still waits on this reminder.
	ReminderDue ReminderStatus = "due"
	// ReminderSent means the reminder for the current date already went out.
	ReminderSent ReminderStatus = "sent"
	// ReminderSuperseded means the contact is gone, left Future, or moved its date.
	ReminderSuperseded ReminderStatus = "superseded"
)
