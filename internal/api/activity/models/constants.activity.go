// Package models - Constants cho activity domain.
package models

// Vai trò của user trên một activity.
const (
	RoleSetter = "setter"
	RoleRep    = "rep"
)

// Trạng thái của appointment / discovery.
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusHeld      = "held"
	AppointmentStatusNoShow    = "no_show"
	AppointmentStatusCancelled = "cancelled"
)

// Trạng thái của deal.
const (
	DealStatusOpen = "open"
	DealStatusWon  = "won"
	DealStatusLost = "lost"
)

// Kênh touch của setter với contact.
const (
	TouchChannelDial  = "dial"
	TouchChannelSMS   = "sms"
	TouchChannelEmail = "email"
	TouchChannelDM    = "dm"
)
