package entities

type Capability string

const (
	CapabilityCreateEvents  Capability = "create events"
	CapabilityEditEvents    Capability = "edit events"
	CapabilityVerifyTickets Capability = "verify tickets"
	CapabilityAdmin         Capability = "admin"
)
