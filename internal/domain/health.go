package domain

import "time"

// VenueHealth is the per-venue operational snapshot updated by ingestors
// and the scheduler, and read by the health reporter.
type VenueHealth struct {
	Venue             string
	StreamConnected   bool
	RestOK            bool
	LastStreamMsgTS   time.Time
	LastRestTS        time.Time
	ReconnectCount    int
	ErrorRate         float64
	QueueDepth        int
	CoalescedCount    int64
	SchedulerLagMS    int64
	SubscribedSymbols []string
}
