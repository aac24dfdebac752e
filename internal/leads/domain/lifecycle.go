package domain

import "time"

const (
	StatusOpen = "open"
	StatusWon  = "won"
	StatusLost = "lost"

	StageProspect    = "prospect"
	StageContacted   = "contacted"
	StageQualified   = "qualified"
	StageNegotiation = "negotiation"
)

var knownStatuses = map[string]struct{}{
	StatusOpen: {},
	StatusWon:  {},
	StatusLost: {},
}

var knownStages = map[string]struct{}{
	StageProspect:    {},
	StageContacted:   {},
	StageQualified:   {},
	StageNegotiation: {},
}

func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}

func IsKnownStage(stage string) bool {
	_, ok := knownStages[stage]
	return ok
}

// IsQualified reports whether the status/stage combination denotes a
// qualified lead. Only an open lead in the qualified stage counts; won and
// lost leads are past qualification.
func IsQualified(status, stage string) bool {
	return status == StatusOpen && stage == StageQualified
}

// IsTerminal reports whether the lead left the active pipeline.
func IsTerminal(status string) bool {
	return status == StatusWon || status == StatusLost
}

// HoursSinceContact returns the wall-clock hours elapsed since the last
// contact, or -1 when the lead has never been contacted. Timestamps are
// treated as absolute instants; no timezone normalization.
func HoursSinceContact(lastContacted *time.Time, now time.Time) float64 {
	if lastContacted == nil {
		return -1
	}
	return now.Sub(*lastContacted).Hours()
}
