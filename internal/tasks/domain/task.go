package domain

// Type identifies the kind of follow-up work a task represents.
type Type string

const (
	TypeOutreachCall         Type = "outreach-call"
	TypeVideoCall            Type = "video-call"
	TypeMarketReport         Type = "market-report"
	TypeCompanyProfile       Type = "company-profile"
	TypeCompetitorScan       Type = "competitor-scan"
	TypeFinancialDataPull    Type = "financial-data-pull"
	TypeFourYearFinancials   Type = "four-year-financials"
	TypeInitialValuation     Type = "initial-valuation"
	TypeOpportunityProfiling Type = "opportunity-profiling"
)

var knownTypes = map[Type]struct{}{
	TypeOutreachCall:         {},
	TypeVideoCall:            {},
	TypeMarketReport:         {},
	TypeCompanyProfile:       {},
	TypeCompetitorScan:       {},
	TypeFinancialDataPull:    {},
	TypeFourYearFinancials:   {},
	TypeInitialValuation:     {},
	TypeOpportunityProfiling: {},
}

// IsKnownType reports whether t is part of the fixed task type enumeration.
func IsKnownType(t Type) bool {
	_, ok := knownTypes[t]
	return ok
}

// Status is the lifecycle state of a task.
// open -> snoozed is reversible; done is terminal.
type Status string

const (
	StatusOpen    Status = "open"
	StatusSnoozed Status = "snoozed"
	StatusDone    Status = "done"
)

// IsKnownStatus reports whether s is a defined task status.
func IsKnownStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusSnoozed, StatusDone:
		return true
	}
	return false
}

// IsEffective reports whether a task in this status still occupies the
// per-(lead, type) slot: at most one open or snoozed task of a type is
// expected to exist for a lead at a time.
func (s Status) IsEffective() bool {
	return s == StatusOpen || s == StatusSnoozed
}

// CanTransition reports whether a task may move from s to next.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return false
	}
	switch s {
	case StatusOpen:
		return next == StatusSnoozed || next == StatusDone
	case StatusSnoozed:
		return next == StatusOpen || next == StatusDone
	case StatusDone:
		return false
	}
	return false
}
