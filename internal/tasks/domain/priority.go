package domain

// Priority is the urgency level shared by leads and tasks.
// The order is total: low < medium < high < urgent.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// IsKnownPriority reports whether p is one of the four defined levels.
func IsKnownPriority(p Priority) bool {
	_, ok := priorityRank[p]
	return ok
}

// Bump raises the priority one step. Urgent saturates: bumping it is a no-op.
// Unknown priorities bump to medium.
func (p Priority) Bump() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh, PriorityUrgent:
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

// AtLeast reports whether p ranks at or above other.
// Unknown priorities rank below low.
func (p Priority) AtLeast(other Priority) bool {
	pr, ok := priorityRank[p]
	if !ok {
		pr = -1
	}
	or, ok := priorityRank[other]
	if !ok {
		or = -1
	}
	return pr >= or
}

// OrDefault returns p if it is a known priority, otherwise fallback.
func (p Priority) OrDefault(fallback Priority) Priority {
	if IsKnownPriority(p) {
		return p
	}
	return fallback
}

// CompressOffset shortens a due offset for high-urgency leads: leads at high
// or urgent priority get every computed offset reduced by one day, floored
// at zero. Lower priorities keep the base offset.
func CompressOffset(baseDays int, leadPriority Priority) int {
	if leadPriority.AtLeast(PriorityHigh) {
		if baseDays <= 0 {
			return 0
		}
		return baseDays - 1
	}
	if baseDays < 0 {
		return 0
	}
	return baseDays
}
