package domain

// Template holds the static scheduling defaults for a task type: how many
// days after creation the task is due, and which priority it carries when
// the owning lead has none.
type Template struct {
	DueOffsetDays   int
	DefaultPriority Priority
}

// Unknown task types fall back to these defaults rather than failing.
const (
	fallbackDueOffsetDays = 3
)

var templates = map[Type]Template{
	TypeOutreachCall:         {DueOffsetDays: 0, DefaultPriority: PriorityMedium},
	TypeVideoCall:            {DueOffsetDays: 0, DefaultPriority: PriorityMedium},
	TypeMarketReport:         {DueOffsetDays: 1, DefaultPriority: PriorityMedium},
	TypeCompanyProfile:       {DueOffsetDays: 1, DefaultPriority: PriorityMedium},
	TypeCompetitorScan:       {DueOffsetDays: 2, DefaultPriority: PriorityMedium},
	TypeFinancialDataPull:    {DueOffsetDays: 2, DefaultPriority: PriorityHigh},
	TypeFourYearFinancials:   {DueOffsetDays: 3, DefaultPriority: PriorityHigh},
	TypeInitialValuation:     {DueOffsetDays: 5, DefaultPriority: PriorityHigh},
	TypeOpportunityProfiling: {DueOffsetDays: 5, DefaultPriority: PriorityMedium},
}

// TemplateFor returns the scheduling template for a task type. Types without
// an entry get the fixed fallback (3 days, medium priority); the lookup is
// never fatal.
func TemplateFor(t Type) Template {
	if tpl, ok := templates[t]; ok {
		return tpl
	}
	return Template{DueOffsetDays: fallbackDueOffsetDays, DefaultPriority: PriorityMedium}
}

// StarterSet is the fixed onboarding fan-out created when a lead's sector
// becomes known, in creation order with staggered due offsets (0,0,1,1,2).
var StarterSet = []Type{
	TypeOutreachCall,
	TypeVideoCall,
	TypeMarketReport,
	TypeCompanyProfile,
	TypeCompetitorScan,
}

// ContactTypes are the re-engagement task types escalated when a lead goes
// stale.
var ContactTypes = []Type{
	TypeVideoCall,
	TypeOutreachCall,
}
