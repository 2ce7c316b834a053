package models

// Category is the fixed classification taxonomy for inquiries.
type Category string

// The fixed CategorySet. Order matters: it is the tie-break order used
// by the category predictor when two scores land within epsilon of
// each other.
const (
	CategoryTechnicalSupport Category = "technical_support"
	CategoryBilling          Category = "billing"
	CategorySales            Category = "sales"
	CategoryHR               Category = "hr"
	CategoryLegal            Category = "legal"
	CategoryProductFeedback  Category = "product_feedback"
)

// Categories returns the fixed CategorySet in tie-break order.
func Categories() []Category {
	return []Category{
		CategoryTechnicalSupport,
		CategoryBilling,
		CategorySales,
		CategoryHR,
		CategoryLegal,
		CategoryProductFeedback,
	}
}

// IsValid reports whether c is a member of CategorySet.
func (c Category) IsValid() bool {
	for _, candidate := range Categories() {
		if c == candidate {
			return true
		}
	}
	return false
}

// Sentiment is the fixed sentiment taxonomy for inquiries.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// IsValid reports whether s is a member of the sentiment set.
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	default:
		return false
	}
}

// Urgency is the fixed urgency taxonomy for inquiries.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// IsValid reports whether u is a member of the urgency set.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	default:
		return false
	}
}

// Department is the fixed DepartmentSet inquiries are routed to.
type Department string

const (
	DepartmentTechnicalSupport  Department = "technical_support"
	DepartmentFinance           Department = "finance"
	DepartmentSales             Department = "sales"
	DepartmentHR                Department = "hr"
	DepartmentLegal             Department = "legal"
	DepartmentProductManagement Department = "product_management"
	DepartmentEscalation        Department = "escalation"
	DepartmentGeneral           Department = "general"
)

// IsValid reports whether d is a member of DepartmentSet.
func (d Department) IsValid() bool {
	switch d {
	case DepartmentTechnicalSupport, DepartmentFinance, DepartmentSales,
		DepartmentHR, DepartmentLegal, DepartmentProductManagement,
		DepartmentEscalation, DepartmentGeneral:
		return true
	default:
		return false
	}
}

// DefaultCategoryDepartment is the built-in category_to_department mapping
// from spec.md §4.6. Unknown categories resolve to DepartmentGeneral.
var DefaultCategoryDepartment = map[Category]Department{
	CategoryTechnicalSupport: DepartmentTechnicalSupport,
	CategoryBilling:          DepartmentFinance,
	CategorySales:            DepartmentSales,
	CategoryHR:               DepartmentHR,
	CategoryLegal:            DepartmentLegal,
	CategoryProductFeedback:  DepartmentProductManagement,
}

// DepartmentFor resolves a category to its default department, falling
// back to DepartmentGeneral for unrecognized categories. This never fails.
func DepartmentFor(c Category) Department {
	if dept, ok := DefaultCategoryDepartment[c]; ok {
		return dept
	}
	return DepartmentGeneral
}

// AssignmentStrategy selects how the Consultant Pool picks a consultant.
type AssignmentStrategy string

const (
	AssignmentRoundRobin  AssignmentStrategy = "round_robin"
	AssignmentSkillMatch  AssignmentStrategy = "skill_match"
	AssignmentLeastLoaded AssignmentStrategy = "least_loaded"
)

// IsValid reports whether s is a recognized assignment strategy.
func (s AssignmentStrategy) IsValid() bool {
	switch s {
	case AssignmentRoundRobin, AssignmentSkillMatch, AssignmentLeastLoaded:
		return true
	default:
		return false
	}
}

// BackendMode controls whether a predictor uses its learned or
// rule-based backend (spec.md §4.5).
type BackendMode string

const (
	BackendModeForce BackendMode = "force"
	BackendModeAuto  BackendMode = "auto"
	BackendModeOff   BackendMode = "off"
)

// IsValid reports whether m is a recognized backend mode.
func (m BackendMode) IsValid() bool {
	switch m {
	case BackendModeForce, BackendModeAuto, BackendModeOff:
		return true
	default:
		return false
	}
}
