package report

type MarkerKind string

const (
	MarkerSign          MarkerKind = "sign"
	MarkerArrow         MarkerKind = "arrow"
	MarkerSponsorPlaque MarkerKind = "sponsor_plaque"
	MarkerPost          MarkerKind = "post"
	MarkerTable         MarkerKind = "table"
)

type MarkerCondition string

const (
	ConditionUnrecorded MarkerCondition = ""
	ConditionGood       MarkerCondition = "good"
	ConditionDamaged    MarkerCondition = "damaged"
	ConditionMissing    MarkerCondition = "missing"
)

// NeedsReplacement reports whether the recorded condition calls for a replacement item.
func (c MarkerCondition) NeedsReplacement() bool {
	return c == ConditionDamaged || c == ConditionMissing
}

// WorkOutput is the work-result part of the report.
type WorkOutput struct {
	Description string       `json:"description,omitempty"`
	Attachments []string     `json:"attachments,omitempty"`
	Markers     []MarkerItem `json:"markers,omitempty"`
}

// MarkerItem is a catalogued trail information marker (TIM) item of a renewal order.
type MarkerItem struct {
	ID              string          `json:"id"`
	InventoryID     string          `json:"inventory_id"`
	Kind            MarkerKind      `json:"kind"`
	Condition       MarkerCondition `json:"condition"`
	ManufactureYear int             `json:"manufacture_year,omitempty"`
	Orientation     string          `json:"orientation,omitempty"`
}
