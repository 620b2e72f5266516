package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/frahmantamala/trail-report/internal/report"
)

// MinDescriptionLength is the number of characters below which an activity
// description is flagged as too short.
const MinDescriptionLength = 10

func ValidateWorkOutput(r *report.Report) Result {
	c := newCollector()
	if r == nil {
		return c.result
	}
	if r.OrderType == report.OrderTypeRenewal {
		for i := range r.WorkOutput.Markers {
			checkMarker(c, i, &r.WorkOutput.Markers[i])
		}
		return c.result
	}

	description := strings.TrimSpace(r.WorkOutput.Description)
	switch {
	case description == "":
		c.errorf("work_output.description", "", CodeWorkDescriptionMissing, "A description of the work performed is required")
	case utf8.RuneCountInString(description) < MinDescriptionLength:
		c.warnf("work_output.description", "", CodeWorkDescriptionShort, "The work description looks very short")
	}
	c.Field("work_output.attachments", "").
		Recommended(len(r.WorkOutput.Attachments) > 0, CodeWorkAttachmentMissing, "No photo or document of the work is attached")
	return c.result
}

func checkMarker(c *collector, index int, item *report.MarkerItem) {
	path := fmt.Sprintf("work_output.markers[%d]", index)
	label := item.InventoryID
	if label == "" {
		label = item.ID
	}

	switch item.Condition {
	case report.ConditionGood, report.ConditionDamaged, report.ConditionMissing:
	default:
		c.errorf(path+".condition", item.ID, CodeMarkerConditionMissing, "Condition of marker %s is not recorded", label)
		return
	}
	if !item.Condition.NeedsReplacement() {
		return
	}
	if item.Kind != report.MarkerSponsorPlaque && item.ManufactureYear <= 0 {
		c.errorf(path+".manufacture_year", item.ID, CodeMarkerYearMissing, "Manufacture year of marker %s is required", label)
	}
	if item.Kind == report.MarkerArrow {
		c.Field(path+".orientation", item.ID).
			Required(item.Orientation, CodeMarkerOrientationMissing, fmt.Sprintf("Orientation of arrow %s is required", label))
	}
}
