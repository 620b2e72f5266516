package validation

import (
	"github.com/frahmantamala/trail-report/internal/report"
)

// Verdict combines both parts of the completeness check.
type Verdict struct {
	Logistics   Result `json:"logistics"`
	WorkOutput  Result `json:"work_output"`
	CanComplete bool   `json:"can_complete"`
}

func Validate(r *report.Report) Verdict {
	v := Verdict{
		Logistics:  ValidateLogistics(r),
		WorkOutput: ValidateWorkOutput(r),
	}
	v.CanComplete = v.Logistics.CanComplete() && v.WorkOutput.CanComplete()
	return v
}

func (v Verdict) ErrorCount() int {
	return len(v.Logistics.Errors) + len(v.WorkOutput.Errors)
}

func (v Verdict) WarningCount() int {
	return len(v.Logistics.Warnings) + len(v.WorkOutput.Warnings)
}
