package domain

// ComplianceStatus is the SLA band of a stage.
type ComplianceStatus string

const (
	ComplianceOK       ComplianceStatus = "ok"
	ComplianceWarning  ComplianceStatus = "warning"
	ComplianceCritical ComplianceStatus = "critical"
)

// ComplianceResult is the outcome of classifying one stage. Percentage is nil
// when there was nothing to measure.
type ComplianceResult struct {
	Status     ComplianceStatus `json:"status"`
	Percentage *float64         `json:"percentage"`
}

// NoData is the result used when a stage has no usable timing data.
func NoData() ComplianceResult {
	return ComplianceResult{Status: ComplianceWarning}
}
