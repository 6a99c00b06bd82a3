package domain

// AreaCheckStatus is the lifecycle phase of a postal code verification.
type AreaCheckStatus string

const (
	AreaCheckIdle    AreaCheckStatus = "idle"
	AreaCheckPending AreaCheckStatus = "pending"
	AreaCheckSuccess AreaCheckStatus = "success"
	AreaCheckFailure AreaCheckStatus = "failure"
)

// AreaCheckResult is the single current outcome of the area check.
// Exactly one status holds at any instant.
type AreaCheckResult struct {
	Status AreaCheckStatus `json:"status"`
	// Zip is the input the result refers to.
	Zip         string `json:"zip,omitempty"`
	Serviceable bool   `json:"serviceable,omitempty"`
	AreaName    string `json:"area_name,omitempty"`
	Reason      string `json:"reason,omitempty"`
	// Token identifies the request this result belongs to.
	Token uint64 `json:"token"`
}

// Passed reports whether the area check unblocks leaving the area step.
func (r AreaCheckResult) Passed() bool {
	return r.Status == AreaCheckSuccess && r.Serviceable
}

// BlockingCode maps a non-passing result to the error shown on the zip field.
// It returns the empty code when the check passed.
func (r AreaCheckResult) BlockingCode() ErrorCode {
	switch {
	case r.Passed():
		return ""
	case r.Status == AreaCheckSuccess:
		return CodeAreaUnserviceable
	case r.Status == AreaCheckFailure:
		return CodeAreaCheckFailed
	default:
		return CodeAreaPending
	}
}
