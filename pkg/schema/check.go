package schema

import "fmt"

// CheckSeverity indicates whether an issue is an error or warning.
type CheckSeverity string

const (
	SeverityError   CheckSeverity = "error"
	SeverityWarning CheckSeverity = "warning"
)

// CheckIssue is a single catalog consistency problem with location context.
type CheckIssue struct {
	Path     string        `json:"path"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Severity CheckSeverity `json:"severity"`
}

// CheckResult aggregates the issues found while checking a catalog against its rules.
type CheckResult struct {
	Errors   []CheckIssue `json:"errors,omitempty"`
	Warnings []CheckIssue `json:"warnings,omitempty"`
}

// Valid returns true if there are no errors (warnings are acceptable).
func (r *CheckResult) Valid() bool {
	return len(r.Errors) == 0
}

// AddError appends an error-severity issue.
func (r *CheckResult) AddError(path, code, message string) {
	r.Errors = append(r.Errors, CheckIssue{
		Path: path, Code: code, Message: message, Severity: SeverityError,
	})
}

// AddWarning appends a warning-severity issue.
func (r *CheckResult) AddWarning(path, code, message string) {
	r.Warnings = append(r.Warnings, CheckIssue{
		Path: path, Code: code, Message: message, Severity: SeverityWarning,
	})
}

// Merge combines another CheckResult into this one.
func (r *CheckResult) Merge(other *CheckResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ToError converts the result to a CATALOG_ERROR if invalid, nil if valid.
func (r *CheckResult) ToError() error {
	if r.Valid() {
		return nil
	}

	msg := r.Errors[0].Message
	if len(r.Errors) > 1 {
		msg = fmt.Sprintf("catalog check failed with %d errors", len(r.Errors))
	}

	return NewError(ErrCodeCatalog, msg).
		WithDetails(map[string]any{
			"error_count":   len(r.Errors),
			"warning_count": len(r.Warnings),
			"errors":        r.Errors,
			"warnings":      r.Warnings,
		})
}
