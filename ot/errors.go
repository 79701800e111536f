package ot

import "fmt"

// ErrorSeverity represents the severity level of a font error.
type ErrorSeverity int

const (
	// SeverityCritical indicates a severe error that makes the font unusable or unreliable.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor indicates a significant error that may affect functionality but doesn't prevent usage.
	SeverityMajor
	// SeverityMinor indicates a minor issue that can be safely ignored in most cases.
	SeverityMinor
)

// String returns a human-readable representation of the error severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// FontError represents an error encountered while decoding or encoding
// font data. Errors carry the table tag, the section within the table and
// the byte offset where the error occured, so that low-level codec errors
// can be re-reported up the call chain without losing context.
type FontError struct {
	Table    Tag           // the table where the error occurred (zero tag for container errors)
	Section  string        // specific section within the table (e.g. "TableRecords", "SharedTuples")
	Issue    string        // human-readable description of the issue
	Severity ErrorSeverity // severity level of the error
	Offset   uint32        // byte offset in the font file where the error occurred (0 if unknown)
}

// Error implements the error interface.
func (e FontError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s/%s at offset %d: %s", e.Severity, e.Table, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s/%s: %s", e.Severity, e.Table, e.Section, e.Issue)
}

// tableError is a convenience constructor for a table-scoped decode error.
func tableError(tag Tag, section, issue string, offset uint32) FontError {
	return FontError{
		Table:    tag,
		Section:  section,
		Issue:    issue,
		Severity: SeverityCritical,
		Offset:   offset,
	}
}

// errFontFormat produces user level errors for malformed containers.
func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}

// errorCollector accumulates errors during font parsing. In best-effort
// mode, table-scoped errors land here instead of aborting the load.
type errorCollector struct {
	errors []FontError
}

// addError records a parsing error.
func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity, offset uint32) {
	ec.errors = append(ec.errors, FontError{
		Table:    table,
		Section:  section,
		Issue:    issue,
		Severity: severity,
		Offset:   offset,
	})
}

// hasErrors returns true if any errors have been recorded.
func (ec *errorCollector) hasErrors() bool {
	return len(ec.errors) > 0
}

// criticalErrors returns all errors with critical severity.
func (ec *errorCollector) criticalErrors() []FontError {
	critical := make([]FontError, 0)
	for _, err := range ec.errors {
		if err.Severity == SeverityCritical {
			critical = append(critical, err)
		}
	}
	return critical
}
