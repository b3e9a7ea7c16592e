package models

import "fmt"

// LoadError reports a dataset that could not be read or parsed at all.
// It is fatal for the whole pipeline: nothing renders from a broken load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsTransient returns false; a broken input file does not fix itself
func (e *LoadError) IsTransient() bool {
	return false
}

// ValidationError represents a data or request validation error.
// It halts the affected view only; other views are unaffected.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// DataGapError reports a (region, district, year) selection with no matching
// rows. Surfaced as a warning, not fatal.
type DataGapError struct {
	Region   string
	District string
	Year     int
}

func (e *DataGapError) Error() string {
	if e.Year > 0 {
		return fmt.Sprintf("no data for district %s in %s for year %d", e.District, e.Region, e.Year)
	}
	return fmt.Sprintf("no data for district %s in %s", e.District, e.Region)
}

// IsTransient returns false; gaps in the source data persist until re-ingestion
func (e *DataGapError) IsTransient() bool {
	return false
}
