package config

import (
	"errors"
	"strings"
)

// Section is one block of a service configuration.
type Section interface {
	String() string
	Validate() error
}

// ValidateAll validates every section and joins the failures, so one run reports them all.
func ValidateAll(sections ...Section) error {
	var errs []error
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Describe concatenates the sections' String output for the startup log.
func Describe(sections ...Section) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(s.String())
	}
	return b.String()
}
