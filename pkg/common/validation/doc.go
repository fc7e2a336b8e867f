// Package validation provides shared configuration validation helpers used
// by goguard component constructors. All helpers return *errors.ValidationError
// values that unwrap to errors.ErrInvalidConfiguration.
package validation
