package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// entity does not exist in the backing store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails structural validation before it
// reaches the aggregate (e.g. empty route name, negative cargo capacity).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConcurrencyConflict is returned when an optimistic-concurrency write
// loses the race: the stored version no longer matches the version the caller
// read. The mutation has no partial effect and may be retried by the caller.
// Handlers should map this to HTTP 409.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// ErrResourceConflict is returned when a driver or vehicle slot is already
// held by a different trip. Handlers should map this to HTTP 409.
var ErrResourceConflict = errors.New("resource conflict")

// ErrRuleViolation is the sentinel matched by every RuleViolationError via
// errors.Is. Handlers should map this to HTTP 422.
var ErrRuleViolation = errors.New("domain rule violation")

// RuleCode identifies which business rule a rejected operation violated.
// Codes are stable strings exposed on the API error body.
type RuleCode string

const (
	CodeDriverUnavailable         RuleCode = "DriverUnavailable"
	CodeVehicleUnavailable        RuleCode = "VehicleUnavailable"
	CodeInsufficientCargoCapacity RuleCode = "InsufficientCargoCapacity"
	CodeTripNotActive             RuleCode = "TripNotActive"
	CodeTripNotCompletable        RuleCode = "TripNotCompletable"
	CodeTripNotAtDestination      RuleCode = "TripNotAtDestination"
	CodeTripAlreadyStarted        RuleCode = "TripAlreadyStarted"
	CodeTripAlreadyCompleted      RuleCode = "TripAlreadyCompleted"
	CodeTripAlreadyAborted        RuleCode = "TripAlreadyAborted"
	CodeCheckpointOutOfOrder      RuleCode = "CheckpointOutOfOrder"
)

// RuleViolationError reports a rejected state transition together with the
// rule code that caused the rejection.
type RuleViolationError struct {
	Code    RuleCode
	Message string
}

func (e *RuleViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrRuleViolation) match any rule violation
// regardless of code.
func (e *RuleViolationError) Is(target error) bool {
	return target == ErrRuleViolation
}

func ruleViolation(code RuleCode, format string, args ...any) error {
	return &RuleViolationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewRuleViolation builds a RuleViolationError outside the domain package;
// the service layer raises DriverUnavailable/VehicleUnavailable itself.
func NewRuleViolation(code RuleCode, format string, args ...any) error {
	return ruleViolation(code, format, args...)
}

// RuleCodeOf extracts the rule code from err, or "" if err is not a rule
// violation.
func RuleCodeOf(err error) RuleCode {
	var rv *RuleViolationError
	if errors.As(err, &rv) {
		return rv.Code
	}
	return ""
}
