package service

import (
	"errors"

	"github.com/gatherhq/gather/internal/calculator"
)

var (
	// ErrInvalidVote is returned when a vote value is not +1 or -1.
	ErrInvalidVote = errors.New("vote value must be +1 or -1")

	// ErrInvalidComposition is returned when a subgroup's active lists
	// reference ids outside its membership lists.
	ErrInvalidComposition = errors.New("active participants must be a subset of subgroup members")

	// ErrFeatureDisabled is returned when an operation targets an event
	// whose feature flag for that subsystem is off.
	ErrFeatureDisabled = errors.New("feature not enabled for this event")

	// ErrDateOutOfRange is returned when a presence date falls outside
	// the event's start/end interval.
	ErrDateOutOfRange = errors.New("date outside event interval")

	// ErrAlreadyGenerated is returned when an exchange round exists for
	// the requested group and year and replacement was not requested.
	ErrAlreadyGenerated = errors.New("exchange round already generated for this year")

	// ErrAssignmentImpossible is returned when the exchange generator
	// exhausts its retry budget without finding a valid assignment.
	ErrAssignmentImpossible = calculator.ErrAssignmentImpossible
)
