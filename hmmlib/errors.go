package hmmlib

import "fmt"

// ShapeError reports a probability table or size parameter whose dimensions
// do not match the declared model sizes.
type ShapeError struct {
	Param string
	Want  int
	Got   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("hmmlib: %s has wrong shape: want %d, got %d", e.Param, e.Want, e.Got)
}

// ValidationError reports a probability table row that is not a valid
// distribution (negative entries, or a sum away from 1 beyond tolerance).
type ValidationError struct {
	Param string
	Row   int
	Sum   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("hmmlib: %s row %d is not a probability distribution (sum=%g)", e.Param, e.Row, e.Sum)
}

// DomainError reports an observation symbol outside the alphabet of its
// channel.
type DomainError struct {
	Time    int
	Channel int
	Symbol  int
	Limit   int
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("hmmlib: symbol %d at time %d out of range for channel %d (alphabet size %d)",
		e.Symbol, e.Time, e.Channel, e.Limit)
}

// InitializationError reports an operation that requires model parameters
// which have not been set.
type InitializationError struct {
	Reason string
}

func (e *InitializationError) Error() string {
	return "hmmlib: " + e.Reason
}

// ConfigError reports an unrecognized option value.
type ConfigError struct {
	Option string
	Value  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("hmmlib: unrecognized %s %q", e.Option, e.Value)
}
