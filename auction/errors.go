package auction

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrAuctionDisabled       = errors.New("auction disabled")
	ErrNotOpeningPeriod      = errors.New("not opening period")
	ErrAuctionNotEnded       = errors.New("auction not ended")
	ErrPriceTooLow           = errors.New("auction price too low")
	ErrBadRequest            = errors.New("bad request")
	ErrAlreadySettled        = errors.New("auction already settled")
	ErrNotWinner             = errors.New("not winner")
	ErrSettlementDisabled    = errors.New("settlement path disabled")
	ErrDurationOutOfRange    = errors.New("auction duration out of range")
	ErrRandomnessUnavailable = errors.New("randomness unavailable")
	ErrAlreadyInstantiated   = errors.New("already instantiated")
	ErrNotInstantiated       = errors.New("not instantiated")
	ErrZeroDuration          = errors.New("zero auction duration")
)

// Each structured error below unwraps to its sentinel and reports its
// fields via Details, which the API renders alongside the message.

type NotOwnerError struct {
	Sender string
	Owner  string
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("%s is not the owner", e.Sender)
}

func (e *NotOwnerError) Unwrap() error { return ErrUnauthorized }

func (e *NotOwnerError) Details() map[string]any {
	return map[string]any{"sender": e.Sender}
}

type NotOpeningPeriodError struct {
	Start uint64
	End   uint64
}

func (e *NotOpeningPeriodError) Error() string {
	return fmt.Sprintf("not opening period, window is [%d, %d]", e.Start, e.End)
}

func (e *NotOpeningPeriodError) Unwrap() error { return ErrNotOpeningPeriod }

func (e *NotOpeningPeriodError) Details() map[string]any {
	return map[string]any{"start": e.Start, "end": e.End}
}

type PriceTooLowError struct {
	MinPrice sdkmath.Uint
	Current  sdkmath.Uint
}

func (e *PriceTooLowError) Error() string {
	return fmt.Sprintf("auction price too low: min price %s, current %s", e.MinPrice, e.Current)
}

func (e *PriceTooLowError) Unwrap() error { return ErrPriceTooLow }

func (e *PriceTooLowError) Details() map[string]any {
	return map[string]any{"min_price": e.MinPrice.String(), "current": e.Current.String()}
}

type DurationOutOfRangeError struct {
	Duration uint64
	Min      uint64
	Max      uint64
}

func (e *DurationOutOfRangeError) Error() string {
	return fmt.Sprintf("duration %d outside of [%d, %d]", e.Duration, e.Min, e.Max)
}

func (e *DurationOutOfRangeError) Unwrap() error { return ErrDurationOutOfRange }

func (e *DurationOutOfRangeError) Details() map[string]any {
	return map[string]any{"duration": e.Duration, "min": e.Min, "max": e.Max}
}

func badRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
