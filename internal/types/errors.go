package types

import (
	"errors"
	"fmt"
)

// ErrUserRejected is returned by wallets when the operator declines to sign.
var ErrUserRejected = errors.New("user rejected the request")

type BuildFailure string

const (
	InsufficientFunds       BuildFailure = "insufficient_funds"
	BelowRentExemption      BuildFailure = "below_rent_exemption"
	AccountResolutionFailed BuildFailure = "account_resolution_failed"
	InvalidAmount           BuildFailure = "invalid_amount"
	LedgerUnavailable       BuildFailure = "ledger_unavailable"
)

type BuildError struct {
	Reason BuildFailure
	Asset  AssetID
	Err    error
}

func NewBuildError(reason BuildFailure, asset AssetID, err error) *BuildError {
	return &BuildError{Reason: reason, Asset: asset, Err: err}
}

func (e *BuildError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("build %s transfer for %s: %s", e.Asset.Kind, e.Asset, e.Reason)
	}
	return fmt.Sprintf("build %s transfer for %s: %s: %v", e.Asset.Kind, e.Asset, e.Reason, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

type SubmitFailure string

const (
	UserRejected    SubmitFailure = "user_rejected"
	SigningFailed   SubmitFailure = "signing_failed"
	NetworkRejected SubmitFailure = "network_rejected"
	Timeout         SubmitFailure = "timeout"
)

type SubmitError struct {
	Reason    SubmitFailure
	Signature string
	Err       error
}

func NewSubmitError(reason SubmitFailure, signature string, err error) *SubmitError {
	return &SubmitError{Reason: reason, Signature: signature, Err: err}
}

func (e *SubmitError) Error() string {
	msg := "submit transaction: " + string(e.Reason)
	if e.Signature != "" {
		msg += " (" + e.Signature + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// IsUserRejected reports whether err carries a UserRejected submit failure.
func IsUserRejected(err error) bool {
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Reason == UserRejected
	}
	return false
}
