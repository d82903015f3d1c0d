// Typed errors for the import pipeline, matched with errors.As by the API
// layer to pick status codes and user-facing messages.
package models

import "fmt"

// RejectionKind classifies why the address guard refused a URL.
type RejectionKind int

const (
	RejectionInvalidFormat RejectionKind = iota
	RejectionDisallowedProtocol
	RejectionPrivateAddress
)

func (k RejectionKind) String() string {
	switch k {
	case RejectionInvalidFormat:
		return "InvalidURLFormat"
	case RejectionDisallowedProtocol:
		return "DisallowedProtocol"
	case RejectionPrivateAddress:
		return "PrivateAddressRejected"
	}
	return "Unknown"
}

// URLRejectedError is returned when the address guard refuses a URL before
// any network access. Reason is the guard's verbatim, user-facing message.
type URLRejectedError struct {
	Kind   RejectionKind
	Reason string
}

func (e *URLRejectedError) Error() string {
	return e.Reason
}

// BrowserLaunchError is returned when the shared browser process could not be
// launched. It is fatal only for the request that triggered the launch.
type BrowserLaunchError struct {
	Err error
}

func (e *BrowserLaunchError) Error() string {
	return fmt.Sprintf("failed to launch browser: %v", e.Err)
}

func (e *BrowserLaunchError) Unwrap() error {
	return e.Err
}

// ScrapeError is returned when a page context could not be created or the
// fetch otherwise failed in a non-degradable way. Step names the failed
// operation for diagnostics.
type ScrapeError struct {
	Step string
	Err  error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape failed at %s: %v", e.Step, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}
