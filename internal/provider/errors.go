// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"errors"
	"fmt"
)

// ErrUnsupportedProvider reports an unrecognized logical model name.
// Always fatal to the call site; never retried.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// CallError wraps a transport-level failure (network, auth, rate limit)
// from a single provider. Fatal in single-provider mode; the MOA
// orchestrator catches it at the branch boundary instead.
type CallError struct {
	// Provider is the normalized provider name that failed.
	Provider string

	// Err is the underlying transport error.
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("calling %s: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
