// Package errors provides standardized error handling patterns for DashStream
// components.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing).
//
// Classification lets components make retry and degradation decisions without
// hardcoded error string matching. The stream client converts classified
// errors into counters and status transitions; the relay uses classification
// to decide whether a failed publish is worth retrying.
//
// # Quick Start
//
// Use standard error variables for common conditions:
//
//	if !connected {
//	    return errors.ErrNotConnected
//	}
//
// Wrap errors with context for debugging:
//
//	if err := tr.open(ctx); err != nil {
//	    return errors.WrapTransient(err, "Client", "Connect", "open transport")
//	}
//
// Check classification for retry logic:
//
//	if err := publish(msg); err != nil {
//	    if errors.IsTransient(err) {
//	        // schedule a retry
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// This format enables consistent log parsing and operational monitoring. The
// Wrap family of functions applies the pattern while preserving error
// classification through the chain, and all types support errors.Is,
// errors.As, and Unwrap.
//
// # Context Cancellation
//
// Context errors (context.DeadlineExceeded, context.Canceled) are classified
// as Transient so context-based timeouts are handled the same way as network
// timeouts.
package errors
