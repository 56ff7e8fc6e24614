// Package retry provides exponential backoff and retry logic for transient
// failures on the device transport (the automation agent and adb).
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter on exponential delays
//   - Context support for cancellation
//   - Configurable retry predicates
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.call(ctx, "click", x, y)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    time.Second,
//			MaxDelay:     15 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// The default predicate only retries device transport errors. UI probe
// misses and navigation failures resolve by skipping the unit being
// processed, so retrying them would only burn session time.
package retry
