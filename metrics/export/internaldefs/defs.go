package internaldefs

import (
	"github.com/halcyonlabs/authflow"
)

// CounterDef describes one exported counter: the engine-side MetricID and
// the wire-facing name and help text shared by every exporter.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter the engine maintains, in export order.
var CounterDefs = []CounterDef{
	{ID: authflow.MetricLoginSuccess, Name: "authflow_login_success_total", Help: "Successful password logins."},
	{ID: authflow.MetricLoginFailure, Name: "authflow_login_failure_total", Help: "Failed password logins."},
	{ID: authflow.MetricChallengeIssued, Name: "authflow_challenge_issued_total", Help: "One-time code challenges issued."},
	{ID: authflow.MetricChallengeIssueFailed, Name: "authflow_challenge_issue_failed_total", Help: "One-time code challenge issue failures."},
	{ID: authflow.MetricChallengeVerifySuccess, Name: "authflow_challenge_verify_success_total", Help: "One-time codes accepted."},
	{ID: authflow.MetricChallengeVerifyFailure, Name: "authflow_challenge_verify_failure_total", Help: "One-time codes rejected."},
	{ID: authflow.MetricChallengeResend, Name: "authflow_challenge_resend_total", Help: "One-time code resends."},
	{ID: authflow.MetricChallengeAbandoned, Name: "authflow_challenge_abandoned_total", Help: "Challenges abandoned by the user."},
	{ID: authflow.MetricRegisterSuccess, Name: "authflow_register_success_total", Help: "Successful registrations."},
	{ID: authflow.MetricRegisterFailure, Name: "authflow_register_failure_total", Help: "Failed registrations."},
	{ID: authflow.MetricRegisterDuplicate, Name: "authflow_register_duplicate_total", Help: "Registrations rejected for an existing email."},
	{ID: authflow.MetricVerificationEmailSent, Name: "authflow_verification_email_sent_total", Help: "Verification emails requested."},
	{ID: authflow.MetricVerificationEmailThrottled, Name: "authflow_verification_email_throttled_total", Help: "Verification email requests blocked by the resend cooldown."},
	{ID: authflow.MetricVerificationConfirmSuccess, Name: "authflow_verification_confirm_success_total", Help: "Verification tokens confirmed."},
	{ID: authflow.MetricVerificationConfirmFailure, Name: "authflow_verification_confirm_failure_total", Help: "Verification token confirmations failed."},
	{ID: authflow.MetricPasswordResetRequest, Name: "authflow_password_reset_request_total", Help: "Password reset emails requested."},
	{ID: authflow.MetricPasswordResetConfirmSuccess, Name: "authflow_password_reset_confirm_success_total", Help: "Password resets confirmed."},
	{ID: authflow.MetricPasswordResetConfirmFailure, Name: "authflow_password_reset_confirm_failure_total", Help: "Password reset confirmations failed."},
	{ID: authflow.MetricEmailChangeRequest, Name: "authflow_email_change_request_total", Help: "Email change requests."},
	{ID: authflow.MetricEmailChangeConfirmSuccess, Name: "authflow_email_change_confirm_success_total", Help: "Email changes confirmed."},
	{ID: authflow.MetricEmailChangeConfirmFailure, Name: "authflow_email_change_confirm_failure_total", Help: "Email change confirmations failed."},
	{ID: authflow.MetricSessionAdopted, Name: "authflow_session_adopted_total", Help: "Sessions adopted by the watcher."},
	{ID: authflow.MetricSessionCleared, Name: "authflow_session_cleared_total", Help: "Sessions cleared (logout or forced)."},
	{ID: authflow.MetricSessionRefresh, Name: "authflow_session_refresh_total", Help: "Session refresh calls."},
	{ID: authflow.MetricSessionRefreshFailure, Name: "authflow_session_refresh_failure_total", Help: "Session refresh failures."},
}

// The engine carries exactly one histogram, for backend round-trip
// latency. Exporters hardcode it instead of iterating a definition table.
const (
	LatencyMetricName = "authflow_backend_latency_seconds"
	LatencyMetricHelp = "Backend call latency histogram."
)

// LatencyBucketBounds holds the upper bound of each latency bucket as
// rendered in the Prometheus le label. The last bucket is +Inf.
var LatencyBucketBounds = [authflow.LatencyBucketCount]string{
	"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf",
}

// LatencyBucketSuffixes holds instrument-name-safe forms of the bounds for
// exporters that cannot attach labels to instrument names.
var LatencyBucketSuffixes = [authflow.LatencyBucketCount]string{
	"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf",
}

// CumulativeLatency converts raw per-bucket counts into cumulative
// Prometheus-style bucket values plus the total observation count. The
// final return is false when the snapshot carries no latency data.
func CumulativeLatency(raw []uint64) ([authflow.LatencyBucketCount]uint64, uint64, bool) {
	var cumulative [authflow.LatencyBucketCount]uint64
	if len(raw) != authflow.LatencyBucketCount {
		return cumulative, 0, false
	}

	var running uint64
	for i, v := range raw {
		running += v
		cumulative[i] = running
	}
	return cumulative, running, true
}
