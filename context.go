package authflow

import "context"

type requestIDContextKey struct{}
type deviceLabelContextKey struct{}

// WithRequestID attaches a caller-chosen correlation identifier to ctx. The
// remote backend client forwards it on every request, and audit events carry
// it in their metadata.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the correlation identifier attached with
// WithRequestID, or the empty string.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

// WithDeviceLabel attaches a human-readable device label to ctx. Audit
// events record it so shared-device deployments can tell installs apart.
func WithDeviceLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, deviceLabelContextKey{}, label)
}

func deviceLabelFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	label, _ := ctx.Value(deviceLabelContextKey{}).(string)
	return label
}
