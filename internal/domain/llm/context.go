package llm

import "context"

type contextKey string

const credentialKey contextKey = "llm-credential"

// ContextWithCredential stores a per-request provider credential in context.
// Clients are built from this value at call time; there is no process-global
// API key handle.
func ContextWithCredential(ctx context.Context, apiKey string) context.Context {
	if ctx == nil || apiKey == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialKey, apiKey)
}

// CredentialFromContext extracts the provider credential if one was provided.
func CredentialFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if key, ok := ctx.Value(credentialKey).(string); ok {
		return key
	}
	return ""
}
