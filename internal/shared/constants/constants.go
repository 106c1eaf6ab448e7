// Package constants holds names shared between persistence and migrations.
package constants

// Table names
const (
	TablePlans                = "plans"
	TableSubscriptions        = "subscriptions"
	TableSubscriptionPayments = "subscription_payments"
	TableSecurityAudit        = "security_audit"
)

// Header names
const (
	HeaderAPIKey           = "X-Api-Key"
	HeaderCallbackSecret   = "X-Callback-Secret"
	HeaderWebhookEvent     = "X-Lnsubs-Event"
	HeaderWebhookEventID   = "X-Lnsubs-Event-Id"
	HeaderWebhookSig       = "X-Lnsubs-Signature"
	HeaderWebhookTimestamp = "X-Lnsubs-Timestamp"
)

// Environments, matching server.mode
const (
	EnvDevelopment = "development"
	EnvDebug       = "debug"
	EnvTest        = "test"
	EnvProduction  = "release"
)

// Gin context keys set by the API key middleware
const (
	ContextKeyWallet = "wallet"
	ContextKeyRole   = "role"
)
