package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultInstruction is the fixed system instruction prepended to every model
// request. Exactly one variant is active per deployment; operators override it
// via ai.instruction when the scope, language policy, or contact details change.
const DefaultInstruction = "You are the virtual assistant for Stingrays Swim School in Sri Lanka. " +
	"Only answer questions about the swim school: classes, coaching, schedules, locations, " +
	"fees, and registration. If a question is outside that scope, politely explain that you " +
	"can only help with swim school matters and share the front desk contact instead. " +
	"Always reply in the same language the user wrote in."

// DefaultAIErrorMessage is returned to the user when the model backend fails.
const DefaultAIErrorMessage = "Sorry, I am unable to process your request at the moment."

const (
	defaultIdleTimeout     = 3 * time.Hour
	defaultAITimeout       = 2 * time.Minute
	defaultWhatsAppTimeout = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultDedupWindow     = 24 * time.Hour
	defaultDedupMaxEntries = 8192
)

// setDefaults registers default values for all optional configuration
// parameters on the given viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)

	// Secrets default to empty so viper knows the keys; AutomaticEnv only
	// reaches Unmarshal for registered keys. Validation rejects empty values.
	v.SetDefault("whatsapp.token", "")
	v.SetDefault("whatsapp.phone_number_id", "")
	v.SetDefault("whatsapp.verify_token", "")
	v.SetDefault("whatsapp.api_version", "v21.0")
	v.SetDefault("whatsapp.base_url", "https://graph.facebook.com")
	v.SetDefault("whatsapp.timeout", defaultWhatsAppTimeout)

	v.SetDefault("ai.backend", "openai")
	v.SetDefault("ai.token", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "gpt-4o")
	v.SetDefault("ai.temperature", 1.0)
	v.SetDefault("ai.instruction", DefaultInstruction)
	v.SetDefault("ai.timeout", defaultAITimeout)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.idle_timeout", defaultIdleTimeout)
	v.SetDefault("session.key_salt", "")

	v.SetDefault("dedup.max_entries", defaultDedupMaxEntries)
	v.SetDefault("dedup.window", defaultDedupWindow)

	v.SetDefault("messages.ai_error", DefaultAIErrorMessage)
}
