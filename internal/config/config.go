package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config is built once at process start and passed by reference into every
// component. No package reads the environment after FromEnv returns.
type Config struct {
	Environment string
	HTTPAddr    string
	DataDir     string
	DBPath      string

	// GatewayToken, when set, is required as a bearer token on every
	// inbound chat request.
	GatewayToken string

	AgentsConfigPath string
	PromptRoot       string

	// Tabular record store (Airtable-compatible API).
	RecordsAPIBase string
	RecordsToken   string
	RecordsBaseID  string

	RootTable            string
	RootGoalField        string
	RootContentTypeField string
	RootOutputTypeField  string
	RootOutputField      string
	RootStatusField      string
	RootAssembledField   string

	PersonaTable            string
	PersonaKnowledgeField   string
	PersonaRelationField    string
	DomainTable             string
	DomainKnowledgeField    string
	DomainRelationField     string
	EntityTable             string
	EntityKnowledgeField    string
	EntityRelationField     string
	ReferenceTable          string
	ReferenceKnowledgeField string
	ReferenceRelationField  string
	SlugField               string

	SQLBridgeURL   string
	SQLBridgeToken string

	WebhookBase  string
	WebhookToken string

	SearchAPIBase string
	SearchAPIKey  string

	LLMProvider   string
	LLMBaseURL    string
	LLMAPIKey     string
	LLMModel      string
	LLMTimeoutSec int

	PollEnabled      bool
	PollCron         string
	PollIntervalSec  int
	PollQueuedStatus string
	PollBatchLimit   int

	WorkerConcurrency int

	MCPEnabled bool
	MCPAddr    string

	RecordsTimeoutSec int
	WebhookTimeoutSec int
}

func FromEnv() Config {
	dataDir := stringOrDefault("RELAY_DATA_DIR", "/data")
	dbPath := stringOrDefault("RELAY_DB_PATH", filepath.Join(dataDir, "relay", "meta.sqlite"))

	return Config{
		Environment:  stringOrDefault("RELAY_ENV", "development"),
		HTTPAddr:     stringOrDefault("RELAY_HTTP_ADDR", ":8080"),
		DataDir:      dataDir,
		DBPath:       dbPath,
		GatewayToken: strings.TrimSpace(os.Getenv("RELAY_GATEWAY_TOKEN")),

		AgentsConfigPath: stringOrDefault("RELAY_AGENTS_CONFIG", filepath.Join(dataDir, "agents.json")),
		PromptRoot:       stringOrDefault("RELAY_PROMPT_ROOT", filepath.Join(dataDir, "prompts")),

		RecordsAPIBase: stringOrDefault("RELAY_RECORDS_API_BASE", "https://api.airtable.com/v0"),
		RecordsToken:   strings.TrimSpace(os.Getenv("RELAY_RECORDS_TOKEN")),
		RecordsBaseID:  strings.TrimSpace(os.Getenv("RELAY_RECORDS_BASE_ID")),

		RootTable:            stringOrDefault("RELAY_ROOT_TABLE", "Content Initiators"),
		RootGoalField:        stringOrDefault("RELAY_ROOT_GOAL_FIELD", "Goal"),
		RootContentTypeField: stringOrDefault("RELAY_ROOT_CONTENT_TYPE_FIELD", "Content Type"),
		RootOutputTypeField:  stringOrDefault("RELAY_ROOT_OUTPUT_TYPE_FIELD", "Output Type"),
		RootOutputField:      stringOrDefault("RELAY_ROOT_OUTPUT_FIELD", "Output"),
		RootStatusField:      stringOrDefault("RELAY_ROOT_STATUS_FIELD", "Status"),
		RootAssembledField:   stringOrDefault("RELAY_ROOT_ASSEMBLED_FIELD", "Assembled Context"),

		PersonaTable:            stringOrDefault("RELAY_PERSONA_TABLE", "Personas"),
		PersonaKnowledgeField:   stringOrDefault("RELAY_PERSONA_KNOWLEDGE_FIELD", "Persona XML"),
		PersonaRelationField:    stringOrDefault("RELAY_PERSONA_RELATION_FIELD", "Personas"),
		DomainTable:             stringOrDefault("RELAY_DOMAIN_TABLE", "Domains"),
		DomainKnowledgeField:    stringOrDefault("RELAY_DOMAIN_KNOWLEDGE_FIELD", "Domain XML"),
		DomainRelationField:     stringOrDefault("RELAY_DOMAIN_RELATION_FIELD", "Domains"),
		EntityTable:             stringOrDefault("RELAY_ENTITY_TABLE", "Entities"),
		EntityKnowledgeField:    stringOrDefault("RELAY_ENTITY_KNOWLEDGE_FIELD", "Entity XML"),
		EntityRelationField:     stringOrDefault("RELAY_ENTITY_RELATION_FIELD", "Entities"),
		ReferenceTable:          stringOrDefault("RELAY_REFERENCE_TABLE", "References"),
		ReferenceKnowledgeField: stringOrDefault("RELAY_REFERENCE_KNOWLEDGE_FIELD", "Reference XML"),
		ReferenceRelationField:  stringOrDefault("RELAY_REFERENCE_RELATION_FIELD", "References"),
		SlugField:               stringOrDefault("RELAY_SLUG_FIELD", "Slug"),

		SQLBridgeURL:   strings.TrimSpace(os.Getenv("RELAY_SQL_BRIDGE_URL")),
		SQLBridgeToken: os.Getenv("RELAY_SQL_BRIDGE_TOKEN"),

		WebhookBase:  strings.TrimSpace(os.Getenv("RELAY_WEBHOOK_BASE")),
		WebhookToken: os.Getenv("RELAY_WEBHOOK_TOKEN"),

		SearchAPIBase: stringOrDefault("RELAY_SEARCH_API_BASE", "https://api.tavily.com/search"),
		SearchAPIKey:  strings.TrimSpace(os.Getenv("RELAY_SEARCH_API_KEY")),

		LLMProvider:   stringOrDefault("RELAY_LLM_PROVIDER", "openai"),
		LLMBaseURL:    stringOrDefault("RELAY_LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:     strings.TrimSpace(os.Getenv("RELAY_LLM_API_KEY")),
		LLMModel:      stringOrDefault("RELAY_LLM_MODEL", "gpt-4o"),
		LLMTimeoutSec: intOrDefault("RELAY_LLM_TIMEOUT_SECONDS", 60),

		PollEnabled:      boolOrDefault("RELAY_POLL_ENABLED", false),
		PollCron:         strings.TrimSpace(os.Getenv("RELAY_POLL_CRON")),
		PollIntervalSec:  intOrDefault("RELAY_POLL_INTERVAL_SECONDS", 60),
		PollQueuedStatus: stringOrDefault("RELAY_POLL_QUEUED_STATUS", "Queued"),
		PollBatchLimit:   intOrDefault("RELAY_POLL_BATCH_LIMIT", 10),

		WorkerConcurrency: intOrDefault("RELAY_WORKER_CONCURRENCY", 4),

		MCPEnabled: boolOrDefault("RELAY_MCP_ENABLED", false),
		MCPAddr:    stringOrDefault("RELAY_MCP_ADDR", ":8090"),

		RecordsTimeoutSec: intOrDefault("RELAY_RECORDS_TIMEOUT_SECONDS", 20),
		WebhookTimeoutSec: intOrDefault("RELAY_WEBHOOK_TIMEOUT_SECONDS", 15),
	}
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
