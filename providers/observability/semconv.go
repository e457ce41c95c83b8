package observability

// Shared attribute keys and event names. Keeping these as constants avoids
// drift between the transport layer, the engine, and the adapters when the
// same concept is reported from more than one place.
const (
	AttrError = "error"

	// HTTP transport attributes.
	AttrHTTPMethod          = "http.method"
	AttrHTTPURL             = "http.url"
	AttrHTTPHost            = "http.host"
	AttrHTTPStatusCode      = "http.status_code"
	AttrHTTPRequestBodySize = "http.request.body_size"
	AttrHTTPAttempt         = "http.attempt"
	AttrHTTPProxied         = "http.proxied"

	// Provider call attributes.
	AttrProviderName  = "provider.name"
	AttrProviderModel = "provider.model"
	AttrMessagesCount = "request.messages_count"
	AttrToolsCount    = "request.tools_count"
	AttrStreaming     = "request.streaming"

	// Tool execution attributes.
	AttrToolName  = "tool.name"
	AttrToolInput = "tool.input"
	AttrToolError = "tool.error"

	// Web search attributes.
	AttrSearchQuery   = "search.query"
	AttrSearchEngine  = "search.engine"
	AttrSearchResults = "search.results_count"
	AttrSearchCached  = "search.cache_hit"
)

// Span event names.
const (
	EventHTTPRequestPrepared = "http.request.prepared"
	EventHTTPRequestError    = "http.request.error"
	EventHTTPRequestRetry    = "http.request.retry"
	EventHTTPResponse        = "http.response.received"
	EventHTTPStreamStarted   = "http.stream.started"

	EventChatStart      = "chat.start"
	EventChatResubmit   = "chat.resubmit"
	EventChatCancelled  = "chat.cancelled"
	EventChatDone       = "chat.done"
	EventToolCallStart  = "tool.execution.start"
	EventToolCallEnd    = "tool.execution.end"
	EventSearchDecision = "search.decision"
)
