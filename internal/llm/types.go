package llm

// Request is a single prompt sent to the model.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	// Trace carries opaque observability metadata (user id, instance id).
	// It never alters the completion, providers forward what they support.
	Trace map[string]string
}

// Response is the model output.
type Response struct {
	Content    string
	StopReason string
}
