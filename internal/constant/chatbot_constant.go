package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// Number of prior messages replayed to the model on each turn.
	ChatContextWindowSize = 5

	// FallbackSummary is stored when summary generation fails. Summary
	// failure never fails the processing pipeline.
	FallbackSummary = "Summary unavailable."

	SummaryPrompt = `Summarize the following document in 3-5 sentences. Be factual and concise. Capture the document's purpose, key points, and any conclusions. Do not add information that is not in the document.

=== DOCUMENT ===
%s`

	// QASystemPrompt frames every chat turn. The full document text is
	// inlined; answers must stay grounded in it.
	QASystemPrompt = `You are a document assistant. Answer the user's question using ONLY the document below.

RULES:
1. If the document contains the answer, give it directly and concisely.
2. If the document does NOT contain the answer, say "I don't have information about that in this document."
3. Do not use external knowledge. Do not speculate beyond what is written.
4. Keep answers to 2-4 sentences unless the question requires more.

=== DOCUMENT: %s ===
%s`
)
