package answer

import (
	"fmt"
	"strings"

	"github.com/sandevgo/medichat/internal/core"
)

// RefusalMessage is returned verbatim when a document question finds no support.
const RefusalMessage = "I don't have enough information in the documents to answer that question."

// InsufficientContextPhrase is what the grounded prompt asks the model to say.
const InsufficientContextPhrase = "I don't have enough information to answer that"

var FarewellMessages = []string{
	"Goodbye! Feel free to come back anytime you have questions.",
	"See you later! Take care!",
	"Bye! I'm here whenever you need help.",
	"Have a great day! Come back if you need more information.",
	"Take care! See you soon!",
}

var ClarificationMessages = []string{
	"I'm not sure what you mean. Could you ask me a question about medical topics or your uploaded documents?",
	"Please provide more details. What would you like to know about?",
	"I'd be happy to help! Could you please rephrase your question?",
	"Can you ask me a specific question about medical topics or your documents?",
}

const groundedTemplate = `You are a helpful medical knowledge assistant. Use the following context from medical documents to answer the user's question.

CONTEXT:
%s
%s
USER QUESTION: %s

INSTRUCTIONS:
- Answer ONLY using information from the provided context
- If the context doesn't contain enough information, say "%s"
- Be concise and accurate
- Medical information should be presented responsibly
- Include relevant citations from the documents

ANSWER:`

const ungroundedTemplate = `You are a helpful medical knowledge assistant. Answer the user's question based on your general knowledge.
%s
USER QUESTION: %s

INSTRUCTIONS:
- Answer naturally and conversationally
- Be accurate and helpful
- If it's a greeting, respond warmly
- Medical information should be presented responsibly
- Add a short disclaimer when giving medical advice, recommending to consult a healthcare professional

ANSWER:`

// FormatContext labels each result with its position and source.
func FormatContext(results []core.RetrievalResult) string {
	parts := make([]string, len(results))
	for n, r := range results {
		source := r.Metadata.Source()
		if source == "" {
			source = "Unknown"
		}
		parts[n] = fmt.Sprintf("[Document %d - %s]\n%s\n", n+1, source, r.Content)
	}
	return strings.Join(parts, "\n---\n")
}

func formatHistory(history []core.Message) string {
	if len(history) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\nRECENT CONVERSATION:\n")
	for _, m := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", strings.ToUpper(string(m.Role)), m.Content))
	}
	return sb.String()
}

func BuildGroundedPrompt(query string, results []core.RetrievalResult, history []core.Message) string {
	return fmt.Sprintf(groundedTemplate, FormatContext(results), formatHistory(history), query, InsufficientContextPhrase)
}

func BuildUngroundedPrompt(query string, history []core.Message) string {
	return fmt.Sprintf(ungroundedTemplate, formatHistory(history), query)
}
