package rag

import (
	"fmt"
	"strings"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
)

// systemPrompt instructs the model to stay inside the provided context and
// to cite the [Sn] identifiers of the passages it uses.
const systemPrompt = "You are a support assistant that answers questions about product and service documents. " +
	"Answer using only the information in the context passages below. " +
	"Each passage is labeled with an identifier like [S1]; cite the identifiers of every passage you draw on. " +
	"If the context does not contain enough information to answer, say so plainly."

// honestyPrompt is used when no context was retrieved but the caller still
// wants a model response; the answer is flagged as ungrounded.
const honestyPrompt = "You are a support assistant. No relevant documents were found for this question. " +
	"Answer honestly that you do not have documentation to support an answer, " +
	"and do not invent facts about products or services."

// BuildPrompt composes the user message for a question with its retrieved
// context. It is a pure function of its inputs so prompt assembly is
// testable without invoking the model.
func BuildPrompt(question string, hits []vectorstore.Hit) string {
	var b strings.Builder

	b.WriteString("--- Context passages ---\n\n")
	for i, hit := range hits {
		b.WriteString(fmt.Sprintf("[S%d] Source: %s (chunk %d", i+1, hit.SourcePath, hit.Ordinal))
		if hit.Page > 0 {
			b.WriteString(fmt.Sprintf(", page %d", hit.Page))
		}
		b.WriteString(fmt.Sprintf(", relevance %.2f)\n", hit.Score))
		b.WriteString(hit.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("--- End context ---\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)

	return b.String()
}
