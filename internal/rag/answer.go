package rag

import (
	"context"
	"fmt"
	"strings"
)

const (
	// emptySearchAnswer is returned without calling the model when
	// retrieval found nothing.
	emptySearchAnswer = "No relevant data found in the knowledge base."

	// emptyGenerationAnswer substitutes for a blank model response.
	emptyGenerationAnswer = "Information not found in the knowledge base."

	// disclaimerPrefix marks answers drawn from general knowledge
	// instead of the retrieved documents.
	disclaimerPrefix = "⚠️ Not found in documents. Answering from general knowledge:"
)

const answerPrompt = `You are a knowledge assistant. Answer the question using the provided context.

Rules:
1. Prefer the context. If the context contains the answer, use it and nothing else.
2. You may combine and infer from facts stated in the context.
3. If the context does not contain the answer, you may answer from general knowledge, but you MUST start the answer with exactly: "%s"
4. Answer in the same language as the question.
5. Be concise. Do not repeat the question.

Context:
%s

Question:
%s

Answer:`

// answer generates a grounded answer from assembled context. A blank
// model response maps to a fixed not-found answer rather than an empty
// string.
func (p *Pipeline) answer(ctx context.Context, assembled, question string) (string, error) {
	prompt := fmt.Sprintf(answerPrompt, disclaimerPrefix, assembled, question)

	out, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return emptyGenerationAnswer, nil
	}
	return out, nil
}
