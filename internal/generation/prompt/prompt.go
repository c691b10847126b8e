// Package prompt holds the instructions shared by the model-backed generators.
package prompt

import "fmt"

// System instructs the model to stay within the retrieved context.
const System = `You are a helpful assistant that answers questions based on the provided context.
Use only the information from the context to answer the question.
If the context doesn't contain enough information to answer the question, say so clearly.
Cite the sources when possible by referring to "Source N".
Be concise but comprehensive in your answers.`

// User lays out the retrieved context followed by the question.
func User(question, context string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", context, question)
}

// Single joins the system and user parts for completion-style APIs without roles.
func Single(question, context string) string {
	return System + "\n\n" + User(question, context)
}
