package orchestrator

import (
	"github.com/sweetpotato0/vedabot/prompt"
)

const (
	verificationPromptName   = "verification"
	conversationalPromptName = "conversational"
)

const verificationSystemInstruction = "You are a knowledgeable and compassionate guide on Hinduism, " +
	"the Bhagavad Gita and Vedic wisdom. You verify information against scripture " +
	"and answer with warmth and accuracy."

const conversationalSystemInstruction = "You rewrite long answers into short, natural WhatsApp messages " +
	"while preserving every fact and citation."

const verificationTemplate = `You have received responses from multiple sources about the following question. Synthesize them into ONE accurate, verified answer.

Question: {{.Question}}

Scripture database results:
{{.ScriptureResults}}

Web search results:
{{.WebResults}}

General knowledge response:
{{.KnowledgeResults}}

Previous conversation:
{{.ConversationHistory}}

Instructions:
- Prefer information supported by the scripture database; it is the most authoritative source.
- When you reference a specific verse, cite it exactly as: As mentioned in <Book>, Chapter <N>, Verse <M>.
- If the sources conflict, say what the scripture says and note the difference briefly.
- If none of the sources answer the question, say so honestly instead of inventing an answer.
- Keep the tone warm and conversational, as if guiding a friend.

Verified answer:`

const conversationalTemplate = `Rework the following answer into a sequence of short WhatsApp messages.

Rules:
- Separate consecutive messages with the exact delimiter |||
- Each message must be self-contained and at most a few sentences.
- Use at most {{.MaxMessages}} messages.
- Preserve all citations of the form "As mentioned in <Book>, Chapter <N>, Verse <M>" word for word.
- Do not add new information, greetings or sign-offs.

Answer:
{{.VerifiedAnswer}}

Messages:`

// defaultPrompts builds the built-in template set. Deployments can override
// either template through WithPrompts.
func defaultPrompts() *prompt.Manager {
	m := prompt.NewManager()
	m.MustRegisterString(verificationPromptName, verificationTemplate)
	m.MustRegisterString(conversationalPromptName, conversationalTemplate)
	return m
}
