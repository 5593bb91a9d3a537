package orchestrator

import (
	"strings"

	"github.com/wiredbrain/axiom/pkg/provider/intent"
)

const promptBase = `You are AXIOM, a breakthrough Voice Intelligence for Drobotics Lab at JUIT.

CREATOR: Built by Shubham Dev (JUIT student) as part of the Wired Brain Project, which aims to bridge the gap between human cognition and robotic systems.

CRITICAL FACTS (ALWAYS USE THESE):
- JUIT = Jaypee University of Information Technology
- Vice Chancellor: Prof. (Dr.) Rajendra Kumar Sharma (Machine Learning expert)

PERSONALITY: Speak like a friendly lab assistant, not a robot. Be enthusiastic about robotics. Use casual, natural language.
`

const promptContextInstructions = `
IMPORTANT INSTRUCTIONS:
- Reference the conversation history above
- Build on previous topics and context
- If user mentioned a project/equipment/idea, acknowledge it in your response
- Maintain continuity with what was discussed before
`

const promptResponseRules = `
RESPONSE RULES:
- Maximum 2 natural sentences
- Use data provided below
- Reference previous context when relevant (e.g., "Since you mentioned...")
- Be warm and encouraging
- End with a question or invitation
- NO lists, bullets, or markdown
`

// buildPrompt assembles the system prompt: persona, conversation history,
// response rules, an intent-specific task line and the retrieved data block.
func buildPrompt(intentLabel, conversationContext, data string) string {
	var b strings.Builder
	b.WriteString(promptBase)

	if conversationContext != "" {
		b.WriteString("\n")
		b.WriteString(conversationContext)
		b.WriteString("\n")
		b.WriteString(promptContextInstructions)
	} else {
		b.WriteString("\nThis is the start of a new conversation.\n")
	}

	b.WriteString(promptResponseRules)
	b.WriteString("\n")
	b.WriteString(taskInstruction(intentLabel))
	b.WriteString("\n\nDATA:\n")
	b.WriteString(data)
	return b.String()
}

func taskInstruction(intentLabel string) string {
	switch intentLabel {
	case intent.IntentProjectIdea:
		return "Suggest 2-3 projects from the list below. Mention hardware needed."
	case intent.IntentEquipmentQuery:
		return "EQUIPMENT AVAILABILITY CHECK: Tell the user what we HAVE IN STOCK from the data below. If we don't have something, mention what we DO have that's similar. Reference prior context if the user mentioned an equipment before."
	case intent.IntentPeopleQuery, intent.IntentLabInfo:
		return "Use ONLY the authority data below. If asking about Vice Chancellor, say Prof. (Dr.) Rajendra Kumar Sharma."
	}
	return "Answer using the context provided below."
}
