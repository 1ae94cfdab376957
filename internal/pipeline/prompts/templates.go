package prompts

import (
	_ "embed"
)

//go:embed template/faq_human.txt
var faqHuman string

//go:embed template/rag_qa_system.txt
var ragQASystem string

//go:embed template/contextualize_system.txt
var contextualizeSystem string

//go:embed template/agent_system.txt
var agentSystem string

const (
	supportSystem  = "You are a helpful Customer Support Assistant."
	reviewerSystem = "You are an expert automobile reviewer."
)

// Input keys bound to the request text by the built-in templates.
const (
	KeyFeedback = "feedback"
	KeyPrompt   = "prompt"
	KeyInput    = "input"
	KeyContext  = "context"
	KeyCar      = "car"
	KeyFeatures = "features"
)

// FeedbackClassification asks for one of positive, negative, neutral or escalate.
func FeedbackClassification() *Template {
	return New("feedback_classification",
		System(supportSystem),
		Human("Classify this feedback as positive, negative, neutral, or escalate. Respond with exactly one of those words: {feedback}."),
	)
}

func PositiveFeedback() *Template {
	return New("positive_feedback",
		System(supportSystem),
		Human("Generate a thank you message for this positive feedback: {feedback}."),
	)
}

func NegativeFeedback() *Template {
	return New("negative_feedback",
		System(supportSystem),
		Human("Generate a response addressing this negative feedback: {feedback}."),
	)
}

func NeutralFeedback() *Template {
	return New("neutral_feedback",
		System(supportSystem),
		Human("Generate a request for more details for this neutral feedback: {feedback}."),
	)
}

func EscalateFeedback() *Template {
	return New("escalate_feedback",
		System(supportSystem),
		Human("Generate an escalation of this feedback for a human agent: {feedback}."),
	)
}

// ContentClassification asks whether a prompt is an automobile FAQ or a content request.
func ContentClassification() *Template {
	return New("content_classification",
		System("You are a knowledgeable assistant trained to classify user prompts."),
		Human("Based on the following prompt, determine whether it pertains to an FAQ about automobiles or content generation. Respond with 'FAQ' or 'Content Generation': \n\n{prompt}\n"),
	)
}

func FAQ() *Template {
	return New("faq",
		System("You are a helpful FAQ assistant that can answer questions about automobiles."),
		Human(faqHuman),
	)
}

func ContentGeneration() *Template {
	return New("content_generation",
		System("You are a professional content writer. Generate content for a social media post."),
		Human("{prompt}\n"),
	)
}

// RetrievalQA answers {input} from retrieved {context}.
func RetrievalQA() *Template {
	return New("retrieval_qa",
		System(ragQASystem),
		Human("{input}"),
	)
}

// Contextualize rewrites {input} into a standalone question; use WithHistory.
func Contextualize() *Template {
	return New("contextualize_question",
		System(contextualizeSystem),
		Human("{input}"),
	).WithHistory()
}

// AgentSystem is the system prompt of the tool-calling agent.
func AgentSystem() *Template {
	return New("agent_system", System(agentSystem))
}

// CarFeatures lists the main features of {car}.
func CarFeatures() *Template {
	return New("car_features",
		System("You are a helpful automotive assistant giving expert reviews of automobiles."),
		Human("List the main features of the car {car}."),
	)
}

func ProsAnalysis() *Template {
	return New("pros_analysis",
		System(reviewerSystem),
		Human("Given these features of the car: {features}, list the pros of these features."),
	)
}

func ConsAnalysis() *Template {
	return New("cons_analysis",
		System(reviewerSystem),
		Human("Given these features of the car: {features}, list the cons of these features."),
	)
}
