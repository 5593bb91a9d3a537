// Package intent defines the Classifier interface for utterance intent
// classification backends.
//
// The classifier assigns each normalized transcript one label from a closed
// set, with a confidence the router uses for template bypass decisions.
// Classification failures are soft: an uninitialized or broken backend
// returns IntentUnknown with zero confidence instead of an error, and the
// router falls through to its clarification path.
package intent

import "context"

// Intent labels. The router's behavior is keyed on these exact strings, and
// trained classifier heads store them as their label set.
const (
	IntentGreeting        = "greeting"
	IntentAcknowledgment  = "acknowledgment"
	IntentOutOfScope      = "out_of_scope"
	IntentUnclearInput    = "unclear_input"
	IntentEquipmentQuery  = "equipment_query"
	IntentLabInfo         = "lab_info"
	IntentPeopleQuery     = "people_query"
	IntentCapabilityCheck = "capability_check"
	IntentProjectIdea     = "project_idea"
	IntentUnknown         = "unknown"
)

// KnowledgeIntents are the labels whose answers require retrieval; everything
// else is answered from templates or canned phrases.
var KnowledgeIntents = map[string]struct{}{
	IntentEquipmentQuery:  {},
	IntentLabInfo:         {},
	IntentPeopleQuery:     {},
	IntentCapabilityCheck: {},
	IntentProjectIdea:     {},
}

// Prediction is the result of classifying one utterance.
type Prediction struct {
	// Intent is one of the Intent* label constants.
	Intent string

	// Confidence is the winning class probability in [0, 1].
	Confidence float64
}

// Classifier assigns intent labels to normalized transcripts.
type Classifier interface {
	// Classify labels one utterance. An uninitialized backend returns
	// IntentUnknown with confidence 0 and a nil error; errors are reserved
	// for transient failures (e.g. the embedding call failed) where a retry
	// with the same input could succeed.
	Classify(ctx context.Context, text string) (Prediction, error)

	// Ready reports whether the backend has a trained model loaded.
	Ready() bool
}
