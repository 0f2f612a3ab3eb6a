package service

var defaultSuggestions = []string{
	"Ask about shirts",
	"Check order status",
	"Return / exchange policy",
}

var suggestionsByIntent = map[string][]string{
	IntentGreet: defaultSuggestions,
	IntentProductInfo: {
		"What sizes are available?",
		"Do you have black shirts?",
		"What is the material?",
	},
	IntentOrderStatus: {
		"My order status",
		"I want to update my address",
	},
	IntentReturns: {
		"How do I return a shirt?",
		"What is your refund policy?",
	},
}

// SuggestionsFor returns follow-up utterances for intent. Unknown intents get
// the default list. The result is a fresh slice the caller may modify.
func SuggestionsFor(intent string) []string {
	list, ok := suggestionsByIntent[intent]
	if !ok {
		list = defaultSuggestions
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
