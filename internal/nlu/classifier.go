// Package nlu adapts natural-language classifiers to the chat pipeline.
package nlu

import (
	"context"
	"errors"
)

// FallbackIntent is used whenever no classification is available.
const FallbackIntent = "fallback"

// ErrUpstream marks a classifier that could not be reached or answered badly.
var ErrUpstream = errors.New("nlu upstream unavailable")

// Classification is the result of classifying one utterance.
type Classification struct {
	Intent   string
	Entities map[string]string
	// Fallback is set when the classification was substituted after a failure.
	Fallback bool
}

// Fallback returns the classification used when the classifier fails.
func Fallback() Classification {
	return Classification{
		Intent:   FallbackIntent,
		Entities: map[string]string{},
		Fallback: true,
	}
}

// Classifier turns raw text into an intent and entities.
type Classifier interface {
	Parse(ctx context.Context, text string) (Classification, error)
}
