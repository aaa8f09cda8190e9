// Package assist asks a large language model to help filling in cards.
//
// A Client sends one prompt per call to a Provider (OpenAI chat completions
// or Gemini) and returns the raw answer text. SendPromptTyped decodes answers
// that are expected to be JSON. Provider failures are reported with the error
// types of package remote; nothing is retried.
package assist
