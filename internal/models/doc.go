// Package models lists the OpenAI chat models available to the configured
// API key, so that a model can be picked for card assist.
package models
