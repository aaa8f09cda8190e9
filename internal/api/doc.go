// Package api is the client for the flashcards backend. It stores cards,
// generates text-to-speech audio for them and serves the audio files.
// Every operation is a single HTTP round trip; nothing is retried.
package api
