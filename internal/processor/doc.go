// Package processor contains the user actions of the flashcards client. It
// wires the backend client, the LLM assist client, the audio player and the
// card store together, and runs every action as a job on a dispatch loop so
// that the store is only ever touched by the loop goroutine.
package processor
