// Package anki exports cards as a CSV file that Anki can import, optionally
// together with their audio files.
package anki
