// Package audio plays the audio files the backend generates for cards.
// Files are streamed from their URL by a platform command line player.
package audio
