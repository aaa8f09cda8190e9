// Package card defines the flashcard entity shared by the backend client,
// the collection store and the presentation layer. A card that has not been
// saved yet only exists as Fields; the backend turns Fields into a Card with
// a server-assigned ID.
package card
