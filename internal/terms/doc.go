// Package terms turns a Japanese sentence and its main words into dictionary
// linked spans, wrapped into lines of a fixed character budget.
//
// A main word is either "word" or "word:link". When a card has no main words
// the clauses between "、" and "。" become the linked spans instead.
package terms
