package main

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/snonux/flashcards/internal/card"
	"codeberg.org/snonux/flashcards/internal/terms"
)

func printCardList(w io.Writer, cards []card.Card) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "No cards found")
		return
	}

	count := 0
	for _, c := range cards {
		id := c.ID
		if c.IsSynthetic() {
			id = "-"
		} else {
			count++
		}
		fmt.Fprintf(w, "%-24s %s\n", id, c.Front)
		if c.Back != "" {
			fmt.Fprintf(w, "%-24s %s\n", "", c.Back)
		}
	}

	switch count {
	case 0:
	case 1:
		fmt.Fprintln(w, "\n1 card")
	default:
		fmt.Fprintf(w, "\n%d cards\n", count)
	}
}

func printCard(w io.Writer, c card.Card, lines [][]terms.Term) {
	for _, line := range lines {
		fmt.Fprintln(w, formatLine(line))
	}
	fmt.Fprintln(w)

	if c.Back != "" {
		fmt.Fprintln(w, c.Back)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "ID:    %s\n", c.ID)
	if len(c.Tags) > 0 {
		fmt.Fprintf(w, "Tags:  %s\n", strings.Join(c.Tags, ", "))
	}
	if c.Notes != "" {
		fmt.Fprintf(w, "Notes: %s\n", c.Notes)
	}
	for i, file := range c.Files {
		fmt.Fprintf(w, "Audio: %d %s\n", i, file)
	}

	links := dictionaryLinks(lines)
	if len(links) > 0 {
		fmt.Fprintln(w, "\nDictionary:")
		for _, link := range links {
			fmt.Fprintf(w, "  %s\n", link)
		}
	}
}

// formatLine renders one display line. Linked terms are bracketed and show
// their dictionary form when it differs.
func formatLine(line []terms.Term) string {
	var b strings.Builder
	for i, term := range line {
		switch {
		case term.IsLink() && term.Link != term.Word:
			fmt.Fprintf(&b, "[%s→%s]", term.Word, term.Link)
		case term.IsLink():
			fmt.Fprintf(&b, "[%s]", term.Word)
		default:
			b.WriteString(term.Word)
		}
		if term.TrailingPadding() && i < len(line)-1 {
			b.WriteString(" ")
		}
	}
	return b.String()
}

// dictionaryLinks lists "word: url" once per linked dictionary form
func dictionaryLinks(lines [][]terms.Term) []string {
	var links []string
	seen := make(map[string]bool)
	for _, term := range terms.Flatten(lines) {
		if !term.IsLink() || seen[term.Link] {
			continue
		}
		seen[term.Link] = true
		links = append(links, fmt.Sprintf("%s: %s", term.Link, term.DictionaryURL()))
	}
	return links
}
