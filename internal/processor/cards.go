package processor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"codeberg.org/snonux/flashcards/internal"
	"codeberg.org/snonux/flashcards/internal/assist"
	"codeberg.org/snonux/flashcards/internal/card"
	"codeberg.org/snonux/flashcards/internal/terms"
)

// LoadCards fetches the collection unless it is loaded already and force is
// false. A failed load leaves a single error card in the collection, which is
// returned together with the error.
func (p *Processor) LoadCards(force bool) ([]card.Card, error) {
	var needsLoad bool
	if err := p.onLoop(func() { needsLoad = p.store.NeedsLoad(force) }); err != nil {
		return nil, err
	}

	if needsLoad {
		var fetched []card.Card
		err := p.run("load cards",
			func(ctx context.Context) error {
				var err error
				fetched, err = p.api.ListCards(ctx)
				return err
			},
			func(err error) error {
				return p.store.ApplyLoad(fetched, err)
			})
		if err != nil {
			cards, cardsErr := p.Cards()
			if cardsErr != nil {
				return nil, err
			}
			return cards, err
		}
	}

	return p.Cards()
}

// Cards returns the collection as it is now, newest first
func (p *Processor) Cards() ([]card.Card, error) {
	var cards []card.Card
	err := p.onLoop(func() { cards = p.store.Cards() })
	return cards, err
}

// Search returns the cards matching query, see store.Filter
func (p *Processor) Search(query string) ([]card.Card, error) {
	if _, err := p.LoadCards(false); err != nil {
		return nil, err
	}

	var cards []card.Card
	err := p.onLoop(func() { cards = p.store.Filter(query) })
	return cards, err
}

// Show returns a card and its front broken into display lines
func (p *Processor) Show(id string) (card.Card, [][]terms.Term, error) {
	c, err := p.find(id)
	if err != nil {
		return card.Card{}, nil, err
	}
	return c, terms.Build(c.Front, c.MainWords, p.maxLineChars), nil
}

// Shuffle puts the loaded collection into random order
func (p *Processor) Shuffle() ([]card.Card, error) {
	if _, err := p.LoadCards(false); err != nil {
		return nil, err
	}

	var cards []card.Card
	err := p.onLoop(func() {
		p.store.Shuffle(p.rng)
		cards = p.store.Cards()
	})
	return cards, err
}

// SaveCard creates a card when id is empty and updates card id otherwise.
// The saved card is merged into the collection.
func (p *Processor) SaveCard(id string, fields card.Fields) (card.Card, error) {
	fields = fields.Clean()
	if err := card.Validate(fields); err != nil {
		return card.Card{}, err
	}

	action := card.Create
	name := "create card"
	if id != "" {
		if err := card.ValidateID(id); err != nil {
			return card.Card{}, err
		}
		action = card.Update
		name = "update card " + id
	}

	var saved card.Card
	err := p.run(name,
		func(ctx context.Context) error {
			var err error
			if action == card.Create {
				saved, err = p.api.CreateCard(ctx, fields)
			} else {
				saved, err = p.api.UpdateCard(ctx, id, fields)
			}
			return err
		},
		func(err error) error {
			if err != nil {
				return err
			}
			p.store.Reconcile(saved, action)
			return nil
		})
	if err != nil {
		return card.Card{}, err
	}

	p.logger.Info("Saved card", zap.String("id", saved.ID), zap.Stringer("action", action))
	return saved, nil
}

// DeleteCard deletes a card and drops it from the collection
func (p *Processor) DeleteCard(id string) error {
	if err := card.ValidateID(id); err != nil {
		return err
	}

	var deleted card.Card
	return p.run("delete card "+id,
		func(ctx context.Context) error {
			var err error
			deleted, err = p.api.DeleteCard(ctx, id)
			return err
		},
		func(err error) error {
			if err != nil {
				return err
			}
			p.store.Reconcile(deleted, card.Delete)
			return nil
		})
}

// Speak generates speech for text and plays the first audio file
func (p *Processor) Speak(text string) error {
	text = internal.CleanString(text)
	if text == "" {
		return fmt.Errorf("nothing to speak")
	}

	var files []string
	err := p.run("speak",
		func(ctx context.Context) error {
			var err error
			files, err = p.api.GenerateAudioForText(ctx, text)
			return err
		}, nil)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no audio generated for %q", text)
	}

	return p.api.PlayAudio(context.Background(), p.player, files[0])
}

// PlayCardFile plays audio file index of a card
func (p *Processor) PlayCardFile(id string, index int) error {
	c, err := p.find(id)
	if err != nil {
		return err
	}
	if !c.HasFile(index) {
		return fmt.Errorf("card %s has no audio file %d", id, index)
	}
	return p.api.PlayAudio(context.Background(), p.player, c.Files[index])
}

// RegenerateAudio asks the backend for a new audio file in slot index of a
// card and returns the updated card
func (p *Processor) RegenerateAudio(id string, index int) (card.Card, error) {
	if err := card.ValidateID(id); err != nil {
		return card.Card{}, err
	}
	if _, err := p.LoadCards(false); err != nil {
		return card.Card{}, err
	}

	var files []string
	var updated card.Card
	err := p.run(fmt.Sprintf("regenerate audio %d of card %s", index, id),
		func(ctx context.Context) error {
			var err error
			files, err = p.api.GenerateAudioForCardFile(ctx, id, index)
			return err
		},
		func(err error) error {
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no audio generated for card %s", id)
			}
			c, ok := p.store.Find(id)
			if !ok {
				return fmt.Errorf("card not found: %s", id)
			}
			c.Files = replaceFile(c.Files, index, files[0])
			p.store.Reconcile(c, card.Update)
			updated = c
			return nil
		})
	return updated, err
}

// Analyze asks the LLM for the translation and main words of sentence
func (p *Processor) Analyze(sentence string) (assist.Analysis, error) {
	if err := p.AssistAvailable(); err != nil {
		return assist.Analysis{}, err
	}

	var analysis assist.Analysis
	err := p.run("analyze",
		func(ctx context.Context) error {
			var err error
			analysis, err = p.assist.Analyze(ctx, sentence)
			return err
		}, nil)
	return analysis, err
}

// Alter asks the LLM for a variation of sentence guided by notes
func (p *Processor) Alter(sentence, notes string) (assist.Alteration, error) {
	if err := p.AssistAvailable(); err != nil {
		return assist.Alteration{}, err
	}

	var alteration assist.Alteration
	err := p.run("alter",
		func(ctx context.Context) error {
			var err error
			alteration, err = p.assist.Alter(ctx, sentence, notes)
			return err
		}, nil)
	return alteration, err
}

// WaitForPlayback blocks until the player has finished, when it can tell
func (p *Processor) WaitForPlayback() {
	if w, ok := p.player.(interface{ Wait() }); ok {
		w.Wait()
	}
}

// find loads the collection if needed and looks up a card by id
func (p *Processor) find(id string) (card.Card, error) {
	if err := card.ValidateID(id); err != nil {
		return card.Card{}, err
	}
	if _, err := p.LoadCards(false); err != nil {
		return card.Card{}, err
	}

	var c card.Card
	var ok bool
	if err := p.onLoop(func() { c, ok = p.store.Find(id) }); err != nil {
		return card.Card{}, err
	}
	if !ok {
		return card.Card{}, fmt.Errorf("card not found: %s", id)
	}
	return c, nil
}

// replaceFile returns a copy of files with slot index set to file
func replaceFile(files []string, index int, file string) []string {
	result := append([]string{}, files...)
	for len(result) <= index {
		result = append(result, "")
	}
	result[index] = file
	return result
}
