// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

// Package deck is the boundary to the external card repository. The core
// never reads or writes card content: it consumes opaque card ids and tag
// sets and derives in-memory tag indices from them.
package deck

import (
	"context"
	"sort"
)

// Card is the view of a card the scheduling core is allowed to see.
type Card struct {
	ID   string   `yaml:"id"`
	Tags []string `yaml:"tags,omitempty"`
}

// Source lists the cards owned by the external card repository.
type Source interface {
	ListCards(ctx context.Context) ([]Card, error)
}

// StaticSource is a fixed in-memory Source, used by tests and callers that
// already hold the card set.
type StaticSource []Card

func (s StaticSource) ListCards(context.Context) ([]Card, error) {
	return s, nil
}

// Index holds the card↔tag relation as two explicit maps, neither owning
// the other. Both are derived from a Source listing and never persisted.
type Index struct {
	tagsByCard map[string]map[string]struct{}
	cardsByTag map[string]map[string]struct{}
}

// BuildIndex derives the tag indices from a source listing. Duplicate tags
// on one card collapse; empty tags are dropped.
func BuildIndex(ctx context.Context, src Source) (*Index, error) {
	cards, err := src.ListCards(ctx)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		tagsByCard: map[string]map[string]struct{}{},
		cardsByTag: map[string]map[string]struct{}{},
	}

	for _, card := range cards {
		if card.ID == "" {
			continue
		}
		if _, ok := idx.tagsByCard[card.ID]; !ok {
			idx.tagsByCard[card.ID] = map[string]struct{}{}
		}
		for _, tag := range card.Tags {
			if tag == "" {
				continue
			}
			idx.tagsByCard[card.ID][tag] = struct{}{}
			if _, ok := idx.cardsByTag[tag]; !ok {
				idx.cardsByTag[tag] = map[string]struct{}{}
			}
			idx.cardsByTag[tag][card.ID] = struct{}{}
		}
	}

	return idx, nil
}

// Has reports whether the card exists in the repository listing.
func (i *Index) Has(cardID string) bool {
	_, ok := i.tagsByCard[cardID]
	return ok
}

// Tags returns a card's tags in sorted order.
func (i *Index) Tags(cardID string) []string {
	set, ok := i.tagsByCard[cardID]
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// AllTags returns every known tag in sorted order.
func (i *Index) AllTags() []string {
	tags := make([]string, 0, len(i.cardsByTag))
	for tag := range i.cardsByTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// CardIDs returns every known card id in sorted order.
func (i *Index) CardIDs() []string {
	ids := make([]string, 0, len(i.tagsByCard))
	for id := range i.tagsByCard {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Matches reports whether the card matches the filter with any-of
// semantics: an empty filter matches every card; otherwise the card needs
// at least one tag in the filter.
func (i *Index) Matches(cardID string, filter []string) bool {
	if !i.Has(cardID) {
		return false
	}
	if len(filter) == 0 {
		return true
	}
	tags := i.tagsByCard[cardID]
	for _, want := range filter {
		if _, ok := tags[want]; ok {
			return true
		}
	}
	return false
}
