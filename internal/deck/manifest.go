// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package deck

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"

	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// manifest is the on-disk shape of a deck listing. Card content lives
// elsewhere and is none of the core's business; the manifest carries only
// identities and tags.
type manifest struct {
	Cards []Card `yaml:"cards"`
}

// ManifestSource reads the card listing from a YAML manifest file on every
// ListCards call, so external edits show up without a restart.
type ManifestSource struct {
	path string
}

// NewManifestSource returns a Source backed by the manifest at path.
func NewManifestSource(path string) *ManifestSource {
	return &ManifestSource{path: path}
}

func (m *ManifestSource) ListCards(_ context.Context) ([]Card, error) {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeDeckManifestReadFailure,
			"reading deck manifest %s", m.path)
	}

	var doc manifest
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeDeckManifestInvalid,
			"parsing deck manifest %s", m.path)
	}

	seen := map[string]bool{}
	for _, card := range doc.Cards {
		if card.ID == "" {
			return nil, xerr.Errorf(xerr.CodeDeckManifestInvalid,
				"deck manifest %s: card without id", m.path)
		}
		if seen[card.ID] {
			return nil, xerr.Errorf(xerr.CodeDeckManifestInvalid,
				"deck manifest %s: duplicate card id %q", m.path, card.ID)
		}
		seen[card.ID] = true
	}

	return doc.Cards, nil
}
