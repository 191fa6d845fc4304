package styles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

// Fixtures register selectors in bulk from YAML. The canonical form is
// a list, which makes registration order explicit:
//
//	selectors:
//	  - selector: ".card"
//	    props:
//	      animationName: fade
//	      animationDuration: 2s
//	  - selector: "#hero"
//	    props:
//	      animationPlayState: paused
//
// A mapping form is also accepted; its entries register in document
// order, which only matters when selectors overlap.
type fixtureDoc struct {
	Selectors yaml.Node `yaml:"selectors"`
}

type selectorFixture struct {
	Selector string         `yaml:"selector"`
	Props    map[string]any `yaml:"props"`
}

// LoadFile reads a YAML fixture from path and registers its selectors.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read styles fixture: %w", err)
	}
	return s.Load(data)
}

// Load registers the selectors of a YAML fixture document.
func (s *Store) Load(data []byte) error {
	var doc fixtureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse styles fixture: %w", err)
	}

	switch doc.Selectors.Kind {
	case 0:
		// No selectors key.
		return nil
	case yaml.SequenceNode:
		var list []selectorFixture
		if err := doc.Selectors.Decode(&list); err != nil {
			return fmt.Errorf("failed to parse styles fixture: %w", err)
		}
		for _, entry := range list {
			if err := s.SetMap(entry.Selector, entry.Props); err != nil {
				return err
			}
		}
		return nil
	case yaml.MappingNode:
		// Walking the node pairs directly preserves document order,
		// which a map[string]... decode would lose.
		content := doc.Selectors.Content
		for i := 0; i+1 < len(content); i += 2 {
			var sel string
			if err := content[i].Decode(&sel); err != nil {
				return fmt.Errorf("failed to parse styles fixture: %w", err)
			}
			var fields map[string]any
			if err := content[i+1].Decode(&fields); err != nil {
				return fmt.Errorf("failed to parse styles fixture: %w", err)
			}
			if err := s.SetMap(sel, fields); err != nil {
				return err
			}
		}
		return nil
	default:
		return &motionerrors.ConfigError{Op: "styles.Store.Load", Field: "selectors", Reason: "must be a list or a mapping"}
	}
}
