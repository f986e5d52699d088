// Package compiler converts serialized assessment documents into validated
// domain node trees.
package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/BiAffectBridge/cairn/internal/validator"
	"github.com/BiAffectBridge/cairn/pkg/domain"
)

var knownKinds = map[string]struct{}{
	domain.NodeAssessment:  {},
	domain.NodeSection:     {},
	domain.NodeInstruction: {},
	domain.NodeQuestion:    {},
	domain.NodeActive:      {},
	domain.NodeOverview:    {},
	domain.NodeCompletion:  {},
}

// Parser converts raw assessment documents into domain node trees.
type Parser struct{}

// NewParser creates a parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseJSON decodes a JSON assessment document, checks kinds, and runs
// structural validation.
func (p *Parser) ParseJSON(data []byte) (*domain.Node, error) {
	var doc nodeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse assessment document: %w", err)
	}
	return p.finish(&doc)
}

// ParseYAML decodes a YAML assessment document. The document is first
// unmarshalled into a generic map, then decoded through the same
// mapstructure path the JSON shape uses, so both formats share field names.
func (p *Parser) ParseYAML(data []byte) (*domain.Node, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse assessment document: %w", err)
	}
	var doc nodeDocument
	if err := mapstructure.Decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode assessment document: %w", err)
	}
	return p.finish(&doc)
}

func (p *Parser) finish(doc *nodeDocument) (*domain.Node, error) {
	if doc.Identifier == "" {
		return nil, fmt.Errorf("assessment document missing identifier")
	}
	node := doc.toDomain()
	if node.Kind == "" {
		node.Kind = domain.NodeAssessment
	}
	if err := checkKinds(node); err != nil {
		return nil, err
	}
	if err := validator.ValidateTree(node); err != nil {
		return nil, err
	}
	return node, nil
}

func checkKinds(n *domain.Node) error {
	if n.Kind != "" {
		if _, ok := knownKinds[n.Kind]; !ok {
			return fmt.Errorf("node %q: unknown node type %q", n.Identifier, n.Kind)
		}
	}
	for i, c := range n.Children {
		if c.Identifier == "" {
			return fmt.Errorf("node %q: child %d missing identifier", n.Identifier, i)
		}
		if c.Kind == "" {
			// Containers default to section, leaves to instruction.
			if c.IsContainer() {
				c.Kind = domain.NodeSection
			} else {
				c.Kind = domain.NodeInstruction
			}
		}
		if err := checkKinds(c); err != nil {
			return err
		}
	}
	return nil
}
