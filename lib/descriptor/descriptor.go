// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// JSON field names of the descriptor tree. These are format constants —
// they match the keys the plate rendering application reads and cannot
// be renamed without breaking every existing template.
const (
	// BundleKey is the top-level object holding the named layers.
	BundleKey = "objects"

	// TextKey is the per-layer field holding the literal string the
	// layer renders.
	TextKey = "textTextString"

	// intervalEndKey is the numeric field inside an interval record
	// that must track the character length of the layer's text.
	intervalEndKey = "intervalEnd"
)

// auxiliaryKeys are the per-layer sub-objects whose entries may carry
// interval records. The set is fixed by the descriptor format.
var auxiliaryKeys = []string{"colorTextIntervals", "fontTextIntervals"}

// RequiredLayers are the four layers every usable template descriptor
// must define. Substitution targets exactly these, in order:
// full name, serial, date text, receipt.
var RequiredLayers = []string{"layer0", "layer1", "layer2", "layer3"}

// Descriptor is the structured JSON document embedded in a plate
// template. Only the fields substitution touches are interpreted; the
// rest of the tree is carried through untouched.
type Descriptor struct {
	root map[string]any
}

// Parse decodes descriptor JSON. The input must be a JSON object;
// nothing beyond well-formedness is checked here — layer presence is
// a separate step (ValidateLayers) so that callers can report missing
// layers distinctly from malformed JSON.
func Parse(data []byte) (*Descriptor, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("descriptor: parsing JSON: %w", err)
	}
	return &Descriptor{root: root}, nil
}

// Marshal serializes the descriptor back to JSON.
func (d *Descriptor) Marshal() ([]byte, error) {
	data, err := json.Marshal(d.root)
	if err != nil {
		return nil, fmt.Errorf("descriptor: serializing: %w", err)
	}
	return data, nil
}

// bundle returns the objects bundle, or false when the field is absent
// or not an object.
func (d *Descriptor) bundle() (map[string]any, bool) {
	bundle, ok := d.root[BundleKey].(map[string]any)
	return bundle, ok
}

// ValidateLayers confirms that all required layers exist under the
// objects bundle. The error names the first missing layer.
func (d *Descriptor) ValidateLayers() error {
	bundle, ok := d.bundle()
	if !ok {
		return fmt.Errorf("descriptor: missing %q bundle", BundleKey)
	}
	for _, layer := range RequiredLayers {
		if _, ok := bundle[layer].(map[string]any); !ok {
			return fmt.Errorf("descriptor: missing required layer %q", layer)
		}
	}
	return nil
}

// Clone produces an independent deep copy. Mutating the clone never
// aliases into the receiver — each generated unit gets its own copy of
// the full tree.
func (d *Descriptor) Clone() *Descriptor {
	return &Descriptor{root: deepCopyValue(d.root).(map[string]any)}
}

func deepCopyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(typed))
		for key, element := range typed {
			result[key] = deepCopyValue(element)
		}
		return result
	case []any:
		result := make([]any, len(typed))
		for index, element := range typed {
			result[index] = deepCopyValue(element)
		}
		return result
	default:
		// Scalars (string, float64, bool, nil) are immutable.
		return typed
	}
}

// Substitute sets the layer's text field to text and rewrites every
// interval-end field reachable under the layer's auxiliary maps to the
// character length of text. Auxiliary maps or interval-end fields that
// are absent are skipped silently. The layer must exist — callers
// validate with ValidateLayers before substituting.
func (d *Descriptor) Substitute(layer, text string) error {
	bundle, ok := d.bundle()
	if !ok {
		return fmt.Errorf("descriptor: missing %q bundle", BundleKey)
	}
	layerObject, ok := bundle[layer].(map[string]any)
	if !ok {
		return fmt.Errorf("descriptor: missing layer %q", layer)
	}

	layerObject[TextKey] = text

	// Character count, not byte count: the rendering application
	// indexes intervals by character position.
	length := float64(utf8.RuneCountInString(text))

	for _, auxiliaryKey := range auxiliaryKeys {
		auxiliaryMap, ok := layerObject[auxiliaryKey].(map[string]any)
		if !ok {
			continue
		}
		for _, entry := range auxiliaryMap {
			record, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if _, present := record[intervalEndKey]; present {
				record[intervalEndKey] = length
			}
		}
	}
	return nil
}

// LayerText returns the current text of a layer, and whether the layer
// and its text field exist.
func (d *Descriptor) LayerText(layer string) (string, bool) {
	bundle, ok := d.bundle()
	if !ok {
		return "", false
	}
	layerObject, ok := bundle[layer].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := layerObject[TextKey].(string)
	return text, ok
}

// IntervalEnds collects every interval-end value under the layer's
// auxiliary maps, in no particular order. Used by callers that verify
// the substitution invariant.
func (d *Descriptor) IntervalEnds(layer string) []float64 {
	bundle, ok := d.bundle()
	if !ok {
		return nil
	}
	layerObject, ok := bundle[layer].(map[string]any)
	if !ok {
		return nil
	}

	var ends []float64
	for _, auxiliaryKey := range auxiliaryKeys {
		auxiliaryMap, ok := layerObject[auxiliaryKey].(map[string]any)
		if !ok {
			continue
		}
		for _, entry := range auxiliaryMap {
			record, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if end, ok := record[intervalEndKey].(float64); ok {
				ends = append(ends, end)
			}
		}
	}
	return ends
}
