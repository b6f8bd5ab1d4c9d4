/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package stylepack loads YAML style presets that exporters apply to
// shapes, note cards and connections. A pack leaves any style it does not
// set at the exporter default, so a minimal pack can recolor just the
// cards.
package stylepack

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kinboard/internal/domain"
)

//go:embed default.yaml
var defaultPackYAML []byte

// Pack is one named style preset.
type Pack struct {
	Name             string        `yaml:"name"`
	ShapeStroke      domain.Stroke `yaml:"shape_stroke"`
	NodeStroke       domain.Stroke `yaml:"node_stroke"`
	NodeFill         domain.Color  `yaml:"node_fill"`
	ConnectionStroke domain.Stroke `yaml:"connection_stroke"`
}

// Default returns the embedded pack. The embedded file is validated at
// test time, so a decode failure here is a build defect.
func Default() Pack {
	p, err := decode(defaultPackYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded style pack invalid: %v", err))
	}
	return p
}

// Load reads and validates a pack from a YAML file.
func Load(path string) (Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("read style pack: %w", err)
	}
	return decode(data)
}

func decode(data []byte) (Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pack{}, fmt.Errorf("parse style pack: %w", err)
	}
	if err := Validate(p); err != nil {
		return Pack{}, err
	}
	return p, nil
}

// Validate rejects packs that would render nothing sensible.
func Validate(p Pack) error {
	if p.Name == "" {
		return fmt.Errorf("style pack: name is required")
	}
	for _, s := range []struct {
		label string
		w     float64
	}{
		{"shape_stroke", p.ShapeStroke.Width},
		{"node_stroke", p.NodeStroke.Width},
		{"connection_stroke", p.ConnectionStroke.Width},
	} {
		if s.w < 0 {
			return fmt.Errorf("style pack: %s width must not be negative", s.label)
		}
	}
	return nil
}
