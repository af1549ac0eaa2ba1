// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package jschema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes schema content. JSON is attempted first; on failure the
// content is re-attempted as YAML (schemas are authored in either syntax)
// before the JSON error is surfaced.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	jsonErr := json.Unmarshal(data, &s)
	if jsonErr == nil {
		return &s, nil
	}

	var node yaml.Node
	if yamlErr := yaml.Unmarshal(data, &node); yamlErr == nil && node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		converted, convErr := yamlNodeToJSON(node.Content[0])
		if convErr == nil {
			var ys Schema
			if err := json.Unmarshal(converted, &ys); err == nil {
				return &ys, nil
			}
		}
	}
	return nil, fmt.Errorf("schema is neither valid JSON nor valid YAML: %w", jsonErr)
}

// yamlNodeToJSON renders a yaml.v3 node as JSON text, preserving mapping key
// order so the schema's property declaration order survives the round trip.
func yamlNodeToJSON(n *yaml.Node) ([]byte, error) {
	var sb strings.Builder
	if err := writeNodeJSON(&sb, n, 0); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

const maxYAMLDepth = 256

func writeNodeJSON(sb *strings.Builder, n *yaml.Node, depth int) error {
	if depth > maxYAMLDepth {
		return fmt.Errorf("schema nesting exceeds %d levels", maxYAMLDepth)
	}
	switch n.Kind {
	case yaml.MappingNode:
		sb.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				sb.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			sb.Write(key)
			sb.WriteByte(':')
			if err := writeNodeJSON(sb, n.Content[i+1], depth+1); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case yaml.SequenceNode:
		sb.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeNodeJSON(sb, item, depth+1); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case yaml.ScalarNode:
		return writeScalarJSON(sb, n)
	case yaml.AliasNode:
		if n.Alias == nil {
			sb.WriteString("null")
			return nil
		}
		return writeNodeJSON(sb, n.Alias, depth+1)
	default:
		sb.WriteString("null")
	}
	return nil
}

func writeScalarJSON(sb *strings.Builder, n *yaml.Node) error {
	if n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		return writeJSONString(sb, n.Value)
	}
	switch n.Tag {
	case "!!null":
		sb.WriteString("null")
	case "!!bool":
		if strings.EqualFold(n.Value, "true") {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case "!!int":
		if _, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
			sb.WriteString(n.Value)
			return nil
		}
		return writeJSONString(sb, n.Value)
	case "!!float":
		if _, err := strconv.ParseFloat(n.Value, 64); err == nil {
			sb.WriteString(n.Value)
			return nil
		}
		return writeJSONString(sb, n.Value)
	default:
		return writeJSONString(sb, n.Value)
	}
	return nil
}

func writeJSONString(sb *strings.Builder, v string) error {
	enc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	sb.Write(enc)
	return nil
}
