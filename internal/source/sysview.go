package source

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

// System view property types as written by Jackalope.
const (
	typeBinary  = "Binary"
	typeBoolean = "Boolean"
	typeDate    = "Date"
	typeDouble  = "Double"
	typeLong    = "Long"
)

type svNode struct {
	Properties []svProperty `xml:"property"`
}

type svProperty struct {
	Name   string   `xml:"name,attr"`
	Type   string   `xml:"type,attr"`
	Multi  string   `xml:"multi-valued,attr"`
	Values []string `xml:"value"`
}

// decodeSysView decodes the properties of a node stored in the JCR system
// view format. Binary properties are skipped. Multi-valued properties become
// []any; other types are converted to their Go value.
func decodeSysView(data []byte) (map[string]any, error) {
	var node svNode
	if err := xml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decoding system view: %w", err)
	}

	props := make(map[string]any, len(node.Properties))
	for _, p := range node.Properties {
		if p.Type == typeBinary {
			continue
		}
		values := make([]any, 0, len(p.Values))
		for _, raw := range p.Values {
			v, err := decodeValue(p.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", p.Name, err)
			}
			values = append(values, v)
		}
		switch {
		case p.Multi == "1" || p.Multi == "true":
			props[p.Name] = values
		case len(values) == 0:
			props[p.Name] = nil
		default:
			props[p.Name] = values[0]
		}
	}
	return props, nil
}

func decodeValue(typ, raw string) (any, error) {
	switch typ {
	case typeLong:
		return strconv.ParseInt(raw, 10, 64)
	case typeDouble:
		return strconv.ParseFloat(raw, 64)
	case typeBoolean:
		return strconv.ParseBool(raw)
	case typeDate:
		return time.Parse(time.RFC3339Nano, raw)
	default:
		// String, Name, Path, Reference, WeakReference, URI, Decimal.
		return raw, nil
	}
}
