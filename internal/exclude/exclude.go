// Package exclude filters the root fields an import re-exposes.
//
// A pattern is "Type.field", "Type.*", "Type" or "*". A "*" type excludes
// everything, whatever the field part says. Rules only ever remove
// fields of the operation root types from documents; resolver maps lose the
// matching entries of any type.
package exclude

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/graphql-component/internal/language"
)

// ErrInvalidPattern is returned by Parse for malformed patterns.
var ErrInvalidPattern = errors.New("invalid exclusion pattern")

// Wildcard matches any type or any field.
const Wildcard = "*"

// Rule is a parsed exclusion pattern. An empty Field means the whole type.
type Rule struct {
	Type  string
	Field string
}

func (r Rule) String() string {
	if r.Field == "" {
		return r.Type
	}
	return r.Type + "." + r.Field
}

// wholeType reports whether the rule removes every field of its type.
func (r Rule) wholeType() bool { return r.Field == "" || r.Field == Wildcard }

func (r Rule) matches(typeName, fieldName string) bool {
	if r.Type == Wildcard {
		return true
	}
	return r.Type == typeName && (r.wholeType() || r.Field == fieldName)
}

// Parse converts patterns into rules. "Type." is read as "Type".
func Parse(patterns []string) ([]Rule, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		parts := strings.Split(p, ".")
		switch {
		case p == "", parts[0] == "", len(parts) > 2:
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		case len(parts) == 1, parts[1] == "":
			rules = append(rules, Rule{Type: parts[0]})
		default:
			rules = append(rules, Rule{Type: parts[0], Field: parts[1]})
		}
	}
	return rules, nil
}

// Matches reports whether any rule matches the field.
func Matches(typeName, fieldName string, rules []Rule) bool {
	for _, r := range rules {
		if r.matches(typeName, fieldName) {
			return true
		}
	}
	return false
}

// ApplyToTypes returns copies of docs without the root fields matched by
// rules. Root definitions and extensions left without fields are dropped.
// The input documents are not modified; with no rules docs is returned as is.
func ApplyToTypes(docs []*ast.SchemaDocument, rules []Rule) []*ast.SchemaDocument {
	if len(rules) == 0 {
		return docs
	}
	out := make([]*ast.SchemaDocument, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		cp := *doc
		cp.Definitions = filterDefinitions(doc.Definitions, rules)
		cp.Extensions = filterDefinitions(doc.Extensions, rules)
		out = append(out, &cp)
	}
	return out
}

func filterDefinitions(defs ast.DefinitionList, rules []Rule) ast.DefinitionList {
	var out ast.DefinitionList
	for _, def := range defs {
		if def.Kind != ast.Object || !language.IsRootTypeName(def.Name) {
			out = append(out, def)
			continue
		}
		var fields ast.FieldList
		for _, f := range def.Fields {
			if !Matches(def.Name, f.Name, rules) {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			continue
		}
		cp := *def
		cp.Fields = fields
		out = append(out, &cp)
	}
	return out
}

// ApplyToResolvers returns a copy of m without the entries matched by rules.
// A rule for a whole type drops the type entry, and a "*" type clears the map;
// otherwise the single field is dropped. Entries that are not field maps are
// only removed by whole-type rules.
func ApplyToResolvers(m map[string]any, rules []Rule) map[string]any {
	out := make(map[string]any, len(m))
	for typeName, v := range m {
		if matchesWholeType(typeName, rules) {
			continue
		}
		fields, ok := v.(map[string]any)
		if !ok {
			out[typeName] = v
			continue
		}
		kept := make(map[string]any, len(fields))
		for name, f := range fields {
			if !Matches(typeName, name, rules) {
				kept[name] = f
			}
		}
		out[typeName] = kept
	}
	return out
}

func matchesWholeType(typeName string, rules []Rule) bool {
	for _, r := range rules {
		if r.Type == Wildcard || (r.Type == typeName && r.wholeType()) {
			return true
		}
	}
	return false
}
