// Package namespace renames directives of imported documents that would
// collide with the directives implemented by the importing component.
package namespace

import (
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Suffix returns the GraphQL-safe suffix for a component name and id.
func Suffix(name string, id uint64) string {
	return Sanitize(name) + "_" + strconv.FormatUint(id, 10)
}

// Sanitize replaces every character that is not valid in a GraphQL name with '_'.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Directives returns a copy of doc in which every directive definition and
// application named in root is renamed to name_suffix. The input is not modified.
func Directives(root map[string]bool, suffix string, doc *ast.SchemaDocument) *ast.SchemaDocument {
	if doc == nil {
		return nil
	}
	r := renamer{root: root, suffix: Sanitize(suffix)}
	cp := *doc
	if len(root) == 0 {
		return &cp
	}

	cp.Directives = make(ast.DirectiveDefinitionList, len(doc.Directives))
	for i, d := range doc.Directives {
		dd := *d
		dd.Name = r.name(d.Name)
		dd.Arguments = r.arguments(d.Arguments)
		cp.Directives[i] = &dd
	}
	cp.Schema = r.schemaDefinitions(doc.Schema)
	cp.SchemaExtension = r.schemaDefinitions(doc.SchemaExtension)
	cp.Definitions = r.definitions(doc.Definitions)
	cp.Extensions = r.definitions(doc.Extensions)
	return &cp
}

type renamer struct {
	root   map[string]bool
	suffix string
}

func (r renamer) name(n string) string {
	if r.root[n] {
		return n + "_" + r.suffix
	}
	return n
}

func (r renamer) directives(list ast.DirectiveList) ast.DirectiveList {
	if list == nil {
		return nil
	}
	out := make(ast.DirectiveList, len(list))
	for i, d := range list {
		cp := *d
		cp.Name = r.name(d.Name)
		out[i] = &cp
	}
	return out
}

func (r renamer) arguments(list ast.ArgumentDefinitionList) ast.ArgumentDefinitionList {
	if list == nil {
		return nil
	}
	out := make(ast.ArgumentDefinitionList, len(list))
	for i, a := range list {
		cp := *a
		cp.Directives = r.directives(a.Directives)
		out[i] = &cp
	}
	return out
}

func (r renamer) schemaDefinitions(list ast.SchemaDefinitionList) ast.SchemaDefinitionList {
	if list == nil {
		return nil
	}
	out := make(ast.SchemaDefinitionList, len(list))
	for i, sd := range list {
		cp := *sd
		cp.Directives = r.directives(sd.Directives)
		out[i] = &cp
	}
	return out
}

func (r renamer) definitions(list ast.DefinitionList) ast.DefinitionList {
	if list == nil {
		return nil
	}
	out := make(ast.DefinitionList, len(list))
	for i, def := range list {
		cp := *def
		cp.Directives = r.directives(def.Directives)
		if def.Fields != nil {
			cp.Fields = make(ast.FieldList, len(def.Fields))
			for j, f := range def.Fields {
				fc := *f
				fc.Directives = r.directives(f.Directives)
				fc.Arguments = r.arguments(f.Arguments)
				cp.Fields[j] = &fc
			}
		}
		if def.EnumValues != nil {
			cp.EnumValues = make(ast.EnumValueList, len(def.EnumValues))
			for j, v := range def.EnumValues {
				vc := *v
				vc.Directives = r.directives(v.Directives)
				cp.EnumValues[j] = &vc
			}
		}
		out[i] = &cp
	}
	return out
}
