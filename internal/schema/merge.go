package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/graphql-component/internal/language"
)

// ErrConflict is returned when two documents declare the same schema element incompatibly.
var ErrConflict = errors.New("conflicting definitions")

// Merge combines schema documents into one document. Definitions sharing a
// name are unioned: fields, interfaces, union members and enum values are
// appended in document order and identical declarations are deduplicated.
// A field or directive declared twice with different signatures, or a name
// declared with two different kinds, is an ErrConflict. Inputs are not modified.
func Merge(docs ...*ast.SchemaDocument) (*ast.SchemaDocument, error) {
	out := &ast.SchemaDocument{}
	defs := make(map[string]*ast.Definition)
	dirs := make(map[string]*ast.DirectiveDefinition)

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, sd := range doc.Schema {
			if err := mergeSchemaDefinition(out, sd); err != nil {
				return nil, err
			}
		}
		out.SchemaExtension = append(out.SchemaExtension, doc.SchemaExtension...)

		for _, d := range doc.Directives {
			existing, ok := dirs[d.Name]
			if !ok {
				dirs[d.Name] = d
				out.Directives = append(out.Directives, d)
				continue
			}
			if directiveSignature(existing) != directiveSignature(d) {
				return nil, fmt.Errorf("%w: directive @%s declared as %q and %q", ErrConflict, d.Name, directiveSignature(existing), directiveSignature(d))
			}
		}

		for _, def := range doc.Definitions {
			existing, ok := defs[def.Name]
			if !ok {
				cp := cloneDefinition(def)
				defs[def.Name] = cp
				out.Definitions = append(out.Definitions, cp)
				continue
			}
			if err := mergeDefinition(existing, def); err != nil {
				return nil, err
			}
		}
		for _, ext := range doc.Extensions {
			out.Extensions = append(out.Extensions, cloneDefinition(ext))
		}
	}
	return out, nil
}

// Load validates a merged document with gqlparser and returns the resulting schema.
func Load(name string, doc *ast.SchemaDocument) (*ast.Schema, error) {
	sdl := language.FormatSchema(doc)
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	return s, nil
}

func mergeSchemaDefinition(out *ast.SchemaDocument, sd *ast.SchemaDefinition) error {
	if len(out.Schema) == 0 {
		cp := *sd
		cp.OperationTypes = append(ast.OperationTypeDefinitionList(nil), sd.OperationTypes...)
		out.Schema = append(out.Schema, &cp)
		return nil
	}
	target := out.Schema[0]
	for _, op := range sd.OperationTypes {
		existing := operationType(target.OperationTypes, op.Operation)
		switch {
		case existing == nil:
			target.OperationTypes = append(target.OperationTypes, op)
		case existing.Type != op.Type:
			return fmt.Errorf("%w: %s root declared as %s and %s", ErrConflict, op.Operation, existing.Type, op.Type)
		}
	}
	return nil
}

func mergeDefinition(into, def *ast.Definition) error {
	if into.Kind != def.Kind {
		return fmt.Errorf("%w: %s declared as %s and %s", ErrConflict, def.Name, into.Kind, def.Kind)
	}
	if into.Description == "" {
		into.Description = def.Description
	}
	for _, d := range def.Directives {
		if into.Directives.ForName(d.Name) == nil {
			into.Directives = append(into.Directives, d)
		}
	}
	for _, iface := range def.Interfaces {
		if !contains(into.Interfaces, iface) {
			into.Interfaces = append(into.Interfaces, iface)
		}
	}
	for _, member := range def.Types {
		if !contains(into.Types, member) {
			into.Types = append(into.Types, member)
		}
	}
	for _, v := range def.EnumValues {
		if into.EnumValues.ForName(v.Name) == nil {
			into.EnumValues = append(into.EnumValues, v)
		}
	}
	for _, f := range def.Fields {
		existing := into.Fields.ForName(f.Name)
		if existing == nil {
			into.Fields = append(into.Fields, f)
			continue
		}
		if fieldSignature(existing) != fieldSignature(f) {
			return fmt.Errorf("%w: field %s.%s declared as %q and %q", ErrConflict, def.Name, f.Name, fieldSignature(existing), fieldSignature(f))
		}
	}
	return nil
}

func cloneDefinition(def *ast.Definition) *ast.Definition {
	cp := *def
	cp.Directives = append(ast.DirectiveList(nil), def.Directives...)
	cp.Interfaces = append([]string(nil), def.Interfaces...)
	cp.Fields = append(ast.FieldList(nil), def.Fields...)
	cp.Types = append([]string(nil), def.Types...)
	cp.EnumValues = append(ast.EnumValueList(nil), def.EnumValues...)
	return &cp
}

func fieldSignature(f *ast.FieldDefinition) string {
	var b strings.Builder
	if len(f.Arguments) > 0 {
		b.WriteString("(")
		for i, arg := range f.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.Name)
			b.WriteString(": ")
			b.WriteString(arg.Type.String())
		}
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(f.Type.String())
	return b.String()
}

func directiveSignature(d *ast.DirectiveDefinition) string {
	var b strings.Builder
	for i, arg := range d.Arguments {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Name)
		b.WriteString(": ")
		b.WriteString(arg.Type.String())
	}
	b.WriteString(" on ")
	for i, loc := range d.Locations {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(string(loc))
	}
	return b.String()
}

func operationType(list ast.OperationTypeDefinitionList, op ast.Operation) *ast.OperationTypeDefinition {
	for _, it := range list {
		if it.Operation == op {
			return it
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
