package executor

import (
	language "github.com/hanpama/graphql-component/internal/language"
	schema "github.com/hanpama/graphql-component/internal/schema"
)

// ResolveInfo describes the field being resolved. Values are shared with the
// running execution and must be treated as read-only.
type ResolveInfo struct {
	// ParentType is the object type that owns the field.
	ParentType string
	// FieldName is the schema name of the field (not its alias).
	FieldName string
	// ReturnType is the declared type of the field.
	ReturnType *schema.TypeRef
	// Path is the response path of the field, ending with its response key.
	Path Path
	// Fields are the AST nodes merged under the field's response key.
	Fields []*language.Field
	// Operation is the executing operation.
	Operation *language.OperationDefinition
	// Fragments are all fragment definitions of the executing document.
	Fragments language.FragmentDefinitionList
	// RootValue is the initial value the operation was executed with.
	RootValue any
	// VariableValues are the coerced operation variables.
	VariableValues map[string]any
	// Schema is the schema the operation executes against.
	Schema *schema.Schema
}

// ResponseKey returns the last string element of the path.
func (i *ResolveInfo) ResponseKey() string {
	for j := len(i.Path) - 1; j >= 0; j-- {
		if key, ok := i.Path[j].(string); ok {
			return key
		}
	}
	return ""
}

func (s *executionState) resolveInfo(objectType *schema.Type, fieldDef *schema.Field, fields []*language.Field, path Path) *ResolveInfo {
	info := &ResolveInfo{
		ParentType:     objectType.Name,
		FieldName:      fieldDef.Name,
		ReturnType:     fieldDef.Type,
		Path:           path,
		Fields:         fields,
		Operation:      s.operation,
		RootValue:      s.rootValue,
		VariableValues: s.variableValues,
		Schema:         s.schema,
	}
	if s.document != nil {
		info.Fragments = s.document.Fragments
	}
	return info
}
