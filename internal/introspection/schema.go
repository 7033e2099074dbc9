package introspection

import (
	schema "github.com/hanpama/graphql-component/internal/schema"
)

var (
	str     = schema.NamedType("String")
	boolean = schema.NamedType("Boolean")
)

func nonNull(t *schema.TypeRef) *schema.TypeRef { return schema.NonNullType(t) }

func listOf(name string) *schema.TypeRef {
	return schema.ListType(nonNull(schema.NamedType(name)))
}

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", boolean).SetDefault(false)
}

// extend returns a copy of original carrying the introspection types, the
// directives every schema declares and the __schema and __type root fields.
// original is not modified.
func extend(original *schema.Schema) *schema.Schema {
	out := schema.NewSchema(original.Description)
	out.QueryType = original.QueryType
	out.MutationType = original.MutationType
	out.SubscriptionType = original.SubscriptionType
	for _, t := range original.Types {
		out.AddType(t)
	}
	for _, d := range original.Directives {
		out.AddDirective(d)
	}
	if _, ok := out.Directives["deprecated"]; !ok {
		out.AddDirective(deprecatedDirective())
	}
	if _, ok := out.Directives["specifiedBy"]; !ok {
		out.AddDirective(specifiedByDirective())
	}

	for _, t := range metaTypes() {
		out.AddType(t)
	}
	if out.Types["String"] == nil {
		out.AddType(schema.NewType("String", schema.TypeKindScalar, ""))
	}
	if out.Types["Boolean"] == nil {
		out.AddType(schema.NewType("Boolean", schema.TypeKindScalar, ""))
	}

	if q := original.GetQueryType(); q != nil {
		cp := *q
		cp.Fields = append(append([]*schema.Field(nil), q.Fields...),
			schema.NewField("__schema", "Access the current type schema of this server.", nonNull(schema.NamedType("__Schema"))),
			schema.NewField("__type", "Request the type information of a single type.", schema.NamedType("__Type")).
				AddArgument(schema.NewInputValue("name", "", nonNull(str))),
		)
		out.Types[cp.Name] = &cp
	}
	return out
}

func deprecatedDirective() *schema.Directive {
	d := schema.NewDirective("deprecated", "Marks an element of a GraphQL schema as no longer supported.").
		AddArgument(schema.NewInputValue("reason", "", str).SetDefault("No longer supported"))
	d.Locations = []string{"FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE"}
	return d
}

func specifiedByDirective() *schema.Directive {
	d := schema.NewDirective("specifiedBy", "Exposes a URL that specifies the behavior of this scalar.").
		AddArgument(schema.NewInputValue("url", "", nonNull(str)))
	d.Locations = []string{"SCALAR"}
	return d
}

func metaTypes() []*schema.Type {
	object := func(name, description string, fields ...*schema.Field) *schema.Type {
		t := schema.NewType(name, schema.TypeKindObject, description)
		for _, f := range fields {
			t.AddField(f)
		}
		return t
	}
	field := func(name string, t *schema.TypeRef) *schema.Field { return schema.NewField(name, "", t) }
	enum := func(name string, values ...string) *schema.Type {
		t := schema.NewType(name, schema.TypeKindEnum, "")
		for _, v := range values {
			t.AddEnumValue(schema.NewEnumValue(v, ""))
		}
		return t
	}

	return []*schema.Type{
		object("__Schema", "A GraphQL Schema defines the capabilities of a GraphQL server.",
			field("description", str),
			field("types", nonNull(listOf("__Type"))),
			field("queryType", nonNull(schema.NamedType("__Type"))),
			field("mutationType", schema.NamedType("__Type")),
			field("subscriptionType", schema.NamedType("__Type")),
			field("directives", nonNull(listOf("__Directive"))),
		),
		object("__Type", "The fundamental unit of any GraphQL Schema is the type.",
			field("kind", nonNull(schema.NamedType("__TypeKind"))),
			field("name", str),
			field("description", str),
			field("specifiedByURL", str),
			field("fields", listOf("__Field")).AddArgument(includeDeprecated()),
			field("interfaces", listOf("__Type")),
			field("possibleTypes", listOf("__Type")),
			field("enumValues", listOf("__EnumValue")).AddArgument(includeDeprecated()),
			field("inputFields", listOf("__InputValue")).AddArgument(includeDeprecated()),
			field("ofType", schema.NamedType("__Type")),
			field("isOneOf", boolean),
		),
		object("__Field", "",
			field("name", nonNull(str)),
			field("description", str),
			field("args", nonNull(listOf("__InputValue"))).AddArgument(includeDeprecated()),
			field("type", nonNull(schema.NamedType("__Type"))),
			field("isDeprecated", nonNull(boolean)),
			field("deprecationReason", str),
		),
		object("__InputValue", "",
			field("name", nonNull(str)),
			field("description", str),
			field("type", nonNull(schema.NamedType("__Type"))),
			field("defaultValue", str),
			field("isDeprecated", nonNull(boolean)),
			field("deprecationReason", str),
		),
		object("__EnumValue", "",
			field("name", nonNull(str)),
			field("description", str),
			field("isDeprecated", nonNull(boolean)),
			field("deprecationReason", str),
		),
		object("__Directive", "",
			field("name", nonNull(str)),
			field("description", str),
			field("isRepeatable", nonNull(boolean)),
			field("locations", nonNull(listOf("__DirectiveLocation"))),
			field("args", nonNull(listOf("__InputValue"))).AddArgument(includeDeprecated()),
		),
		enum("__TypeKind", "SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL"),
		enum("__DirectiveLocation",
			"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
			"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
			"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
			"INPUT_FIELD_DEFINITION"),
	}
}
