package som

import (
	"fmt"

	language "github.com/hanpama/supergraph/internal/language"
)

// ParseSDL parses SDL text and builds a mutable schema from it.
func ParseSDL(name, sdl string) (*Schema, error) {
	doc, err := language.ParseSchema(name, sdl)
	if err != nil {
		return nil, err
	}
	return BuildFromDocument(doc)
}

// BuildFromDocument builds a mutable schema from a parsed schema document
// in two passes: pass 1 creates empty shells for every supported type
// definition so forward references resolve, pass 2 fills fields,
// arguments, applied directives, union members and root assignments.
//
// Interface types, enum types, non-null wrappers and type extensions
// raise a NotImplementedError.
func BuildFromDocument(doc *language.SchemaDocument) (*Schema, error) {
	if len(doc.SchemaExtension) > 0 {
		return nil, errNotImplemented("schema extensions")
	}
	if len(doc.Extensions) > 0 {
		return nil, errNotImplemented("type extensions")
	}

	s := NewSchema()

	// Pass 1: shells.
	for _, def := range doc.Definitions {
		var err error
		switch def.Kind {
		case language.Scalar:
			_, err = s.AddScalarType(def.Name)
		case language.Object:
			if len(def.Interfaces) > 0 {
				return nil, errNotImplemented("interface implementation on type " + def.Name)
			}
			_, err = s.AddObjectType(def.Name)
		case language.Union:
			_, err = s.AddUnionType(def.Name)
		case language.InputObject:
			_, err = s.AddInputObjectType(def.Name)
		case language.Interface:
			return nil, errNotImplemented("interface type " + def.Name)
		case language.Enum:
			return nil, errNotImplemented("enum type " + def.Name)
		default:
			return nil, errNotImplemented(string(def.Kind) + " definition " + def.Name)
		}
		if err != nil {
			return nil, err
		}
	}

	// Pass 2: directive definitions.
	for _, dd := range doc.Directives {
		def, err := s.AddDirectiveDefinition(dd.Name)
		if err != nil {
			return nil, err
		}
		locations := make([]string, len(dd.Locations))
		for i, loc := range dd.Locations {
			locations[i] = string(loc)
		}
		def.SetLocations(locations...).SetRepeatable(dd.IsRepeatable)
		for _, arg := range dd.Arguments {
			typ, err := s.typeExprFromAST(arg.Type)
			if err != nil {
				return nil, err
			}
			defaultValue, err := ValueFromAST(arg.DefaultValue)
			if err != nil {
				return nil, err
			}
			if _, err := def.AddArgument(arg.Name, typ, defaultValue); err != nil {
				return nil, err
			}
		}
	}

	// Pass 2: fill type definitions.
	for _, def := range doc.Definitions {
		t := s.Type(def.Name)
		if err := applyASTDirectives(t, def.Directives); err != nil {
			return nil, err
		}
		switch def.Kind {
		case language.Object:
			for _, fd := range def.Fields {
				if err := s.buildField(t, fd); err != nil {
					return nil, err
				}
			}
		case language.Union:
			for _, memberName := range def.Types {
				member := s.Type(memberName)
				if member == nil {
					return nil, fmt.Errorf("union %q references unknown type %q", def.Name, memberName)
				}
				if err := t.AddMember(member); err != nil {
					return nil, err
				}
			}
		case language.InputObject:
			for _, fd := range def.Fields {
				if err := s.buildInputField(t, fd); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := s.buildSchemaDefinition(doc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) buildField(t *Type, fd *language.FieldDefinition) error {
	typ, err := s.typeExprFromAST(fd.Type)
	if err != nil {
		return err
	}
	f, err := t.AddField(fd.Name, typ)
	if err != nil {
		return err
	}
	for _, arg := range fd.Arguments {
		argType, err := s.typeExprFromAST(arg.Type)
		if err != nil {
			return err
		}
		defaultValue, err := ValueFromAST(arg.DefaultValue)
		if err != nil {
			return err
		}
		a, err := f.AddArgument(arg.Name, argType, defaultValue)
		if err != nil {
			return err
		}
		if err := applyASTDirectives(a, arg.Directives); err != nil {
			return err
		}
	}
	return applyASTDirectives(f, fd.Directives)
}

func (s *Schema) buildInputField(t *Type, fd *language.FieldDefinition) error {
	typ, err := s.typeExprFromAST(fd.Type)
	if err != nil {
		return err
	}
	f, err := t.AddInputField(fd.Name, typ)
	if err != nil {
		return err
	}
	if fd.DefaultValue != nil {
		defaultValue, err := ValueFromAST(fd.DefaultValue)
		if err != nil {
			return err
		}
		if err := f.SetDefaultValue(defaultValue); err != nil {
			return err
		}
	}
	return applyASTDirectives(f, fd.Directives)
}

func (s *Schema) buildSchemaDefinition(doc *language.SchemaDocument) error {
	if len(doc.Schema) > 1 {
		return fmt.Errorf("schema is already defined")
	}
	if len(doc.Schema) == 1 {
		sd := doc.Schema[0]
		if err := applyASTDirectives(s.def, sd.Directives); err != nil {
			return err
		}
		for _, opType := range sd.OperationTypes {
			t := s.Type(opType.Type)
			if t == nil {
				return fmt.Errorf("%s root type %q not found", opType.Operation, opType.Type)
			}
			var err error
			switch opType.Operation {
			case language.Query:
				err = s.def.SetQueryType(t)
			case language.Mutation:
				err = s.def.SetMutationType(t)
			case language.Subscription:
				err = s.def.SetSubscriptionType(t)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}

	// No explicit schema definition: fall back to the conventional root
	// type names.
	for opName, set := range map[string]func(*Type) error{
		"Query":        s.def.SetQueryType,
		"Mutation":     s.def.SetMutationType,
		"Subscription": s.def.SetSubscriptionType,
	} {
		if t, ok := s.types[opName]; ok && t.kind == TypeKindObject {
			if err := set(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// typeExprFromAST converts an AST type reference. Non-null wrappers are
// not supported.
func (s *Schema) typeExprFromAST(t *language.Type) (TypeExpr, error) {
	if t.NonNull {
		return nil, errNotImplemented("non-null type " + t.String())
	}
	if t.Elem != nil {
		inner, err := s.typeExprFromAST(t.Elem)
		if err != nil {
			return nil, err
		}
		return NewListType(inner), nil
	}
	named := s.Type(t.NamedType)
	if named == nil {
		return nil, fmt.Errorf("unknown type %q", t.NamedType)
	}
	return named, nil
}

func applyASTDirectives(e element, directives language.DirectiveList) error {
	for _, d := range directives {
		args, err := argumentsFromAST(d.Arguments)
		if err != nil {
			return err
		}
		switch host := e.(type) {
		case *Type:
			_, err = host.ApplyDirective(d.Name, args...)
		case *FieldDefinition:
			_, err = host.ApplyDirective(d.Name, args...)
		case *InputFieldDefinition:
			_, err = host.ApplyDirective(d.Name, args...)
		case *ArgumentDefinition:
			_, err = host.ApplyDirective(d.Name, args...)
		case *SchemaDefinition:
			_, err = host.ApplyDirective(d.Name, args...)
		default:
			panic("unreachable")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func argumentsFromAST(args language.ArgumentList) ([]*DirectiveArgument, error) {
	out := make([]*DirectiveArgument, len(args))
	for i, arg := range args {
		v, err := ValueFromAST(arg.Value)
		if err != nil {
			return nil, err
		}
		out[i] = Arg(arg.Name, v)
	}
	return out, nil
}
