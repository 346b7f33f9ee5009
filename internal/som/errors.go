package som

import "fmt"

// NotImplementedError marks schema productions the model does not support
// yet: interface types, enum types, non-null wrappers and type extensions.
// Callers can detect it with errors.As to distinguish "unsupported input"
// from malformed input.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("not implemented: %s", e.Feature)
}

func errNotImplemented(feature string) error {
	return &NotImplementedError{Feature: feature}
}

func errImmutable(op string) error {
	return fmt.Errorf("cannot %s on an immutable schema", op)
}

func errDetachedUse(op string) error {
	return fmt.Errorf("cannot %s on a detached element", op)
}

func errTypeKindConflict(name string, existing, requested TypeKind) error {
	return fmt.Errorf("type %q is already defined as %s, not %s", name, existing, requested)
}

func errBuiltInCollision(name string) error {
	return fmt.Errorf("type name %q collides with a built-in scalar", name)
}

func errDuplicateField(typeName, fieldName string) error {
	return fmt.Errorf("field %q already exists on type %q", fieldName, typeName)
}

func errDuplicateArgument(coordinate, argName string) error {
	return fmt.Errorf("argument %q already exists on %s", argName, coordinate)
}

func errDuplicateDirective(name string) error {
	return fmt.Errorf("directive @%s is already defined", name)
}

func errCrossSchemaReference(typeName string) error {
	return fmt.Errorf("type %q belongs to a different schema", typeName)
}

func errDetachedTypeReference(typeName string) error {
	return fmt.Errorf("type %q is not attached to a schema", typeName)
}

func errWrongKind(op string, name string, kind TypeKind) error {
	return fmt.Errorf("cannot %s: type %q is %s", op, name, kind)
}

func errNotObjectType(op, name string) error {
	return fmt.Errorf("cannot %s: type %q is not an Object type", op, name)
}

func errInvalidValueLiteral(kind, raw string) error {
	return fmt.Errorf("invalid %s literal %q", kind, raw)
}
