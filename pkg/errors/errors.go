// Package errors defines the closed set of domain error conditions the
// graph engine can report. Every error here is a caller-visible failure;
// idempotent no-ops (deleting something absent) never surface as errors.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// TypeOption pairs a governed type name with its registered description.
// Validation errors carry the full governed set so a caller can self-correct.
type TypeOption struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SortOptions orders type options alphabetically by name, in place.
func SortOptions(opts []TypeOption) {
	sort.Slice(opts, func(i, j int) bool { return opts[i].Name < opts[j].Name })
}

func formatOptions(opts []TypeOption) string {
	if len(opts) == 0 {
		return "(none)"
	}
	parts := make([]string, len(opts))
	for i, o := range opts {
		if o.Description != "" {
			parts[i] = fmt.Sprintf("%s (%s)", o.Name, o.Description)
		} else {
			parts[i] = o.Name
		}
	}
	return strings.Join(parts, ", ")
}

// EntityNotFoundError reports that a named entity does not exist.
type EntityNotFoundError struct {
	Name string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %q not found", e.Name)
}

// EntityAlreadyExistsError reports a name collision, e.g. renaming an
// entity to a name another entity already holds.
type EntityAlreadyExistsError struct {
	Name string
}

func (e *EntityAlreadyExistsError) Error() string {
	return fmt.Sprintf("entity %q already exists", e.Name)
}

// InvalidEntityTypeError reports an entity type that is not in the governed
// set. ValidTypes is sorted by name.
type InvalidEntityTypeError struct {
	Provided   string
	ValidTypes []TypeOption
}

func (e *InvalidEntityTypeError) Error() string {
	return fmt.Sprintf("invalid entity type %q; valid types: %s. Register it with create_type first",
		e.Provided, formatOptions(e.ValidTypes))
}

// InvalidRelationTypeError reports a relation type that is not in the
// governed set. ValidTypes is sorted by name.
type InvalidRelationTypeError struct {
	Provided   string
	ValidTypes []TypeOption
}

func (e *InvalidRelationTypeError) Error() string {
	return fmt.Sprintf("invalid relation type %q; valid types: %s. Register it with create_type first",
		e.Provided, formatOptions(e.ValidTypes))
}

// TypeAlreadyExistsError reports a (category, name) collision on create.
type TypeAlreadyExistsError struct {
	ObjectType string
	Name       string
}

func (e *TypeAlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists; pass replaceExisting to overwrite it", e.ObjectType, e.Name)
}

// TypeNotFoundError reports a missing type definition.
type TypeNotFoundError struct {
	ObjectType string
	Name       string
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.ObjectType, e.Name)
}

// TypeInUseError rejects deleting a type that still has usages when
// neither force nor a replacement type was given.
type TypeInUseError struct {
	ObjectType string
	Name       string
	UsageCount int
}

func (e *TypeInUseError) Error() string {
	return fmt.Sprintf("%s %q is used by %d record(s); pass force or replaceWith to delete it",
		e.ObjectType, e.Name, e.UsageCount)
}

// StorageCorruptError reports an unparseable record line in the store.
// Corruption is fatal for the call; records are never silently dropped.
type StorageCorruptError struct {
	Line int
	Err  error
}

func (e *StorageCorruptError) Error() string {
	return fmt.Sprintf("store corrupt at line %d: %v", e.Line, e.Err)
}

func (e *StorageCorruptError) Unwrap() error {
	return e.Err
}
