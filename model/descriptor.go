// Package model turns struct types into immutable trees of elements.
//
// A Lexer classifies every member of a type as a leaf (it carries exactly one
// marker), a node (its type holds a leaf at some depth) or neither. The
// Parser walks a type with the Lexer, binds an accessor to each element and
// assembles a Tree. Cache memoizes trees per type with single-flight loads.
//
// # Members
//
// Members are struct fields. Embedded value structs without a marker are
// ancestors: their members are flattened into the embedding level, before
// the embedding type's own fields. Slices and arrays are classified by their
// component type, and a pointer is looked through once. Maps are never
// nodes.
//
// # Cycles
//
// A type already on the current search path contributes no leaves. A
// self-referential member such as
//
//	type List struct {
//		Value int   `arbor:"sum"`
//		Next  *List
//	}
//
// is therefore not a node of List: the tree of List holds Value only.
package model

import (
	"reflect"

	"github.com/gofhir/arbor/accessor"
)

// Descriptor identifies one member position.
type Descriptor struct {
	// Owner is the struct type the member is read from. Promoted members
	// report the embedding type, not the ancestor declaring them.
	Owner reflect.Type
	Name  string
	Type  reflect.Type
	// Component is the element type of a slice or array member, nil otherwise.
	Component reflect.Type
	// Index is the index path from Owner, as in reflect.Value.FieldByIndex.
	Index []int
	Tag   reflect.StructTag

	field reflect.StructField
}

// DescriptorOf describes field f of owner. f.Index must be relative to owner.
func DescriptorOf(owner reflect.Type, f reflect.StructField) Descriptor {
	d := Descriptor{
		Owner: owner,
		Name:  f.Name,
		Type:  f.Type,
		Index: f.Index,
		Tag:   f.Tag,
		field: f,
	}
	if c, ok := accessor.CollectionOf(f.Type); ok {
		d.Component = c
	}
	return d
}

// rootDescriptor describes the synthetic root element of t.
func rootDescriptor(t reflect.Type) Descriptor {
	return Descriptor{Name: t.Name(), Type: t}
}

// Field returns the struct field the descriptor was built from.
func (d Descriptor) Field() reflect.StructField {
	return d.field
}

// IsCollection reports whether the member is a slice or an array.
func (d Descriptor) IsCollection() bool {
	return d.Component != nil
}

// Target returns the type classification applies to: the component type of
// a collection, then one pointer dereferenced.
func (d Descriptor) Target() reflect.Type {
	t := d.Type
	if d.Component != nil {
		t = d.Component
	}
	return accessor.Indirect(t)
}

// Exported reports whether the member is an exported field.
func (d Descriptor) Exported() bool {
	return d.Owner == nil || d.field.IsExported()
}

func (d Descriptor) String() string {
	if d.Owner == nil {
		return d.Type.String()
	}
	return d.Owner.String() + "." + d.Name
}
