package voxstream

import (
	"fmt"
	"reflect"
)

// column stores one component type for every row of an archetype. Queries read
// it back as a typed []T that shares the backing array, so writes through the
// returned pointers land in the column.
type column struct {
	typ  reflect.Type
	data reflect.Value
}

func newColumn(typ reflect.Type) *column {
	return &column{typ: typ, data: reflect.MakeSlice(reflect.SliceOf(typ), 0, 4)}
}

func (c *column) len() int {
	return c.data.Len()
}

// grow appends a zero value and returns its row.
func (c *column) grow() row {
	c.data = reflect.Append(c.data, reflect.Zero(c.typ))
	return row(c.data.Len() - 1)
}

func (c *column) get(r row) reflect.Value {
	return c.data.Index(int(r))
}

func (c *column) set(r row, v reflect.Value) {
	if v.Type() != c.typ {
		panic(fmt.Sprintf("column of %s cannot hold %s", c.typ, v.Type()))
	}
	c.data.Index(int(r)).Set(v)
}

// clear zeroes a row so a freed row drops what it referenced, chunks included.
func (c *column) clear(r row) {
	c.data.Index(int(r)).Set(reflect.Zero(c.typ))
}

func (c *column) slice() any {
	return c.data.Interface()
}

// componentType returns the struct type a component value is stored under.
// Pointers to structs are stored as their struct.
func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Errorf("component must be a struct or a pointer to a struct, got %T", component))
	}
	return t
}

func componentValue(component any) reflect.Value {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return v
}
