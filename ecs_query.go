package voxstream

import (
	"reflect"
)

// Query1..Query3 visit every entity holding all of their component types.
// Types passed to Map as optionals may be missing; their pointer is then nil.
// Visiting order is stable: archetypes in creation order, rows in order.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	idA := componentIdOf[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archOrder {
		as, hasA, ok := columnOf[A](arch, idA, opt)
		if !ok {
			continue
		}
		if !arch.each(func(eid EntityId, r row) bool {
			return m(eid, at(as, hasA, r))
		}) {
			return
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	idA, idB := componentIdOf[A](q.ecs), componentIdOf[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archOrder {
		as, hasA, ok := columnOf[A](arch, idA, opt)
		if !ok {
			continue
		}
		bs, hasB, ok := columnOf[B](arch, idB, opt)
		if !ok {
			continue
		}
		if !arch.each(func(eid EntityId, r row) bool {
			return m(eid, at(as, hasA, r), at(bs, hasB, r))
		}) {
			return
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	idA, idB, idC := componentIdOf[A](q.ecs), componentIdOf[B](q.ecs), componentIdOf[C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archOrder {
		as, hasA, ok := columnOf[A](arch, idA, opt)
		if !ok {
			continue
		}
		bs, hasB, ok := columnOf[B](arch, idB, opt)
		if !ok {
			continue
		}
		cs, hasC, ok := columnOf[C](arch, idC, opt)
		if !ok {
			continue
		}
		if !arch.each(func(eid EntityId, r row) bool {
			return m(eid, at(as, hasA, r), at(bs, hasB, r), at(cs, hasC, r))
		}) {
			return
		}
	}
}

// columnOf resolves T's storage in arch. ok is false when arch does not match
// the query; present is false when T is an optional the archetype lacks.
func columnOf[T any](arch *archetype, id componentId, opt set[componentId]) (comps []T, present, ok bool) {
	if col, found := arch.columns[id]; found {
		return col.slice().([]T), true, true
	}
	if _, optional := opt[id]; optional {
		return nil, false, true
	}
	return nil, false, false
}

func at[T any](comps []T, present bool, r row) *T {
	if !present {
		return nil
	}
	return &comps[r]
}

func componentIdOf[T any](ecs *Ecs) componentId {
	return ecs.getComponentId(reflect.TypeFor[T]())
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId], len(components))
	for _, c := range components {
		res[ecs.getComponentId(componentType(c))] = struct{}{}
	}
	return res
}
