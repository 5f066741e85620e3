package voxstream

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64
type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

// Ecs stores entities grouped by their exact component set (archetype).
// Iteration follows archetype creation order, then row order, so a frame
// sees cameras and observers in the same order every run.
type Ecs struct {
	archetypes  map[archetypeId]*archetype
	archOrder   []*archetype
	entityIndex map[EntityId]archetypeId

	idGeneratorLock sync.Mutex
	entityIdCounter EntityId

	componentIdCounterLock sync.Mutex
	componentIdCounter     componentId
	componentTypeIdMap     map[reflect.Type]componentId
	componentIdTypeMap     map[componentId]reflect.Type
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:         make(map[archetypeId]*archetype),
		entityIndex:        make(map[EntityId]archetypeId),
		componentTypeIdMap: make(map[reflect.Type]componentId),
		componentIdTypeMap: make(map[componentId]reflect.Type),
	}
}

type archetype struct {
	id       archetypeId
	key      archetypeKey
	entities map[EntityId]row
	owners   []EntityId // owner of each row while live[row]
	live     []bool
	columns  map[componentId]*column
	recycled []row
}

// each visits live rows in order until fn returns false. It reports whether
// the walk ran to the end.
func (arch *archetype) each(fn func(EntityId, row) bool) bool {
	for r, alive := range arch.live {
		if alive && !fn(arch.owners[r], row(r)) {
			return false
		}
	}
	return true
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	arch := ecs.getOrMakeArchetype(ecs.getArchetypeKey(components...))

	r := ecs.claimRow(arch, entityId)
	for _, component := range components {
		ecs.writeComponent(arch, r, component)
	}
	return entityId
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	ecs.recycleEntity(entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	src := ecs.archetypes[ecs.entityIndex[entityId]]
	dst := ecs.getOrMakeArchetype(combineArchetypeKeys(src.key, ecs.getArchetypeKey(components...)))
	if dst == src {
		r := src.entities[entityId]
		for _, component := range components {
			ecs.writeComponent(src, r, component)
		}
		return
	}

	r := ecs.migrate(entityId, src, dst)
	for _, component := range components {
		ecs.writeComponent(dst, r, component)
	}
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	src := ecs.archetypes[ecs.entityIndex[entityId]]

	drop := make(set[componentId])
	for _, c := range components {
		drop[ecs.getComponentId(componentType(c))] = struct{}{}
	}

	var key archetypeKey
	for _, id := range src.key {
		if _, ok := drop[id]; !ok {
			key = append(key, id)
		}
	}
	if len(key) == len(src.key) {
		return
	}
	ecs.migrate(entityId, src, ecs.getOrMakeArchetype(key))
}

// migrate moves entityId from src to dst, copying the components both share,
// and returns its row in dst.
func (ecs *Ecs) migrate(entityId EntityId, src, dst *archetype) row {
	srcRow := src.entities[entityId]
	ecs.recycleEntity(entityId)
	// The freed source row is not cleared yet, so the copy below still sees it.
	dstRow := ecs.claimRow(dst, entityId)

	for id, col := range dst.columns {
		if from, ok := src.columns[id]; ok {
			col.set(dstRow, from.get(srcRow))
		}
	}
	for _, col := range src.columns {
		col.clear(srcRow)
	}
	return dstRow
}

func (ecs *Ecs) writeComponent(arch *archetype, r row, component any) {
	id := ecs.getComponentId(componentType(component))
	arch.columns[id].set(r, componentValue(component))
}

// recycleEntity forgets entityId and frees its row for reuse. The row's
// values stay until the row is cleared or claimed again.
func (ecs *Ecs) recycleEntity(entityId EntityId) {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return
	}
	arch := ecs.archetypes[archId]

	r := arch.entities[entityId]
	arch.live[r] = false
	arch.recycled = append(arch.recycled, r)

	delete(arch.entities, entityId)
	delete(ecs.entityIndex, entityId)
}

// claimRow hands out a recycled row or grows every column by one.
func (ecs *Ecs) claimRow(arch *archetype, entityId EntityId) row {
	var r row
	if n := len(arch.recycled); n > 0 {
		r = arch.recycled[n-1]
		arch.recycled = arch.recycled[:n-1]
		arch.owners[r] = entityId
		arch.live[r] = true
	} else {
		r = row(len(arch.live))
		arch.owners = append(arch.owners, entityId)
		arch.live = append(arch.live, true)
		for _, col := range arch.columns {
			col.grow()
		}
	}

	arch.entities[entityId] = r
	ecs.entityIndex[entityId] = arch.id
	return r
}

func (ecs *Ecs) getOrMakeArchetype(key archetypeKey) *archetype {
	id := getArchetypeId(key)

	if arch, ok := ecs.archetypes[id]; ok {
		if !slices.Equal(arch.key, key) {
			panic(fmt.Sprintf("archetype id %d collides for keys %v and %v", id, arch.key, key))
		}
		return arch
	}

	arch := &archetype{
		id:       id,
		key:      key,
		entities: make(map[EntityId]row),
		columns:  make(map[componentId]*column, len(key)),
	}
	for _, componentId := range key {
		arch.columns[componentId] = newColumn(ecs.getComponentType(componentId))
	}

	ecs.archetypes[id] = arch
	ecs.archOrder = append(ecs.archOrder, arch)
	return arch
}

// An archetype key is the sorted, deduplicated list of its component ids.
// The archetype id is a hash of the key; getOrMakeArchetype checks the key on
// lookup so a collision fails loudly.
func (ecs *Ecs) getArchetypeKey(components ...any) archetypeKey {
	var res archetypeKey
	for _, component := range components {
		res = append(res, ecs.getComponentId(componentType(component)))
	}
	return dedupAndSortArchetypeKey(res)
}

func combineArchetypeKeys(a archetypeKey, b archetypeKey) archetypeKey {
	return dedupAndSortArchetypeKey(append(slices.Clone(a), b...))
}

func dedupAndSortArchetypeKey(key archetypeKey) archetypeKey {
	res := slices.Clone(key)
	slices.Sort(res)
	return slices.Compact(res)
}

func getArchetypeId(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	var b [4]byte
	for _, componentId := range key {
		binary.LittleEndian.PutUint32(b[:], uint32(componentId))
		hash.Write(b[:])
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idGeneratorLock.Lock()
	defer ecs.idGeneratorLock.Unlock()

	id := ecs.entityIdCounter
	ecs.entityIdCounter++
	return id
}

func (ecs *Ecs) getComponentId(componentType reflect.Type) componentId {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	if id, ok := ecs.componentTypeIdMap[componentType]; ok {
		return id
	}
	id := ecs.componentIdCounter
	ecs.componentIdCounter++
	ecs.componentTypeIdMap[componentType] = id
	ecs.componentIdTypeMap[id] = componentType
	return id
}

func (ecs *Ecs) getComponentType(componentId componentId) reflect.Type {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	if t, ok := ecs.componentIdTypeMap[componentId]; ok {
		return t
	}
	panic(fmt.Sprintf("component id %d is not registered", componentId))
}

// getComponent returns a pointer to entityId's component of type T, or nil.
// The pointer is valid until the entity's archetype next grows.
func getComponent[T any](ecs *Ecs, entityId EntityId) *T {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]
	col, ok := arch.columns[ecs.getComponentId(reflect.TypeFor[T]())]
	if !ok {
		return nil
	}
	return &col.slice().([]T)[arch.entities[entityId]]
}

// components returns copies of every component of entityId, in key order.
func (ecs *Ecs) components(entityId EntityId) []any {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]
	r := arch.entities[entityId]

	res := make([]any, 0, len(arch.key))
	for _, id := range arch.key {
		res = append(res, arch.columns[id].get(r).Interface())
	}
	return res
}
