// Package mapper implements IR-to-graph insertion: given one file's
// package ir.File, it upserts the file node, creates every entity and
// relationship the IR describes, and writes the whole thing as a single
// atomic batch so a failure midway leaves no partial file in the store.
package mapper

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/codegraph/codegraph/pkg/graphstore"
	"github.com/codegraph/codegraph/pkg/ir"
	"github.com/codegraph/codegraph/pkg/query"
)

// Summary reports what Map did: the file node touched, the ids created
// for every entity kind, and the parse duration the caller supplied (the
// mapper never measures parsing itself; front-ends own that clock).
type Summary struct {
	RequestID     string
	FileNodeID    graphstore.NodeID
	FunctionIDs   []graphstore.NodeID
	ClassIDs      []graphstore.NodeID
	TraitIDs      []graphstore.NodeID
	ModuleIDs     []graphstore.NodeID
	EdgeIDs       []graphstore.EdgeID
	ParseDuration time.Duration
}

// entityRef is the mapper's own handle on a node that either already
// exists (id known up front) or is pending creation at some index within
// the batch Map is assembling. graphstore.NodeRef plays the same role at
// the store boundary but keeps its fields private, so mapper tracks its
// own copy and only converts to a graphstore.NodeRef at the point it
// builds an EdgeWriteSpec.
type entityRef struct {
	id    graphstore.NodeID
	index int
	isNew bool
}

func existingRef(id graphstore.NodeID) entityRef { return entityRef{id: id} }

func (e entityRef) toNodeRef() graphstore.NodeRef {
	if e.isNew {
		return graphstore.NewNodeRef(e.index)
	}
	return graphstore.ExistingNodeRef(e.id)
}

func (e entityRef) resolve(newIDs []graphstore.NodeID) graphstore.NodeID {
	if e.isNew {
		return newIDs[e.index]
	}
	return e.id
}

// externalKey builds the dedup key for an unresolved-name placeholder,
// colon-joining discriminator and name the way coderisk's
// buildCompositeNodeID joins repo id, type, and identifier, generalized
// here to a two-part key since one mapper call is already scoped to one
// store, not one row of a multi-tenant table.
func externalKey(kind graphstore.NodeKind, name string) string {
	return fmt.Sprintf("%s:%s", kind, name)
}

// builder accumulates the node and edge specs for one Map call and
// resolves names to entityRefs, deduplicating external placeholders
// within the call.
type builder struct {
	store *graphstore.Store

	nodeSpecs []graphstore.NodeSpec
	edgeSpecs []graphstore.EdgeWriteSpec

	// localByName resolves a function/class/trait/module name declared
	// in this file to the ref created for it. Call/inheritance/
	// implementation resolution checks this first, so a name the file
	// declares itself always wins over a placeholder.
	localByName map[string]entityRef

	// externalByKey dedupes placeholder nodes for names unresolved
	// within the file, keyed by externalKey, so two references to the
	// same external name in one file produce one placeholder, not two.
	externalByKey map[string]entityRef
}

func newBuilder(store *graphstore.Store) *builder {
	return &builder{
		store:         store,
		localByName:   make(map[string]entityRef),
		externalByKey: make(map[string]entityRef),
	}
}

func (b *builder) addNode(kind graphstore.NodeKind, props *graphstore.PropertyMap) entityRef {
	idx := len(b.nodeSpecs)
	b.nodeSpecs = append(b.nodeSpecs, graphstore.NodeSpec{Kind: kind, Properties: props})
	return entityRef{index: idx, isNew: true}
}

func (b *builder) addEdge(source, target entityRef, kind graphstore.EdgeKind, props *graphstore.PropertyMap) {
	b.edgeSpecs = append(b.edgeSpecs, graphstore.EdgeWriteSpec{
		Source:     source.toNodeRef(),
		Target:     target.toNodeRef(),
		Kind:       kind,
		Properties: props,
	})
}

// upsertFile resolves the File node for path, updating it in place if it
// already exists (re-mapping the same path never creates a second File
// node) or queuing its creation in this call's batch otherwise.
func (b *builder) upsertFile(path, language string, mod *ir.Module) (entityRef, error) {
	existing, err := query.New(b.store).ByKind(graphstore.KindFile).WithProperty("path", graphstore.String(path)).Execute()
	if err != nil {
		return entityRef{}, err
	}
	props := fileProperties(path, language, mod)
	if len(existing) > 0 {
		if err := b.store.UpdateNode(existing[0].ID, props); err != nil {
			return entityRef{}, err
		}
		return existingRef(existing[0].ID), nil
	}
	return b.addNode(graphstore.KindFile, props), nil
}

// findOrCreate resolves name to an existing node of kind declared in this
// file, then to a placeholder already created for (kind, name) earlier in
// this same call, creating a new node via newProps only as a last resort.
// It never queries the rest of the store for a same-named node: name
// resolution is scoped to the current file, so a name this file doesn't
// declare itself always gets its own placeholder here, never a silent
// link to an unrelated file's real entity of the same name.
func (b *builder) findOrCreate(kind graphstore.NodeKind, name string, newProps func() *graphstore.PropertyMap) (entityRef, error) {
	if ref, ok := b.localByName[name]; ok {
		return ref, nil
	}
	key := externalKey(kind, name)
	if ref, ok := b.externalByKey[key]; ok {
		return ref, nil
	}
	ref := b.addNode(kind, newProps())
	b.externalByKey[key] = ref
	return ref, nil
}

// resolveExternal is findOrCreate with the placeholder-node convention:
// an unresolved name becomes a node of kind, flagged external, carrying
// only its name.
func (b *builder) resolveExternal(kind graphstore.NodeKind, name string) (entityRef, error) {
	return b.findOrCreate(kind, name, func() *graphstore.PropertyMap {
		props := graphstore.NewPropertyMap()
		props.Set("name", graphstore.String(name))
		props.Set("external", graphstore.Bool(true))
		return props
	})
}

// resolveModule is findOrCreate specialized for import targets: the
// front-end's own is-external heuristic decides the flag on a freshly
// created module, rather than mapper always assuming true the way
// resolveExternal does for calls and inheritance.
func (b *builder) resolveModule(name string, isExternal bool) (entityRef, error) {
	return b.findOrCreate(graphstore.KindModule, name, func() *graphstore.PropertyMap {
		props := graphstore.NewPropertyMap()
		props.Set("name", graphstore.String(name))
		props.Set("external", graphstore.Bool(isExternal))
		return props
	})
}

// Map inserts one file's IR into store and returns a summary of what was
// created. path and language are supplied by the caller: the front-end
// hands the mapper the IR together with the logical file path and
// language identifier, separate from the IR structure itself.
// parseDuration is reported by the front-end and carried through
// unchanged for the caller's project-level aggregation.
func Map(store *graphstore.Store, path, language string, file *ir.File, parseDuration time.Duration) (*Summary, error) {
	if file == nil {
		return nil, fmt.Errorf("%w: nil IR", ErrInvalidArgument)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty file path", ErrInvalidArgument)
	}

	b := newBuilder(store)

	fileRef, err := b.upsertFile(path, language, file.Module)
	if err != nil {
		return nil, err
	}

	var functionRefs, classRefs, traitRefs, moduleRefs []entityRef

	for i := range file.Functions {
		fn := &file.Functions[i]
		ref := b.addNode(graphstore.KindFunction, functionProperties(fn))
		registerName(b.localByName, fn.Name, fn.QualifiedName, ref)
		b.addEdge(fileRef, ref, graphstore.EdgeContains, nil)
		functionRefs = append(functionRefs, ref)
	}

	for i := range file.Classes {
		cls := &file.Classes[i]
		classRef := b.addNode(graphstore.KindClass, classProperties(cls))
		registerName(b.localByName, cls.Name, cls.QualifiedName, classRef)
		b.addEdge(fileRef, classRef, graphstore.EdgeContains, nil)
		classRefs = append(classRefs, classRef)

		for j := range cls.Methods {
			m := &cls.Methods[j]
			props := functionProperties(m)
			props.Set("parent_class", graphstore.String(cls.Name))
			methodRef := b.addNode(graphstore.KindFunction, props)
			qualified := cls.Name + "." + m.Name
			if _, taken := b.localByName[qualified]; !taken {
				b.localByName[qualified] = methodRef
			}
			if _, taken := b.localByName[m.Name]; !taken {
				b.localByName[m.Name] = methodRef
			}
			b.addEdge(classRef, methodRef, graphstore.EdgeContains, nil)
			functionRefs = append(functionRefs, methodRef)
		}
	}

	for i := range file.Traits {
		tr := &file.Traits[i]
		traitRef := b.addNode(graphstore.KindInterface, traitProperties(tr))
		registerName(b.localByName, tr.Name, "", traitRef)
		b.addEdge(fileRef, traitRef, graphstore.EdgeContains, nil)
		traitRefs = append(traitRefs, traitRef)
	}

	for i := range file.Modules {
		mod := &file.Modules[i]
		modRef := b.addNode(graphstore.KindModule, moduleProperties(mod))
		registerName(b.localByName, mod.Name, "", modRef)
		b.addEdge(fileRef, modRef, graphstore.EdgeContains, nil)
		moduleRefs = append(moduleRefs, modRef)
	}

	for _, imp := range file.Imports {
		modRef, err := b.resolveModule(imp.Imported, imp.IsExternal)
		if err != nil {
			return nil, err
		}
		props := graphstore.NewPropertyMap()
		if len(imp.Symbols) > 0 {
			props.Set("symbols", graphstore.StringList(imp.Symbols))
		}
		props.Set("wildcard", graphstore.Bool(imp.Wildcard))
		if imp.Alias != "" {
			props.Set("alias", graphstore.String(imp.Alias))
		}
		b.addEdge(fileRef, modRef, graphstore.EdgeImports, props)
	}

	for _, call := range file.Calls {
		callerRef, err := b.resolveExternal(graphstore.KindFunction, call.Caller)
		if err != nil {
			return nil, err
		}
		calleeRef, err := b.resolveExternal(graphstore.KindFunction, call.Callee)
		if err != nil {
			return nil, err
		}
		props := graphstore.NewPropertyMap()
		props.Set("line", graphstore.Int64(int64(call.Line)))
		props.Set("indirect", graphstore.Bool(call.Indirect))
		b.addEdge(callerRef, calleeRef, graphstore.EdgeCalls, props)
	}

	for _, inh := range file.Inheritance {
		childRef, err := b.resolveExternal(graphstore.KindClass, inh.Child)
		if err != nil {
			return nil, err
		}
		parentRef, err := b.resolveExternal(graphstore.KindClass, inh.Parent)
		if err != nil {
			return nil, err
		}
		props := graphstore.NewPropertyMap()
		props.Set("order", graphstore.Int64(int64(inh.Order)))
		b.addEdge(childRef, parentRef, graphstore.EdgeExtends, props)
	}

	for _, impl := range file.Implementations {
		implRef, err := b.resolveExternal(graphstore.KindClass, impl.Implementor)
		if err != nil {
			return nil, err
		}
		traitRef, err := b.resolveExternal(graphstore.KindInterface, impl.Trait)
		if err != nil {
			return nil, err
		}
		b.addEdge(implRef, traitRef, graphstore.EdgeImplements, nil)
	}

	newIDs, edgeIDs, err := store.BatchWrite(b.nodeSpecs, b.edgeSpecs)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RequestID:     uuid.NewString(),
		FileNodeID:    fileRef.resolve(newIDs),
		EdgeIDs:       edgeIDs,
		ParseDuration: parseDuration,
	}
	for _, ref := range functionRefs {
		summary.FunctionIDs = append(summary.FunctionIDs, ref.resolve(newIDs))
	}
	for _, ref := range classRefs {
		summary.ClassIDs = append(summary.ClassIDs, ref.resolve(newIDs))
	}
	for _, ref := range traitRefs {
		summary.TraitIDs = append(summary.TraitIDs, ref.resolve(newIDs))
	}
	for _, ref := range moduleRefs {
		summary.ModuleIDs = append(summary.ModuleIDs, ref.resolve(newIDs))
	}
	return summary, nil
}

func registerName(table map[string]entityRef, name, qualifiedName string, ref entityRef) {
	if name != "" {
		table[name] = ref
	}
	if qualifiedName != "" {
		table[qualifiedName] = ref
	}
}

func fileProperties(path, language string, mod *ir.Module) *graphstore.PropertyMap {
	props := graphstore.NewPropertyMap()
	props.Set("path", graphstore.String(path))
	props.Set("language", graphstore.String(language))
	if mod == nil {
		return props
	}
	if mod.Name != "" {
		props.Set("name", graphstore.String(mod.Name))
	}
	if mod.LineCount != 0 {
		props.Set("line_count", graphstore.Int64(int64(mod.LineCount)))
	}
	if mod.Documentation != "" {
		props.Set("documentation", graphstore.String(mod.Documentation))
	}
	if len(mod.Attributes) > 0 {
		props.Set("attributes", graphstore.StringList(mod.Attributes))
	}
	return props
}

func moduleProperties(mod *ir.Module) *graphstore.PropertyMap {
	props := graphstore.NewPropertyMap()
	props.Set("name", graphstore.String(mod.Name))
	if mod.Path != "" {
		props.Set("path", graphstore.String(mod.Path))
	}
	if mod.Language != "" {
		props.Set("language", graphstore.String(mod.Language))
	}
	if mod.LineCount != 0 {
		props.Set("line_count", graphstore.Int64(int64(mod.LineCount)))
	}
	if mod.Documentation != "" {
		props.Set("documentation", graphstore.String(mod.Documentation))
	}
	return props
}

func functionProperties(fn *ir.Function) *graphstore.PropertyMap {
	props := graphstore.NewPropertyMap()
	props.Set("name", graphstore.String(fn.Name))
	if fn.QualifiedName != "" {
		props.Set("qualified_name", graphstore.String(fn.QualifiedName))
	}
	props.Set("line_start", graphstore.Int64(int64(fn.StartLine)))
	props.Set("line_end", graphstore.Int64(int64(fn.EndLine)))
	if fn.Signature != "" {
		props.Set("signature", graphstore.String(fn.Signature))
	}
	if fn.Visibility != "" {
		props.Set("visibility", graphstore.String(string(fn.Visibility)))
	}
	if len(fn.Parameters) > 0 {
		names := make([]string, len(fn.Parameters))
		types := make([]string, len(fn.Parameters))
		for i, p := range fn.Parameters {
			names[i] = p.Name
			types[i] = p.Type
		}
		props.Set("parameter_names", graphstore.StringList(names))
		props.Set("parameter_types", graphstore.StringList(types))
	}
	if fn.ReturnType != "" {
		props.Set("return_type", graphstore.String(fn.ReturnType))
	}
	props.Set("is_async", graphstore.Bool(fn.IsAsync))
	props.Set("is_static", graphstore.Bool(fn.IsStatic))
	props.Set("is_abstract", graphstore.Bool(fn.IsAbstract))
	props.Set("is_test", graphstore.Bool(fn.IsTest))
	if fn.Documentation != "" {
		props.Set("documentation", graphstore.String(fn.Documentation))
	}
	if len(fn.Attributes) > 0 {
		props.Set("attributes", graphstore.StringList(fn.Attributes))
	}
	if fn.ParentClass != "" {
		props.Set("parent_class", graphstore.String(fn.ParentClass))
	}
	if fn.Complexity != nil {
		props.Set("complexity_grade", graphstore.String(fn.Complexity.Grade))
		// Counter keys are sorted so the property map serializes the same
		// way on every run.
		keys := make([]string, 0, len(fn.Complexity.Counters))
		for k := range fn.Complexity.Counters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			props.Set("complexity_"+k, graphstore.Int64(fn.Complexity.Counters[k]))
		}
	}
	return props
}

func classProperties(cls *ir.Class) *graphstore.PropertyMap {
	props := graphstore.NewPropertyMap()
	props.Set("name", graphstore.String(cls.Name))
	if cls.QualifiedName != "" {
		props.Set("qualified_name", graphstore.String(cls.QualifiedName))
	}
	props.Set("line_start", graphstore.Int64(int64(cls.StartLine)))
	props.Set("line_end", graphstore.Int64(int64(cls.EndLine)))
	if cls.Visibility != "" {
		props.Set("visibility", graphstore.String(string(cls.Visibility)))
	}
	props.Set("is_abstract", graphstore.Bool(cls.IsAbstract))
	props.Set("is_interface", graphstore.Bool(cls.IsInterface))
	if len(cls.BaseClasses) > 0 {
		props.Set("base_classes", graphstore.StringList(cls.BaseClasses))
	}
	if len(cls.ImplementedTraits) > 0 {
		props.Set("implemented_traits", graphstore.StringList(cls.ImplementedTraits))
	}
	if len(cls.Fields) > 0 {
		props.Set("fields", graphstore.StringList(cls.Fields))
	}
	if cls.Documentation != "" {
		props.Set("documentation", graphstore.String(cls.Documentation))
	}
	if len(cls.Attributes) > 0 {
		props.Set("attributes", graphstore.StringList(cls.Attributes))
	}
	if len(cls.TypeParameters) > 0 {
		props.Set("type_parameters", graphstore.StringList(cls.TypeParameters))
	}
	return props
}

func traitProperties(tr *ir.Trait) *graphstore.PropertyMap {
	props := graphstore.NewPropertyMap()
	props.Set("name", graphstore.String(tr.Name))
	props.Set("line_start", graphstore.Int64(int64(tr.StartLine)))
	props.Set("line_end", graphstore.Int64(int64(tr.EndLine)))
	if tr.Visibility != "" {
		props.Set("visibility", graphstore.String(string(tr.Visibility)))
	}
	if len(tr.RequiredMethods) > 0 {
		props.Set("required_methods", graphstore.StringList(tr.RequiredMethods))
	}
	if len(tr.ParentTraits) > 0 {
		props.Set("parent_traits", graphstore.StringList(tr.ParentTraits))
	}
	if tr.Documentation != "" {
		props.Set("documentation", graphstore.String(tr.Documentation))
	}
	return props
}
