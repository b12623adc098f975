package object

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/introspect"
)

// Graph holds the imported modules of one documentation run and doubles as
// the import service and the source-analysis provider for them.
type Graph struct {
	modules  map[string]*Object
	analyses map[string]*analyzer.Analysis
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		modules:  make(map[string]*Object),
		analyses: make(map[string]*analyzer.Analysis),
	}
}

// AddModule registers a module and, optionally, its source analysis.
func (g *Graph) AddModule(m *Object, analysis *analyzer.Analysis) {
	g.modules[m.Module] = m
	if analysis != nil {
		g.analyses[m.Module] = analysis
	}
}

// ImportModule implements Importer.
func (g *Graph) ImportModule(name string) (*Object, error) {
	if m, ok := g.modules[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("module %s: %w", name, ErrNotFound)
}

// Analyze implements analyzer.Provider.
func (g *Graph) Analyze(module string) (*analyzer.Analysis, error) {
	if a, ok := g.analyses[module]; ok {
		return a, nil
	}
	return nil, analyzer.ErrNoSource
}

// ModuleNames lists loaded modules in sorted order.
func (g *Graph) ModuleNames() []string {
	names := make([]string, 0, len(g.modules))
	for name := range g.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serialized graph description. One file describes the modules of a
// project: nested object definitions plus per-module source analysis.

type jsonGraph struct {
	Modules map[string]*jsonObject `json:"modules"`
}

type jsonObject struct {
	Kind         string                 `json:"kind"`
	Doc          string                 `json:"doc"`
	Module       string                 `json:"module"` // defining module, if imported from elsewhere
	Name         string                 `json:"name"`   // real name, if the key is an alias
	Flags        []string               `json:"flags"`
	File         string                 `json:"file"`
	Exports      *[]string              `json:"exports"`
	BadExports   bool                   `json:"bad_exports"`
	Attrs        map[string]*jsonObject `json:"attrs"`
	Annotations  map[string]string      `json:"annotations"`
	Bases        []string               `json:"bases"`
	Metaclass    string                 `json:"metaclass"`
	Slots        map[string]string      `json:"slots"`
	RuntimeAttrs []string               `json:"runtime_attrs"`
	Signature    *jsonSignature         `json:"signature"`
	Dispatch     []jsonDispatch         `json:"dispatch"`
	Getter       *jsonObject            `json:"getter"`
	Value        *string                `json:"value"`
	Analysis     *jsonAnalysis          `json:"analysis"`
}

type jsonSignature struct {
	Invalid bool        `json:"invalid"`
	Params  []jsonParam `json:"params"`
	Return  string      `json:"return"`
}

type jsonParam struct {
	Name       string `json:"name"`
	Annotation string `json:"annotation"`
	Default    string `json:"default"`
	Kind       string `json:"kind"` // "", "pos", "*", "kw", "**"
}

type jsonDispatch struct {
	Type string      `json:"type"`
	Func *jsonObject `json:"func"`
}

type jsonAnalysis struct {
	SourceFile  string                     `json:"source_file"`
	AttrDocs    []jsonAttrDoc              `json:"attr_docs"`
	TagOrder    []string                   `json:"tag_order"`
	Overloads   map[string][]jsonSignature `json:"overloads"`
	Annotations []jsonAnnotation           `json:"annotations"`
	Finals      []string                   `json:"finals"`
}

type jsonAttrDoc struct {
	Namespace string   `json:"namespace"`
	Name      string   `json:"name"`
	Lines     []string `json:"lines"`
}

type jsonAnnotation struct {
	Namespace  string `json:"namespace"`
	Name       string `json:"name"`
	Annotation string `json:"annotation"`
}

var flagNames = map[string]Flags{
	"exception":         FlagException,
	"builtin":           FlagBuiltin,
	"abstract":          FlagAbstract,
	"async":             FlagAsync,
	"classmethod":       FlagClassMethod,
	"staticmethod":      FlagStaticMethod,
	"data_descriptor":   FlagDataDescriptor,
	"generic_alias":     FlagGenericAlias,
	"typevar":           FlagTypeVarLike,
	"mocked":            FlagMocked,
	"invalid_signature": FlagInvalidSignature,
}

// LoadGraph reads a serialized object graph.
func LoadGraph(r io.Reader) (*Graph, error) {
	var raw jsonGraph
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding object graph: %w", err)
	}
	g := NewGraph()
	b := &graphBuilder{byPath: map[string]*Object{}}
	for modname, jm := range raw.Modules {
		module := b.build(modname, "", modname, jm)
		module.Kind = KindModule
		module.Module = modname
		var analysis *analyzer.Analysis
		if jm.Analysis != nil {
			analysis = buildAnalysis(jm.Analysis)
		}
		g.AddModule(module, analysis)
	}
	b.resolveClassRefs()
	return g, nil
}

// LoadGraphFile reads a serialized object graph from disk.
func LoadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening object graph: %w", err)
	}
	defer f.Close()
	return LoadGraph(f)
}

type classRef struct {
	cls       *Object
	bases     []string
	metaclass string
}

type graphBuilder struct {
	byPath map[string]*Object
	refs   []classRef
}

func (b *graphBuilder) build(modname, qual, key string, jo *jsonObject) *Object {
	name := jo.Name
	if name == "" {
		name = key
	}
	o := &Object{
		Name:           name,
		Module:         modname,
		QualName:       qual,
		Kind:           Kind(jo.Kind),
		Doc:            jo.Doc,
		File:           jo.File,
		ExportsInvalid: jo.BadExports,
		Annotations:    jo.Annotations,
		Slots:          jo.Slots,
		RuntimeAttrs:   jo.RuntimeAttrs,
	}
	if jo.Module != "" {
		o.Module = jo.Module
	}
	if o.Kind == "" {
		o.Kind = KindValue
	}
	if jo.Exports != nil {
		o.Exports = *jo.Exports
	}
	for _, f := range jo.Flags {
		o.Flags |= flagNames[f]
	}
	if jo.Signature != nil {
		if jo.Signature.Invalid {
			o.Flags |= FlagInvalidSignature
		}
		o.Signature = buildSignature(jo.Signature)
	}
	if jo.Value != nil {
		o.Value = *jo.Value
		o.HasValue = true
	}
	if len(jo.Attrs) > 0 {
		o.Attrs = make(map[string]*Object, len(jo.Attrs))
		for childKey, child := range jo.Attrs {
			childQual := childKey
			if qual != "" {
				childQual = qual + "." + childKey
			}
			o.Attrs[childKey] = b.build(o.Module, childQual, childKey, child)
		}
	}
	if jo.Getter != nil {
		o.Getter = b.build(o.Module, qual+".fget", "fget", jo.Getter)
	}
	for _, d := range jo.Dispatch {
		o.Dispatch = append(o.Dispatch, DispatchEntry{
			TypeName: d.Type,
			Func:     b.build(o.Module, qual, key, d.Func),
		})
	}
	path := modname
	if qual != "" {
		path = modname + "." + qual
	}
	b.byPath[path] = o
	if o.Kind == KindClass && (len(jo.Bases) > 0 || jo.Metaclass != "") {
		b.refs = append(b.refs, classRef{cls: o, bases: jo.Bases, metaclass: jo.Metaclass})
	}
	return o
}

// resolveClassRefs links base classes and metaclasses by dotted path once
// the whole graph exists, then forces ancestry linearization so later reads
// are pure lookups.
func (b *graphBuilder) resolveClassRefs() {
	for _, ref := range b.refs {
		for _, basePath := range ref.bases {
			if base, ok := b.byPath[basePath]; ok {
				ref.cls.Bases = append(ref.cls.Bases, base)
			} else {
				// Unresolvable bases are kept as opaque stubs so the
				// inheritance line can still name them.
				ref.cls.Bases = append(ref.cls.Bases, stubClass(basePath))
			}
		}
		if ref.metaclass != "" {
			if meta, ok := b.byPath[ref.metaclass]; ok {
				ref.cls.Metaclass = meta
			} else {
				ref.cls.Metaclass = stubClass(ref.metaclass)
			}
		}
	}
	for _, ref := range b.refs {
		ref.cls.Ancestry()
	}
}

func stubClass(path string) *Object {
	module, qual := splitPath(path)
	name := qual
	if i := strings.LastIndexByte(qual, '.'); i >= 0 {
		name = qual[i+1:]
	}
	return &Object{Name: name, Module: module, QualName: qual, Kind: KindClass}
}

func splitPath(path string) (module, qual string) {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, path
}

var paramKinds = map[string]introspect.ParamKind{
	"":    introspect.PositionalOrKeyword,
	"pos": introspect.PositionalOnly,
	"*":   introspect.VarPositional,
	"kw":  introspect.KeywordOnly,
	"**":  introspect.VarKeyword,
}

func buildSignature(js *jsonSignature) *introspect.Signature {
	sig := &introspect.Signature{Return: js.Return}
	for _, p := range js.Params {
		sig.Params = append(sig.Params, introspect.Param{
			Name:       p.Name,
			Annotation: p.Annotation,
			Default:    p.Default,
			Kind:       paramKinds[p.Kind],
		})
	}
	return sig
}

func buildAnalysis(ja *jsonAnalysis) *analyzer.Analysis {
	a := &analyzer.Analysis{
		SourceFile:  ja.SourceFile,
		AttrDocs:    map[analyzer.Key][]string{},
		TagOrder:    map[string]int{},
		Overloads:   map[string][]*introspect.Signature{},
		Annotations: map[analyzer.Key]string{},
		Finals:      map[string]bool{},
	}
	for _, d := range ja.AttrDocs {
		a.AttrDocs[analyzer.Key{Namespace: d.Namespace, Name: d.Name}] = d.Lines
	}
	for i, name := range ja.TagOrder {
		a.TagOrder[name] = i
	}
	for name, sigs := range ja.Overloads {
		for i := range sigs {
			a.Overloads[name] = append(a.Overloads[name], buildSignature(&sigs[i]))
		}
	}
	for _, ann := range ja.Annotations {
		a.Annotations[analyzer.Key{Namespace: ann.Namespace, Name: ann.Name}] = ann.Annotation
	}
	for _, name := range ja.Finals {
		a.Finals[name] = true
	}
	return a
}
