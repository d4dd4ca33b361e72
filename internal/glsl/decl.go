package glsl

// The records below are the storable form of a Unit's global declarations.
// Buffer reference types are stored by name and linked after decoding so
// self-referencing blocks do not recurse.

const (
	descScalar    = "scalar"
	descVector    = "vector"
	descMatrix    = "matrix"
	descArray     = "array"
	descStruct    = "struct"
	descReference = "ref"
	descOpaque    = "opaque"
)

// TypeDesc is the storable form of a Type.
type TypeDesc struct {
	Kind   string
	Name   string      `msgpack:",omitempty"`
	Scalar ScalarKind  `msgpack:",omitempty"`
	Size   int         `msgpack:",omitempty"`
	Rows   int         `msgpack:",omitempty"`
	Dims   []int       `msgpack:",omitempty"`
	Elem   *TypeDesc   `msgpack:",omitempty"`
	Struct *StructDesc `msgpack:",omitempty"`
}

// StructDesc is the storable form of a StructType.
type StructDesc struct {
	Name    string
	Members []MemberDesc
	Line    int
	Column  int
}

// MemberDesc is one struct member.
type MemberDesc struct {
	Name   string
	Type   TypeDesc
	Line   int
	Column int
}

// SymbolDesc is the storable form of a global Symbol.
type SymbolDesc struct {
	Name       string
	Kind       SymbolKind
	Type       TypeDesc
	Params     []ParamDesc `msgpack:",omitempty"`
	Qualifiers []string    `msgpack:",omitempty"`
	Line       int
	Column     int
}

// ParamDesc is one function parameter.
type ParamDesc struct {
	Name string
	Type TypeDesc
}

// TypeDecl is a named user type. For buffer references Type.Struct holds
// the referent block.
type TypeDecl struct {
	Name   string
	Type   TypeDesc
	Line   int
	Column int
}

// UnitDecls holds every global declaration of one file.
type UnitDecls struct {
	URI        string
	Version    int
	Includes   []string
	Types      []TypeDecl
	Aggregates []StructDesc
	Symbols    []SymbolDesc
}

// EncodeUnit converts the global declarations of u into storable records.
func EncodeUnit(u *Unit) UnitDecls {
	d := UnitDecls{URI: u.URI, Version: u.Version}
	for _, inc := range u.Includes {
		d.Includes = append(d.Includes, inc.Path)
	}
	for _, ts := range u.Types {
		td := TypeDecl{Name: ts.Name, Line: ts.Loc.Pos.Line, Column: ts.Loc.Pos.Column}
		if ref, ok := ts.Type.(*ReferenceType); ok {
			td.Type = TypeDesc{Kind: descReference, Name: ref.Name}
			if ref.Referent != nil {
				sd := encodeStruct(ref.Referent)
				td.Type.Struct = &sd
			}
		} else {
			td.Type = encodeType(ts.Type)
		}
		d.Types = append(d.Types, td)
	}
	for _, agg := range u.Aggregates {
		d.Aggregates = append(d.Aggregates, encodeStruct(agg))
	}
	for _, sym := range u.Global.Symbols {
		sd := SymbolDesc{
			Name:       sym.Name,
			Kind:       sym.Kind,
			Type:       encodeType(sym.Type),
			Qualifiers: sym.Qualifiers,
			Line:       sym.Loc.Pos.Line,
			Column:     sym.Loc.Pos.Column,
		}
		for _, prm := range sym.Params {
			sd.Params = append(sd.Params, ParamDesc{Name: prm.Name, Type: encodeType(prm.Type)})
		}
		d.Symbols = append(d.Symbols, sd)
	}
	return d
}

func encodeStruct(st *StructType) StructDesc {
	sd := StructDesc{Name: st.Name, Line: st.Pos.Line, Column: st.Pos.Column}
	for _, m := range st.Members {
		sd.Members = append(sd.Members, MemberDesc{
			Name:   m.Name,
			Type:   encodeType(m.Type),
			Line:   m.Pos.Line,
			Column: m.Pos.Column,
		})
	}
	return sd
}

func encodeType(t Type) TypeDesc {
	switch t := t.(type) {
	case ScalarType:
		return TypeDesc{Kind: descScalar, Scalar: t.Kind}
	case VectorType:
		return TypeDesc{Kind: descVector, Scalar: t.Scalar, Size: t.Size}
	case MatrixType:
		return TypeDesc{Kind: descMatrix, Scalar: t.Scalar, Size: t.Columns, Rows: t.Rows}
	case ArrayType:
		elem := encodeType(t.Elem)
		return TypeDesc{Kind: descArray, Dims: t.Dims, Elem: &elem}
	case *StructType:
		sd := encodeStruct(t)
		return TypeDesc{Kind: descStruct, Name: t.Name, Struct: &sd}
	case *ReferenceType:
		return TypeDesc{Kind: descReference, Name: t.Name}
	case OpaqueType:
		return TypeDesc{Kind: descOpaque, Name: t.Name}
	default:
		return TypeDesc{Kind: descOpaque}
	}
}

type declDecoder struct {
	uri     string
	structs map[string]*StructType
	refs    map[string]*ReferenceType
}

// DecodeUnit rebuilds a Unit from stored records. Function bodies and
// local scopes are not part of the records.
func DecodeUnit(d UnitDecls) *Unit {
	dec := &declDecoder{
		uri:     d.URI,
		structs: make(map[string]*StructType),
		refs:    make(map[string]*ReferenceType),
	}
	for _, td := range d.Types {
		if td.Type.Kind == descReference {
			dec.refs[td.Name] = &ReferenceType{Name: td.Name}
		}
	}

	u := &Unit{URI: d.URI, Version: d.Version, Global: NewGlobalScope()}
	for _, path := range d.Includes {
		u.Includes = append(u.Includes, Include{Path: path})
	}
	for _, td := range d.Types {
		var typ Type
		if ref, ok := dec.refs[td.Name]; ok && td.Type.Kind == descReference {
			if td.Type.Struct != nil {
				ref.Referent = dec.decodeStruct(*td.Type.Struct)
			}
			typ = ref
		} else {
			typ = dec.decodeType(td.Type)
		}
		u.Types = append(u.Types, TypeSymbol{
			Name: td.Name,
			Type: typ,
			Loc:  dec.location(td.Line, td.Column),
		})
	}
	for _, sd := range d.Aggregates {
		u.Aggregates = append(u.Aggregates, dec.decodeStruct(sd))
	}
	for _, sd := range d.Symbols {
		sym := &Symbol{
			Name:       sd.Name,
			Kind:       sd.Kind,
			Type:       dec.decodeType(sd.Type),
			Qualifiers: sd.Qualifiers,
			Loc:        dec.location(sd.Line, sd.Column),
		}
		for _, pd := range sd.Params {
			sym.Params = append(sym.Params, Param{Name: pd.Name, Type: dec.decodeType(pd.Type)})
		}
		u.Global.Declare(sym)
	}
	return u
}

func (dec *declDecoder) location(line, column int) Location {
	return Location{URI: dec.uri, Pos: Position{Line: line, Column: column}}
}

func (dec *declDecoder) decodeStruct(sd StructDesc) *StructType {
	if sd.Name != "" {
		if st, ok := dec.structs[sd.Name]; ok {
			return st
		}
	}
	st := &StructType{Name: sd.Name, Pos: Position{Line: sd.Line, Column: sd.Column}}
	if sd.Name != "" {
		dec.structs[sd.Name] = st
	}
	for _, md := range sd.Members {
		st.Members = append(st.Members, Member{
			Name: md.Name,
			Type: dec.decodeType(md.Type),
			Pos:  Position{Line: md.Line, Column: md.Column},
		})
	}
	return st
}

func (dec *declDecoder) decodeType(td TypeDesc) Type {
	switch td.Kind {
	case descScalar:
		return ScalarType{Kind: td.Scalar}
	case descVector:
		return VectorType{Size: td.Size, Scalar: td.Scalar}
	case descMatrix:
		return MatrixType{Columns: td.Size, Rows: td.Rows, Scalar: td.Scalar}
	case descArray:
		if td.Elem == nil {
			return OpaqueType{}
		}
		return NewArray(dec.decodeType(*td.Elem), td.Dims)
	case descStruct:
		if td.Struct == nil {
			return &StructType{Name: td.Name}
		}
		return dec.decodeStruct(*td.Struct)
	case descReference:
		if ref, ok := dec.refs[td.Name]; ok {
			return ref
		}
		ref := &ReferenceType{Name: td.Name}
		dec.refs[td.Name] = ref
		return ref
	default:
		return OpaqueType{Name: td.Name}
	}
}
