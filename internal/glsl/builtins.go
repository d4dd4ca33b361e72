package glsl

import (
	"sort"
	"strings"
	"sync"
)

// commonPrelude declares the builtins every stage sees. Generic prototypes
// use the placeholder type names of the GLSL reference pages (genType, gvec4).
const commonPrelude = `
genType radians(genType degrees);
genType degrees(genType radians);
genType sin(genType angle);
genType cos(genType angle);
genType tan(genType angle);
genType asin(genType x);
genType acos(genType x);
genType atan(genType y, genType x);
genType atan(genType y_over_x);
genType sinh(genType x);
genType cosh(genType x);
genType tanh(genType x);
genType pow(genType x, genType y);
genType exp(genType x);
genType log(genType x);
genType exp2(genType x);
genType log2(genType x);
genType sqrt(genType x);
genType inversesqrt(genType x);
genType abs(genType x);
genIType abs(genIType x);
genType sign(genType x);
genType floor(genType x);
genType trunc(genType x);
genType round(genType x);
genType ceil(genType x);
genType fract(genType x);
genType mod(genType x, float y);
genType mod(genType x, genType y);
genType min(genType x, genType y);
genType max(genType x, genType y);
genType clamp(genType x, genType minVal, genType maxVal);
genType mix(genType x, genType y, genType a);
genType step(genType edge, genType x);
genType smoothstep(genType edge0, genType edge1, genType x);
genBType isnan(genType x);
genBType isinf(genType x);
genIType floatBitsToInt(genType value);
genUType floatBitsToUint(genType value);
genType intBitsToFloat(genIType value);
genType uintBitsToFloat(genUType value);
genType fma(genType a, genType b, genType c);
uint packUnorm2x16(vec2 v);
uint packSnorm2x16(vec2 v);
uint packUnorm4x8(vec4 v);
uint packHalf2x16(vec2 v);
vec2 unpackUnorm2x16(uint p);
vec2 unpackSnorm2x16(uint p);
vec4 unpackUnorm4x8(uint p);
vec2 unpackHalf2x16(uint v);
float length(genType x);
float distance(genType p0, genType p1);
float dot(genType x, genType y);
vec3 cross(vec3 x, vec3 y);
genType normalize(genType x);
genType faceforward(genType N, genType I, genType Nref);
genType reflect(genType I, genType N);
genType refract(genType I, genType N, float eta);
mat matrixCompMult(mat x, mat y);
mat outerProduct(vec c, vec r);
mat transpose(mat m);
float determinant(mat m);
mat inverse(mat m);
bvec lessThan(vec x, vec y);
bvec lessThanEqual(vec x, vec y);
bvec greaterThan(vec x, vec y);
bvec greaterThanEqual(vec x, vec y);
bvec equal(vec x, vec y);
bvec notEqual(vec x, vec y);
bool any(bvec x);
bool all(bvec x);
bvec not(bvec x);
genIType bitfieldExtract(genIType value, int offset, int bits);
genIType bitfieldInsert(genIType base, genIType insert, int offset, int bits);
genIType bitfieldReverse(genIType value);
genIType bitCount(genIType value);
genIType findLSB(genIType value);
genIType findMSB(genIType value);
gvec4 texture(gsampler2D sampler, vec2 P);
gvec4 texture(gsampler3D sampler, vec3 P);
gvec4 texture(gsamplerCube sampler, vec3 P);
gvec4 texture(gsampler2DArray sampler, vec3 P);
float texture(sampler2DShadow sampler, vec3 P);
gvec4 textureLod(gsampler2D sampler, vec2 P, float lod);
gvec4 textureOffset(gsampler2D sampler, vec2 P, ivec2 offset);
gvec4 texelFetch(gsampler2D sampler, ivec2 P, int lod);
gvec4 textureGrad(gsampler2D sampler, vec2 P, vec2 dPdx, vec2 dPdy);
gvec4 textureGather(gsampler2D sampler, vec2 P);
gvec4 textureProj(gsampler2D sampler, vec3 P);
ivec2 textureSize(gsampler2D sampler, int lod);
int textureQueryLevels(gsampler2D sampler);
gvec4 imageLoad(gimage2D image, ivec2 P);
void imageStore(gimage2D image, ivec2 P, gvec4 data);
ivec2 imageSize(gimage2D image);
uint imageAtomicAdd(gimage2D image, ivec2 P, uint data);
uint atomicAdd(inout uint mem, uint data);
uint atomicMin(inout uint mem, uint data);
uint atomicMax(inout uint mem, uint data);
uint atomicAnd(inout uint mem, uint data);
uint atomicOr(inout uint mem, uint data);
uint atomicXor(inout uint mem, uint data);
uint atomicExchange(inout uint mem, uint data);
uint atomicCompSwap(inout uint mem, uint compare, uint data);
uint atomicCounterIncrement(atomic_uint c);
uint atomicCounterDecrement(atomic_uint c);
uint atomicCounter(atomic_uint c);
void memoryBarrier();
void memoryBarrierImage();
void memoryBarrierBuffer();

const int gl_MaxVertexAttribs = 16;
const int gl_MaxTextureImageUnits = 16;
const int gl_MaxDrawBuffers = 8;
const int gl_MaxClipDistances = 8;
const int gl_MaxPatchVertices = 32;
`

var stagePreludes = map[Stage]string{
	StageVertex: `
in int gl_VertexID;
in int gl_InstanceID;
in int gl_VertexIndex;
in int gl_InstanceIndex;
in int gl_BaseVertex;
in int gl_BaseInstance;
in int gl_DrawID;
out gl_PerVertex {
	vec4 gl_Position;
	float gl_PointSize;
	float gl_ClipDistance[];
	float gl_CullDistance[];
};
`,
	StageTessControl: `
in int gl_PatchVerticesIn;
in int gl_PrimitiveID;
in int gl_InvocationID;
in gl_PerVertex {
	vec4 gl_Position;
	float gl_PointSize;
	float gl_ClipDistance[];
} gl_in[gl_MaxPatchVertices];
out gl_PerVertex {
	vec4 gl_Position;
	float gl_PointSize;
	float gl_ClipDistance[];
} gl_out[];
patch out float gl_TessLevelOuter[4];
patch out float gl_TessLevelInner[2];
void barrier();
`,
	StageTessEval: `
in int gl_PatchVerticesIn;
in int gl_PrimitiveID;
in vec3 gl_TessCoord;
patch in float gl_TessLevelOuter[4];
patch in float gl_TessLevelInner[2];
in gl_PerVertex {
	vec4 gl_Position;
	float gl_PointSize;
	float gl_ClipDistance[];
} gl_in[gl_MaxPatchVertices];
out gl_PerVertex {
	vec4 gl_Position;
	float gl_PointSize;
	float gl_ClipDistance[];
};
`,
	StageGeometry: `
in int gl_PrimitiveIDIn;
in int gl_InvocationID;
out int gl_PrimitiveID;
out int gl_Layer;
out int gl_ViewportIndex;
in gl_PerVertex {
	vec4 gl_Position;
	float gl_PointSize;
	float gl_ClipDistance[];
} gl_in[];
out gl_PerVertex {
	vec4 gl_Position;
	float gl_PointSize;
	float gl_ClipDistance[];
};
void EmitVertex();
void EndPrimitive();
void EmitStreamVertex(int stream);
void EndStreamPrimitive(int stream);
`,
	StageFragment: `
in vec4 gl_FragCoord;
in bool gl_FrontFacing;
in float gl_ClipDistance[];
in vec2 gl_PointCoord;
in int gl_PrimitiveID;
in int gl_SampleID;
in vec2 gl_SamplePosition;
in int gl_SampleMaskIn[];
in int gl_Layer;
in int gl_ViewportIndex;
in bool gl_HelperInvocation;
out float gl_FragDepth;
out int gl_SampleMask[];
genType dFdx(genType p);
genType dFdy(genType p);
genType dFdxFine(genType p);
genType dFdyFine(genType p);
genType dFdxCoarse(genType p);
genType dFdyCoarse(genType p);
genType fwidth(genType p);
float interpolateAtCentroid(float interpolant);
float interpolateAtSample(float interpolant, int sample);
float interpolateAtOffset(float interpolant, vec2 offset);
`,
	StageCompute: `
in uvec3 gl_NumWorkGroups;
const uvec3 gl_WorkGroupSize = uvec3(1, 1, 1);
in uvec3 gl_WorkGroupID;
in uvec3 gl_LocalInvocationID;
in uvec3 gl_GlobalInvocationID;
in uint gl_LocalInvocationIndex;
void barrier();
void groupMemoryBarrier();
void memoryBarrierShared();
`,
}

// BuiltinTable is the sorted set of language-defined symbols for a stage.
type BuiltinTable struct {
	Stage   Stage
	symbols []*Symbol
}

var (
	builtinMu    sync.Mutex
	builtinCache = make(map[Stage]*BuiltinTable)
)

// Builtins returns the builtin table for stage, parsing its prelude once.
// StageUnknown gets the common builtins only.
func Builtins(stage Stage) *BuiltinTable {
	builtinMu.Lock()
	defer builtinMu.Unlock()

	if table, ok := builtinCache[stage]; ok {
		return table
	}
	table := newBuiltinTable(stage, commonPrelude+stagePreludes[stage])
	builtinCache[stage] = table
	return table
}

func newBuiltinTable(stage Stage, source string) *BuiltinTable {
	unit := ParseWithOptions(source, ParseOptions{Builtin: true})

	symbols := append([]*Symbol(nil), unit.Global.Symbols...)
	for _, block := range unit.Aggregates {
		for _, m := range block.Members {
			symbols = append(symbols, &Symbol{
				Name:    m.Name,
				Kind:    SymbolVariable,
				Type:    m.Type,
				Builtin: true,
			})
		}
	}
	sort.SliceStable(symbols, func(i, j int) bool {
		return symbols[i].Name < symbols[j].Name
	})
	return &BuiltinTable{Stage: stage, symbols: symbols}
}

// Lookup returns the first builtin called name.
func (t *BuiltinTable) Lookup(name string) (*Symbol, bool) {
	i := sort.Search(len(t.symbols), func(i int) bool {
		return t.symbols[i].Name >= name
	})
	if i < len(t.symbols) && t.symbols[i].Name == name {
		return t.symbols[i], true
	}
	return nil, false
}

// Prefix returns every builtin whose name starts with prefix, overloads
// included, in name order.
func (t *BuiltinTable) Prefix(prefix string) []*Symbol {
	i := sort.Search(len(t.symbols), func(i int) bool {
		return t.symbols[i].Name >= prefix
	})
	var out []*Symbol
	for ; i < len(t.symbols) && strings.HasPrefix(t.symbols[i].Name, prefix); i++ {
		out = append(out, t.symbols[i])
	}
	return out
}

// Len returns the number of builtin symbols.
func (t *BuiltinTable) Len() int {
	return len(t.symbols)
}
