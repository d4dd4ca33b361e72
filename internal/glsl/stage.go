package glsl

import (
	"path/filepath"
	"strings"

	"github.com/glsld/glsld/internal/errors"
)

// Stage is a shader pipeline stage. It selects the stage-specific builtins.
type Stage uint8

const (
	StageUnknown Stage = iota
	StageVertex
	StageTessControl
	StageTessEval
	StageGeometry
	StageFragment
	StageCompute
)

var stageNames = map[Stage]string{
	StageUnknown:     "unknown",
	StageVertex:      "vertex",
	StageTessControl: "tesscontrol",
	StageTessEval:    "tesseval",
	StageGeometry:    "geometry",
	StageFragment:    "fragment",
	StageCompute:     "compute",
}

var stageExtensions = map[string]Stage{
	".vert": StageVertex,
	".tesc": StageTessControl,
	".tese": StageTessEval,
	".geom": StageGeometry,
	".frag": StageFragment,
	".comp": StageCompute,
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStage accepts a stage name or its file extension ("fragment", "frag").
func ParseStage(name string) (Stage, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return StageUnknown, nil
	}
	if stage, ok := stageExtensions["."+name]; ok {
		return stage, nil
	}
	for stage, stageName := range stageNames {
		if stageName == name {
			return stage, nil
		}
	}
	return StageUnknown, errors.Newf("unknown shader stage %q", name)
}

// StageFromPath infers the stage from a file name. Both "x.frag" and
// "x.frag.glsl" are recognised; anything else yields fallback.
func StageFromPath(path string, fallback Stage) Stage {
	base := filepath.Base(path)
	for i := 0; i < 2; i++ {
		ext := filepath.Ext(base)
		if ext == "" {
			break
		}
		if stage, ok := stageExtensions[strings.ToLower(ext)]; ok {
			return stage
		}
		base = strings.TrimSuffix(base, ext)
	}
	return fallback
}

// IsShaderFile reports whether path has one of the given extensions.
func IsShaderFile(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
