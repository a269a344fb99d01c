package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/cumulus/engine/gpu"
)

// ShaderLoader reads compiled UI shader blobs from a directory. Files are
// named after the stage and the binary format: ui.vert.spv, ui.frag.msl and
// so on.
type ShaderLoader struct {
	Dir  string
	Name string
}

func NewShaderLoader(dir string) *ShaderLoader {
	return &ShaderLoader{Dir: dir, Name: "ui"}
}

// Path returns the file holding the blob for stage in format.
func (sl *ShaderLoader) Path(stage gpu.ShaderStage, format gpu.ShaderFormat) (string, error) {
	var stageExt string
	switch stage {
	case gpu.ShaderStageVertex:
		stageExt = "vert"
	case gpu.ShaderStageFragment:
		stageExt = "frag"
	default:
		return "", fmt.Errorf("unknown shader stage %d", stage)
	}

	var formatExt string
	switch format {
	case gpu.ShaderFormatSPIRV:
		formatExt = "spv"
	case gpu.ShaderFormatMSL:
		formatExt = "msl"
	case gpu.ShaderFormatDXIL:
		formatExt = "dxil"
	default:
		return "", fmt.Errorf("%w: shader format %d", gpu.ErrUnsupportedFormat, format)
	}
	return filepath.Join(sl.Dir, fmt.Sprintf("%s.%s.%s", sl.Name, stageExt, formatExt)), nil
}

// Shader reads the blob for stage in format. It is read again on every call
// so a pipeline reload picks up recompiled shaders.
func (sl *ShaderLoader) Shader(stage gpu.ShaderStage, format gpu.ShaderFormat) ([]byte, error) {
	path, err := sl.Path(stage, format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("shader %s is empty", path)
	}
	return data, nil
}
