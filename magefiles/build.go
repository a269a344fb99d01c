//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderStages = []string{"vert", "frag"}

// Compiles the UI shaders to SPIR-V next to their sources.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the demo binary.
func (Build) Demo() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", "cumulus"), "."), withStream())
	return err
}

func buildShaders() error {
	for _, stage := range shaderStages {
		src := filepath.Join("shaders", "ui."+stage)
		dst := src + ".spv"
		if _, err := executeCmd("glslc", withArgs(src, "-o", dst), withStream()); err != nil {
			return err
		}
	}
	return nil
}
