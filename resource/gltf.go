package resource

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"forward-engine/core"
	"forward-engine/math"
)

// Model is the CPU-side result of importing a .gltf/.glb file: every mesh
// primitive merged into one Model mesh, plus the first material's base colour.
type Model struct {
	Mesh      *Mesh
	BaseColor core.Color
	Texture   *Texture
}

// LoadModel imports the geometry of a glTF file for use as a prefab mesh.
// Node transforms are not applied; a prefab is drawn with its node's
// transform.
func LoadModel(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	mesh := &Mesh{Name: filepath.Base(path), Type: MeshModel}
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if err := appendPrimitive(doc, mesh, prim); err != nil {
				core.Logger().Warn("gltf: skipping primitive", "file", path, "mesh", mi, "prim", pi, "err", err)
			}
		}
	}
	if len(mesh.Vertices) == 0 {
		return nil, core.ConfigErrorf("gltf %q: no geometry", path)
	}

	model := &Model{Mesh: mesh, BaseColor: core.ColorWhite}
	if len(doc.Materials) > 0 {
		if pbr := doc.Materials[0].PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			model.BaseColor = core.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3])}
			if pbr.BaseColorTexture != nil {
				model.Texture = loadGLTFTexture(doc, filepath.Dir(path), pbr.BaseColorTexture.Index)
			}
		}
	}
	return model, nil
}

func appendPrimitive(doc *gltf.Document, mesh *Mesh, prim *gltf.Primitive) error {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	base := uint32(len(mesh.Vertices))
	for i, p := range positions {
		v := Vertex{
			Position: math.Vec3{X: p[0], Y: p[1], Z: p[2]},
			Normal:   math.Vec3{Y: 1},
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			v.Normal = math.Vec3{X: normals[i][0], Y: normals[i][1], Z: normals[i][2]}
		}
		if i < len(uvs) {
			v.UV = math.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	if prim.Indices == nil {
		for i := range positions {
			mesh.Indices = append(mesh.Indices, base+uint32(i))
		}
		return nil
	}
	indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
	if err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	for _, i := range indices {
		mesh.Indices = append(mesh.Indices, base+i)
	}
	return nil
}

func loadGLTFTexture(doc *gltf.Document, dir string, index int) *Texture {
	if index >= len(doc.Textures) || doc.Textures[index].Source == nil {
		return nil
	}
	img := doc.Images[*doc.Textures[index].Source]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", *doc.Textures[index].Source)
	}

	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			core.Logger().Warn("gltf: image buffer view", "image", name, "err", err)
			return nil
		}
		tex, err := DecodeTexture(name, bytes.NewReader(raw))
		if err != nil {
			core.Logger().Warn("gltf: image decode", "image", name, "err", err)
			return nil
		}
		return tex
	case img.URI != "" && !img.IsEmbeddedResource():
		tex, err := LoadTexture(filepath.Join(dir, img.URI))
		if err != nil {
			core.Logger().Warn("gltf: image load", "image", img.URI, "err", err)
			return nil
		}
		return tex
	}
	return nil
}

// ImportModel loads a .gltf, .glb or .obj file and registers its mesh (and
// base-colour texture, if any) under name.
func (m *Manager) ImportModel(name, path string) (Handle[Mesh], Handle[Texture], *Model, error) {
	var model *Model
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		model, err = LoadModel(path)
	case ".obj":
		model, err = LoadOBJ(path)
	default:
		err = core.ConfigErrorf("model %q: unsupported format", path)
	}
	if err != nil {
		return Handle[Mesh]{}, Handle[Texture]{}, nil, err
	}
	model.Mesh.Name = name
	mh, err := m.Meshes.Add(name, model.Mesh)
	if err != nil {
		return Handle[Mesh]{}, Handle[Texture]{}, nil, err
	}
	var th Handle[Texture]
	if model.Texture != nil {
		if th, err = m.Textures.Add(name+".basecolor", model.Texture); err != nil {
			return Handle[Mesh]{}, Handle[Texture]{}, nil, err
		}
	}
	return mh, th, model, nil
}
