package resource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/core"
	"forward-engine/math"
)

const quadOBJ = `# two triangles as one quad
mtllib quad.mtl
v -1 -1 0
v  1 -1 0
v  1  1 0
v -1  1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl red
f 1/1 2/2 3/3 4/4
`

func TestParseOBJFanTriangulatesAndDeduplicates(t *testing.T) {
	m, err := parseOBJ("quad.obj", strings.NewReader(quadOBJ), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, MeshModel, m.Mesh.Type)
	assert.Len(t, m.Mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Mesh.Indices)
	// V flips to a top-left origin.
	assert.Equal(t, math.Vec2{X: 0, Y: 1}, m.Mesh.Vertices[0].UV)
	// No normals in the file: generated ones face +Z.
	for _, v := range m.Mesh.Vertices {
		assert.True(t, v.Normal.ApproxEqual(math.Vec3{Z: 1}, 1e-5), "normal %v", v.Normal)
	}
	// The library is missing, so the base colour stays white.
	assert.Equal(t, core.ColorWhite, m.BaseColor)
}

func TestParseOBJNegativeIndicesAndNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 -1\nf -3//1 -2//1 -1//1\n"
	m, err := parseOBJ("tri.obj", strings.NewReader(src), "")
	require.NoError(t, err)
	require.Len(t, m.Mesh.Vertices, 3)
	assert.Equal(t, math.Vec3{Y: 1}, m.Mesh.Vertices[2].Position)
	assert.Equal(t, math.Vec3{Z: -1}, m.Mesh.Vertices[0].Normal)
}

func TestParseOBJErrors(t *testing.T) {
	cases := map[string]string{
		"empty":       "# nothing\n",
		"short face":  "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"bad index":   "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n",
		"bad number":  "v 0 zero 0\n",
		"no position": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf /1 2 3\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseOBJ("bad.obj", strings.NewReader(src), "")
			assert.Error(t, err)
		})
	}
	_, err := parseOBJ("empty.obj", strings.NewReader(cases["empty"]), "")
	assert.True(t, errors.Is(err, core.ErrConfig))
}

func TestLoadOBJReadsMaterialLibrary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.mtl"), []byte("newmtl red\nKd 1 0 0\nd 0.5\n"), 0o644))
	path := filepath.Join(dir, "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quadOBJ), 0o644))

	m, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, core.Color{R: 1, A: 0.5}, m.BaseColor)
	assert.Nil(t, m.Texture)

	res := NewManager(Limits{})
	mh, th, _, err := res.ImportModel("quad.mesh", path)
	require.NoError(t, err)
	assert.True(t, th.IsNil())
	mesh, err := res.Meshes.Get(mh)
	require.NoError(t, err)
	assert.Equal(t, "quad.mesh", mesh.Name)
}

func TestImportModelRejectsUnknownFormat(t *testing.T) {
	_, _, _, err := NewManager(Limits{}).ImportModel("x", "model.fbx")
	assert.True(t, errors.Is(err, core.ErrConfig))
}

func TestPrimitives(t *testing.T) {
	s := NewSphere("s", 0.5, 8, 4)
	assert.Equal(t, MeshModel, s.Type)
	assert.Len(t, s.Vertices, 9*5)
	assert.Equal(t, 8*4*6, s.IndexCount())
	for _, v := range s.Vertices {
		assert.InDelta(t, 0.5, v.Position.Length(), 1e-5)
	}

	p := NewPlane("p", 2, 2)
	assert.Len(t, p.Vertices, 9)
	assert.Equal(t, 2*2*6, p.IndexCount())
	for _, v := range p.Vertices {
		assert.Equal(t, math.Vec3Up, v.Normal)
		assert.LessOrEqual(t, absMax(v.Position.X, v.Position.Z), float32(1))
	}
}
