package resource

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/math"
)

// objRef is one face corner: 0-based position, UV and normal indices, -1
// when absent.
type objRef struct{ v, vt, vn int }

// objMaterial is the part of an .mtl entry a prefab can use.
type objMaterial struct {
	diffuse core.Color
	texture string
}

// LoadOBJ imports a Wavefront .obj file. Every object and group is merged
// into one Model mesh; the first material used supplies the base colour and
// texture.
func LoadOBJ(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open obj %q", path)
	}
	defer f.Close()
	return parseOBJ(filepath.Base(path), f, filepath.Dir(path))
}

func parseOBJ(name string, r io.Reader, dir string) (*Model, error) {
	var (
		positions []math.Vec3
		normals   []math.Vec3
		uvs       []math.Vec2
		corners   []objRef
		materials = map[string]objMaterial{}
		firstMtl  string
	)

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v", "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", name, line)
			}
			p := math.Vec3{X: v[0], Y: v[1], Z: v[2]}
			if fields[0] == "v" {
				positions = append(positions, p)
			} else {
				normals = append(normals, p)
			}
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", name, line)
			}
			uvs = append(uvs, math.Vec2{X: v[0], Y: 1 - v[1]})
		case "f":
			if len(fields) < 4 {
				return nil, core.ConfigErrorf("%s:%d: face needs 3 vertices", name, line)
			}
			refs := make([]objRef, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				ref, err := parseFaceRef(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, errors.Wrapf(err, "%s:%d", name, line)
				}
				refs = append(refs, ref)
			}
			// Fan triangulation: 0-1-2, 0-2-3, ...
			for i := 1; i+1 < len(refs); i++ {
				corners = append(corners, refs[0], refs[i], refs[i+1])
			}
		case "usemtl":
			if firstMtl == "" && len(fields) > 1 {
				firstMtl = fields[1]
			}
		case "mtllib":
			if len(fields) < 2 {
				continue
			}
			loaded, err := loadMTL(filepath.Join(dir, fields[1]))
			if err != nil {
				core.Logger().Warn("obj: material library", "file", fields[1], "err", err)
				continue
			}
			for k, m := range loaded {
				materials[k] = m
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read obj %q", name)
	}
	if len(corners) == 0 {
		return nil, core.ConfigErrorf("obj %q: no geometry", name)
	}

	mesh := buildOBJMesh(name, corners, positions, normals, uvs)
	model := &Model{Mesh: mesh, BaseColor: core.ColorWhite}
	if m, ok := materials[firstMtl]; ok {
		model.BaseColor = m.diffuse
		if m.texture != "" {
			tex, err := LoadTexture(filepath.Join(dir, m.texture))
			if err != nil {
				core.Logger().Warn("obj: texture", "file", m.texture, "err", err)
			} else {
				model.Texture = tex
			}
		}
	}
	return model, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, errors.Errorf("want %d numbers, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceRef parses "v", "v/vt", "v//vn" or "v/vt/vn". Negative indices
// count back from the most recent element.
func parseFaceRef(tok string, nv, nvt, nvn int) (objRef, error) {
	ref := objRef{v: -1, vt: -1, vn: -1}
	counts := [3]int{nv, nvt, nvn}
	dst := [3]*int{&ref.v, &ref.vt, &ref.vn}
	for i, part := range strings.SplitN(tok, "/", 3) {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return ref, errors.Wrapf(err, "face index %q", tok)
		}
		switch {
		case n > 0:
			n--
		case n < 0:
			n += counts[i]
		}
		if n < 0 || n >= counts[i] {
			return ref, errors.Errorf("face index %q out of range", tok)
		}
		*dst[i] = n
	}
	if ref.v < 0 {
		return ref, errors.Errorf("face vertex %q has no position", tok)
	}
	return ref, nil
}

// buildOBJMesh deduplicates corners into indexed vertices. Files without
// normals get area-weighted smooth normals.
func buildOBJMesh(name string, corners []objRef, positions, normals []math.Vec3, uvs []math.Vec2) *Mesh {
	mesh := &Mesh{Name: name, Type: MeshModel}
	index := make(map[objRef]uint32, len(corners))
	for _, c := range corners {
		if i, ok := index[c]; ok {
			mesh.Indices = append(mesh.Indices, i)
			continue
		}
		v := Vertex{Position: positions[c.v], Normal: math.Vec3{Y: 1}, Color: core.ColorWhite}
		if c.vn >= 0 {
			v.Normal = normals[c.vn]
		}
		if c.vt >= 0 {
			v.UV = uvs[c.vt]
		}
		i := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices, v)
		index[c] = i
		mesh.Indices = append(mesh.Indices, i)
	}
	if len(normals) == 0 {
		smoothNormals(mesh)
	}
	return mesh
}

func smoothNormals(m *Mesh) {
	acc := make([]math.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		p0 := m.Vertices[i0].Position
		n := m.Vertices[i1].Position.Sub(p0).Cross(m.Vertices[i2].Position.Sub(p0))
		acc[i0] = acc[i0].Add(n)
		acc[i1] = acc[i1].Add(n)
		acc[i2] = acc[i2].Add(n)
	}
	for i, n := range acc {
		if n.LengthSqr() > 0 {
			m.Vertices[i].Normal = n.Normalize()
		}
	}
}

func loadMTL(path string) (map[string]objMaterial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseMTL(f)
}

func parseMTL(r io.Reader) (map[string]objMaterial, error) {
	mats := map[string]objMaterial{}
	var cur string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			cur = fields[1]
			mats[cur] = objMaterial{diffuse: core.ColorWhite}
		case "Kd":
			m, ok := mats[cur]
			if !ok {
				continue
			}
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, errors.Wrapf(err, "Kd in %q", cur)
			}
			m.diffuse = core.Color{R: v[0], G: v[1], B: v[2], A: 1}
			mats[cur] = m
		case "d":
			m, ok := mats[cur]
			if !ok {
				continue
			}
			if d, err := strconv.ParseFloat(fields[1], 32); err == nil {
				m.diffuse.A = math32.Max(0, math32.Min(1, float32(d)))
				mats[cur] = m
			}
		case "map_Kd":
			if m, ok := mats[cur]; ok {
				m.texture = fields[len(fields)-1]
				mats[cur] = m
			}
		}
	}
	return mats, sc.Err()
}
