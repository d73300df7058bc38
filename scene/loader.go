package scene

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
)

// owned records the resources a loaded scene created, so a reload can drop
// them before building the next version.
type owned struct {
	meshes    []resource.Handle[resource.Mesh]
	textures  []resource.Handle[resource.Texture]
	materials []resource.Handle[resource.Material]
	prefabs   []resource.Handle[resource.Prefab]
	lights    []resource.Handle[resource.Light]
}

// Load reads the scene file at path and builds it against res.
func Load(path string, res *resource.Manager) (*Scene, error) {
	d, err := ReadDescriptor(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := d.Build(name, filepath.Dir(path), res)
	if err != nil {
		return nil, errors.Wrapf(err, "scene %q", path)
	}
	core.Logger().Info("scene loaded", "path", path, "nodes", s.Len())
	return s, nil
}

// Build creates the scene described by d. Relative asset paths resolve
// against baseDir. On error, resources created so far are released.
func (d *Descriptor) Build(name, baseDir string, res *resource.Manager) (*Scene, error) {
	mode := DepthOrder2D
	switch strings.ToLower(d.SceneProperties.Mode) {
	case "", "2d":
	case "3d":
		mode = DepthPhysical3D
	default:
		return nil, core.ConfigErrorf("SceneProperties: unknown mode %q", d.SceneProperties.Mode)
	}

	s := NewScene(name, res, mode)
	b := &builder{scene: s, res: res, baseDir: baseDir, sprites: make(map[string]*SpriteDesc)}
	if err := b.build(d); err != nil {
		s.ReleaseResources()
		return nil, err
	}
	return s, nil
}

type builder struct {
	scene   *Scene
	res     *resource.Manager
	baseDir string
	sprites map[string]*SpriteDesc
}

func (b *builder) build(d *Descriptor) error {
	if err := b.properties(d.SceneProperties); err != nil {
		return errors.Wrap(err, "SceneProperties")
	}
	for _, name := range sortedKeys(d.Prefab) {
		if err := b.prefab(name, d.Prefab[name]); err != nil {
			return errors.Wrapf(err, "Prefab %q", name)
		}
	}
	for _, name := range sortedKeys(d.Lighting) {
		if err := b.light(name, d.Lighting[name]); err != nil {
			return errors.Wrapf(err, "Lighting %q", name)
		}
	}
	for _, name := range sortedKeys(d.Layout.Nodes) {
		if err := b.node(b.scene.root, name, d.Layout.Nodes[name]); err != nil {
			return errors.Wrapf(err, "Layout node %q", name)
		}
	}
	return nil
}

func (b *builder) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.baseDir, p)
}

func (b *builder) properties(p PropertiesDesc) error {
	props := &b.scene.Properties
	var err error
	if props.Background, err = colorOf(p.Background, props.Background); err != nil {
		return errors.Wrap(err, "Background")
	}
	if props.Ambient, err = colorOf(p.Ambient, props.Ambient); err != nil {
		return errors.Wrap(err, "Ambient")
	}
	props.ResourceGroup = p.ResourceGroup
	props.Track = p.Track
	if p.Skybox != "" {
		h, err := b.texture(b.scene.Name+".skybox", p.Skybox)
		if err != nil {
			return err
		}
		props.Skybox = h
	}
	return nil
}

func (b *builder) texture(name, file string) (resource.Handle[resource.Texture], error) {
	tex, err := resource.LoadTexture(b.path(file))
	if err != nil {
		return resource.Handle[resource.Texture]{}, core.ConfigErrorf("%v", err)
	}
	h, err := b.res.Textures.Add(name, tex)
	if err != nil {
		return h, err
	}
	b.scene.owned.textures = append(b.scene.owned.textures, h)
	return h, nil
}

func (b *builder) prefab(name string, p PrefabDesc) error {
	mat := resource.NewMaterial(name, core.ColorWhite)
	if err := b.material(name, p.Material, mat); err != nil {
		return errors.Wrap(err, "Material")
	}

	var mesh *resource.Mesh
	switch strings.ToLower(p.Model) {
	case "quad":
		mesh = resource.NewQuad(name)
	case "sprite":
		mesh = resource.NewSprite(name)
	case "cube", "":
		mesh = resource.NewCube(name, 1)
	case "sphere":
		mesh = resource.NewSphere(name, 0.5, 24, 16)
	case "plane":
		mesh = resource.NewPlane(name, 1, 1)
	default:
		mh, th, model, err := b.res.ImportModel(name+".mesh", b.path(p.Model))
		if err != nil {
			return errors.Wrapf(err, "Model %q", p.Model)
		}
		b.scene.owned.meshes = append(b.scene.owned.meshes, mh)
		if !th.IsNil() {
			b.scene.owned.textures = append(b.scene.owned.textures, th)
			if mat.Texture.IsNil() {
				mat.Texture = th
			}
		}
		if len(p.Material.Color) == 0 {
			mat.Color = model.BaseColor
		}
		return b.finishPrefab(name, p, mh, mat)
	}

	mh, err := b.res.Meshes.Add(name+".mesh", mesh)
	if err != nil {
		return err
	}
	b.scene.owned.meshes = append(b.scene.owned.meshes, mh)
	return b.finishPrefab(name, p, mh, mat)
}

func (b *builder) finishPrefab(name string, p PrefabDesc, mh resource.Handle[resource.Mesh], mat *resource.Material) error {
	if p.Sprite != nil {
		if p.Sprite.Columns <= 0 || p.Sprite.Rows <= 0 {
			return core.ConfigErrorf("Sprite: grid %dx%d", p.Sprite.Columns, p.Sprite.Rows)
		}
		mat.SpriteColumns, mat.SpriteRows = p.Sprite.Columns, p.Sprite.Rows
		b.sprites[name] = p.Sprite
	}
	mtl, err := b.res.Materials.Add(name+".material", mat)
	if err != nil {
		return err
	}
	b.scene.owned.materials = append(b.scene.owned.materials, mtl)

	ph, err := b.res.CreatePrefab(name, mh, mtl)
	if err != nil {
		return err
	}
	b.scene.owned.prefabs = append(b.scene.owned.prefabs, ph)
	pf, _ := b.res.Prefabs.Get(ph)
	pf.CastShadows = p.Shadows
	pf.ModelPath = p.Model

	if p.Instances > 0 {
		if err := b.res.EnableInstancing(ph, p.Instances); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) material(name string, m MaterialDesc, mat *resource.Material) error {
	var err error
	if mat.Color, err = colorOf(m.Color, mat.Color); err != nil {
		return errors.Wrap(err, "Color")
	}
	if mat.Specular, err = colorOf(m.Specular, mat.Specular); err != nil {
		return errors.Wrap(err, "Specular")
	}
	if m.Shininess > 0 {
		mat.Shininess = m.Shininess
	}
	mat.Lit = m.Lit
	mat.SetBlending(m.Blending)
	switch strings.ToLower(m.Cull) {
	case "", "back":
		mat.Cull = resource.CullBack
	case "front":
		mat.Cull = resource.CullFront
	case "none":
		mat.Cull = resource.CullNone
	default:
		return core.ConfigErrorf("Cull %q", m.Cull)
	}
	if m.Texture != "" {
		h, err := b.texture(name+".texture", m.Texture)
		if err != nil {
			return err
		}
		mat.Texture = h
	}
	return nil
}

func (b *builder) light(name string, l LightDesc) error {
	var light *resource.Light
	switch strings.ToLower(l.Type) {
	case "directional":
		dir, err := vec3Of(l.Direction, math.Vec3{Y: -1})
		if err != nil {
			return errors.Wrap(err, "Direction")
		}
		light = resource.NewDirectionalLight(name, dir)
	case "point":
		light = resource.NewPointLight(name)
		if len(l.Attenuation) > 0 {
			if len(l.Attenuation) != 3 {
				return core.ConfigErrorf("Attenuation: want constant, linear, quadratic")
			}
			light.Constant, light.Linear, light.Quadratic = l.Attenuation[0], l.Attenuation[1], l.Attenuation[2]
		}
	default:
		return core.ConfigErrorf("unknown light type %q", l.Type)
	}

	var err error
	if light.Ambient, err = colorOf(l.Ambient, light.Ambient); err != nil {
		return errors.Wrap(err, "Ambient")
	}
	if light.Diffuse, err = colorOf(l.Diffuse, light.Diffuse); err != nil {
		return errors.Wrap(err, "Diffuse")
	}
	if light.Specular, err = colorOf(l.Specular, light.Specular); err != nil {
		return errors.Wrap(err, "Specular")
	}

	h, err := b.res.Lights.Add(name, light)
	if err != nil {
		return err
	}
	b.scene.owned.lights = append(b.scene.owned.lights, h)
	return nil
}

func (b *builder) node(parent *Node, name string, d NodeDesc) error {
	n, err := parent.CreateChildNode(name)
	if err != nil {
		return err
	}

	pos, err := vec3Of(d.Position, math.Vec3Zero)
	if err != nil {
		return errors.Wrap(err, "Position")
	}
	n.SetPosition(pos)
	euler, err := vec3Of(d.Orientation, math.Vec3Zero)
	if err != nil {
		return errors.Wrap(err, "Orientation")
	}
	n.SetOrientation(math.QuaternionFromEuler(euler.Mul(math32.Pi / 180)))
	scale, err := vec3Of(d.Scale, math.Vec3One)
	if err != nil {
		return errors.Wrap(err, "Scale")
	}
	if len(d.Scale) == 2 {
		scale.Z = 1
	}
	n.SetScale(scale)
	if err := n.SetDepth(d.Depth); err != nil {
		return err
	}
	if err := n.SetQueue(d.Queue); err != nil {
		return err
	}
	n.SetVisible(!d.Hidden)

	if d.Prefab != "" {
		h, err := b.res.Prefabs.Lookup(d.Prefab)
		if err != nil {
			return err
		}
		if err := n.AttachPrefab(h); err != nil {
			return err
		}
		if sp, ok := b.sprites[d.Prefab]; ok && sp.FPS > 0 {
			frames := sp.Frames
			if frames <= 0 {
				frames = sp.Columns * sp.Rows
			}
			n.SetAnimation(NewSpriteAnimation(0, frames, sp.FPS))
		}
	}
	if d.Light != "" {
		h, err := b.res.Lights.Lookup(d.Light)
		if err != nil {
			return err
		}
		if err := n.AttachLight(h); err != nil {
			return err
		}
	}
	if d.Text != nil {
		t := &TextBox{Text: d.Text.Value, Scale: d.Text.Scale}
		if t.Color, err = colorOf(d.Text.Color, core.ColorWhite); err != nil {
			return errors.Wrap(err, "Text.Color")
		}
		if t.Offset, err = vec2Of(d.Text.Offset); err != nil {
			return errors.Wrap(err, "Text.Offset")
		}
		if t.Scale == 0 {
			t.Scale = 1
		}
		n.AddText(t)
	}
	if d.Box != nil {
		bx := &Box{}
		if bx.Size, err = vec2Of(d.Box.Size); err != nil {
			return errors.Wrap(err, "Box.Size")
		}
		if bx.Color, err = colorOf(d.Box.Color, core.ColorWhite); err != nil {
			return errors.Wrap(err, "Box.Color")
		}
		if bx.Offset, err = vec2Of(d.Box.Offset); err != nil {
			return errors.Wrap(err, "Box.Offset")
		}
		n.AddBox(bx)
	}

	for _, cname := range sortedKeys(d.ChildNodes) {
		if err := b.node(n, cname, d.ChildNodes[cname]); err != nil {
			return errors.Wrapf(err, "child %q", cname)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ReleaseResources destroys the nodes and removes every resource this scene
// created when it was loaded.
func (s *Scene) ReleaseResources() {
	s.Clear()
	res := s.resources
	warn := func(kind string, err error) {
		if err != nil {
			core.Logger().Warn("scene: release", "scene", s.Name, "kind", kind, "err", err)
		}
	}
	for _, h := range s.owned.prefabs {
		warn("prefab", res.RemovePrefab(h))
	}
	for _, h := range s.owned.materials {
		_, err := res.Materials.Remove(h)
		warn("material", err)
	}
	for _, h := range s.owned.meshes {
		warn("mesh", res.RemoveMesh(h))
	}
	for _, h := range s.owned.textures {
		warn("texture", res.RemoveTexture(h))
	}
	for _, h := range s.owned.lights {
		_, err := res.Lights.Remove(h)
		warn("light", err)
	}
	s.owned = owned{}
}

// Snapshot captures the current layout (transforms, depth, attachments by
// name) as a descriptor. Prefab and light definitions are not included.
func (s *Scene) Snapshot() *Descriptor {
	d := &Descriptor{
		SceneProperties: PropertiesDesc{
			Background:    colorSlice(s.Properties.Background),
			Ambient:       colorSlice(s.Properties.Ambient),
			ResourceGroup: s.Properties.ResourceGroup,
			Track:         s.Properties.Track,
		},
		Layout: LayoutDesc{Nodes: make(map[string]NodeDesc)},
	}
	if s.depthMode == DepthPhysical3D {
		d.SceneProperties.Mode = "3d"
	}
	for _, c := range s.root.children {
		d.Layout.Nodes[c.name] = s.snapshotNode(c)
	}
	return d
}

func (s *Scene) snapshotNode(n *Node) NodeDesc {
	euler := n.Orientation().ToEuler().Mul(180 / math32.Pi)
	nd := NodeDesc{
		Position:    vec3Slice(n.Position()),
		Orientation: vec3Slice(euler),
		Scale:       vec3Slice(n.Scale()),
		Depth:       n.depth,
		Queue:       n.queue,
		Hidden:      !n.visible,
	}
	if !n.prefab.IsNil() {
		nd.Prefab = s.resources.Prefabs.Name(n.prefab)
	}
	if len(n.lights) > 0 {
		nd.Light = s.resources.Lights.Name(n.lights[0])
	}
	if len(n.children) > 0 {
		nd.ChildNodes = make(map[string]NodeDesc, len(n.children))
		for _, c := range n.children {
			nd.ChildNodes[c.name] = s.snapshotNode(c)
		}
	}
	return nd
}
