package resource

import (
	"github.com/pkg/errors"

	"forward-engine/core"
	"forward-engine/math"
)

// Limits bounds each store; zero means unbounded.
type Limits struct {
	Meshes    int
	Textures  int
	Materials int
	Prefabs   int
	Lights    int
	Instanced int
}

// Releaser frees backend data attached to resources. The render backend
// installs one so GPU buffers are dropped together with the resource.
type Releaser interface {
	ReleaseMesh(*Mesh)
	ReleaseTexture(*Texture)
	ReleaseInstancedMesh(*InstancedMesh)
}

// Manager owns every resource store. It is passed explicitly to whoever
// needs it; there is no global instance.
type Manager struct {
	Meshes    *Store[Mesh]
	Textures  *Store[Texture]
	Materials *Store[Material]
	Prefabs   *Store[Prefab]
	Lights    *Store[Light]
	Instanced *Pool[InstancedMesh]

	releaser Releaser
	epoch    uint32
}

func NewManager(limits Limits) *Manager {
	return &Manager{
		Meshes:    NewStore[Mesh]("mesh", limits.Meshes),
		Textures:  NewStore[Texture]("texture", limits.Textures),
		Materials: NewStore[Material]("material", limits.Materials),
		Prefabs:   NewStore[Prefab]("prefab", limits.Prefabs),
		Lights:    NewStore[Light]("light", limits.Lights),
		Instanced: NewPool[InstancedMesh]("instanced mesh", limits.Instanced),
	}
}

func (m *Manager) SetReleaser(r Releaser) { m.releaser = r }

// CreatePrefab registers a prefab named name drawing mesh with material.
func (m *Manager) CreatePrefab(name string, mesh Handle[Mesh], material Handle[Material]) (Handle[Prefab], error) {
	if _, err := m.Meshes.Get(mesh); err != nil {
		return Handle[Prefab]{}, errors.Wrapf(err, "prefab %q", name)
	}
	if _, err := m.Materials.Get(material); err != nil {
		return Handle[Prefab]{}, errors.Wrapf(err, "prefab %q", name)
	}
	return m.Prefabs.Add(name, &Prefab{Name: name, Mesh: mesh, Material: material})
}

// PrefabParts resolves a prefab together with its mesh and material.
func (m *Manager) PrefabParts(h Handle[Prefab]) (*Prefab, *Mesh, *Material, error) {
	p, err := m.Prefabs.Get(h)
	if err != nil {
		return nil, nil, nil, err
	}
	mesh, err := m.Meshes.Get(p.Mesh)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "prefab %q mesh", p.Name)
	}
	mat, err := m.Materials.Get(p.Material)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "prefab %q material", p.Name)
	}
	return p, mesh, mat, nil
}

// EnableInstancing allocates the prefab's InstancedMesh with room for max
// instances. Enabling an already instanced prefab is an error.
func (m *Manager) EnableInstancing(h Handle[Prefab], max int) error {
	p, err := m.Prefabs.Get(h)
	if err != nil {
		return err
	}
	if p.Instancing.Enabled {
		return errors.Errorf("prefab %q: instancing already enabled", p.Name)
	}
	if max <= 0 {
		return core.ConfigErrorf("prefab %q: instance count %d", p.Name, max)
	}
	ih, err := m.Instanced.Insert(&InstancedMesh{
		Mesh:         p.Mesh,
		MaxInstances: max,
		Transforms:   make([]math.Mat4, max),
		Packed:       make([]math.Mat4, 0, max),
	})
	if err != nil {
		return errors.Wrapf(err, "prefab %q", p.Name)
	}
	m.epoch++
	p.Instancing = Instancing{
		Enabled: true,
		Max:     max,
		Mesh:    ih,
		Epoch:   m.epoch,
		slots:   make([]uint32, max),
	}
	return nil
}

// DisableInstancing releases the InstancedMesh and clears count, controller
// and slots. Disabling a non-instanced prefab does nothing.
func (m *Manager) DisableInstancing(h Handle[Prefab]) error {
	p, err := m.Prefabs.Get(h)
	if err != nil {
		return err
	}
	if !p.Instancing.Enabled {
		return nil
	}
	im, err := m.Instanced.Remove(p.Instancing.Mesh)
	p.Instancing.reset()
	if err != nil {
		return errors.Wrapf(err, "prefab %q", p.Name)
	}
	if m.releaser != nil {
		m.releaser.ReleaseInstancedMesh(im)
	}
	return nil
}

// AttachInstance gives nodeID an instance slot. The first attached node
// becomes the controller. Attaching twice returns the same slot.
func (m *Manager) AttachInstance(h Handle[Prefab], nodeID uint32) (slot int, epoch uint32, err error) {
	p, err := m.Prefabs.Get(h)
	if err != nil {
		return -1, 0, err
	}
	if !p.Instancing.Enabled {
		return -1, 0, errors.Errorf("prefab %q is not instanced", p.Name)
	}
	s, err := p.Instancing.attach(nodeID)
	if err != nil {
		return -1, 0, errors.Wrapf(err, "prefab %q", p.Name)
	}
	return s, p.Instancing.Epoch, nil
}

// DetachInstance frees nodeID's slot. If nodeID was the controller, the node
// in the lowest remaining slot takes over. Stale prefabs are ignored since
// there is nothing left to release.
func (m *Manager) DetachInstance(h Handle[Prefab], nodeID uint32) {
	p, err := m.Prefabs.Get(h)
	if err != nil || !p.Instancing.Enabled {
		return
	}
	p.Instancing.detach(nodeID)
}

// InstancedMesh resolves a prefab's instance buffer.
func (m *Manager) InstancedMesh(p *Prefab) (*InstancedMesh, error) {
	if !p.Instancing.Enabled {
		return nil, errors.Errorf("prefab %q is not instanced", p.Name)
	}
	im, err := m.Instanced.Get(p.Instancing.Mesh)
	if err != nil {
		return nil, errors.Wrapf(err, "prefab %q", p.Name)
	}
	return im, nil
}

// RemoveMesh drops a mesh and its backend data.
func (m *Manager) RemoveMesh(h Handle[Mesh]) error {
	mesh, err := m.Meshes.Remove(h)
	if err != nil {
		return err
	}
	if m.releaser != nil {
		m.releaser.ReleaseMesh(mesh)
	}
	return nil
}

func (m *Manager) RemoveTexture(h Handle[Texture]) error {
	tex, err := m.Textures.Remove(h)
	if err != nil {
		return err
	}
	if m.releaser != nil {
		m.releaser.ReleaseTexture(tex)
	}
	return nil
}

// RemovePrefab disables instancing first so the instance buffer is freed.
func (m *Manager) RemovePrefab(h Handle[Prefab]) error {
	if err := m.DisableInstancing(h); err != nil {
		return err
	}
	_, err := m.Prefabs.Remove(h)
	return err
}

// Release frees every backend resource. Used at shutdown.
func (m *Manager) Release() {
	if m.releaser == nil {
		return
	}
	m.Instanced.Each(func(_ Handle[InstancedMesh], im *InstancedMesh) { m.releaser.ReleaseInstancedMesh(im) })
	m.Meshes.Each(func(_ Handle[Mesh], mesh *Mesh) { m.releaser.ReleaseMesh(mesh) })
	m.Textures.Each(func(_ Handle[Texture], t *Texture) { m.releaser.ReleaseTexture(t) })
}
