package resource

import (
	"github.com/pkg/errors"

	"forward-engine/core"
)

// ErrInstanceLimit is returned when every instance slot of a prefab is taken.
var ErrInstanceLimit = errors.Wrap(core.ErrMemory, "instance limit reached")

// Prefab is a drawable template: a mesh paired with a material. Nodes
// reference prefabs by handle; many nodes may share one.
type Prefab struct {
	Name        string
	Mesh        Handle[Mesh]
	Material    Handle[Material]
	// CastShadows is carried from the descriptor for the file format only;
	// the forward renderers draw no shadows.
	CastShadows bool
	ModelPath   string

	Instancing Instancing
}

// Instancing is the per-prefab instanced-draw state. Slot i holds the id of
// the node drawn at instance i, 0 when free.
type Instancing struct {
	Enabled    bool
	Max        int
	Mesh       Handle[InstancedMesh]
	Count      int
	Controller uint32

	// Epoch changes every time instancing is enabled, so nodes holding a
	// slot from an earlier enable know to re-attach.
	Epoch uint32

	slots []uint32
}

// SlotOf returns the slot held by nodeID, or -1.
func (in *Instancing) SlotOf(nodeID uint32) int {
	for i, id := range in.slots {
		if id == nodeID {
			return i
		}
	}
	return -1
}

// EachLive visits occupied slots in ascending order.
func (in *Instancing) EachLive(fn func(slot int, nodeID uint32)) {
	for i, id := range in.slots {
		if id != 0 {
			fn(i, id)
		}
	}
}

func (in *Instancing) attach(nodeID uint32) (int, error) {
	if s := in.SlotOf(nodeID); s >= 0 {
		return s, nil
	}
	free := -1
	for i, id := range in.slots {
		if id == 0 {
			free = i
			break
		}
	}
	if free < 0 {
		return -1, errors.Wrapf(ErrInstanceLimit, "max %d", in.Max)
	}
	in.slots[free] = nodeID
	in.Count++
	if in.Controller == 0 {
		in.Controller = nodeID
	}
	return free, nil
}

func (in *Instancing) detach(nodeID uint32) bool {
	s := in.SlotOf(nodeID)
	if s < 0 {
		return false
	}
	in.slots[s] = 0
	in.Count--
	if in.Controller == nodeID {
		in.Controller = 0
		for _, id := range in.slots {
			if id != 0 {
				in.Controller = id
				break
			}
		}
	}
	return true
}

func (in *Instancing) reset() {
	in.Enabled = false
	in.Max = 0
	in.Mesh = Handle[InstancedMesh]{}
	in.Count = 0
	in.Controller = 0
	in.slots = nil
}
