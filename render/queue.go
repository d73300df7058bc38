package render

import (
	"forward-engine/core"
	"forward-engine/math"
	"forward-engine/resource"
	"forward-engine/scene"
)

type prefabHandle = resource.Handle[resource.Prefab]

// instancedBatch is one instanced prefab in a queue. slots lists the
// instance slots submitted this frame.
type instancedBatch struct {
	prefab prefabHandle
	slots  []int
}

type transparentDraw struct {
	key    float32
	seq    int
	prefab prefabHandle
	node   *scene.Node
}

type boxDraw struct {
	model   math.Mat4
	color   core.Color
	texture resource.Handle[resource.Texture]
}

type textDraw struct {
	origin math.Vec3
	text   string
	color  core.Color
	scale  float32
}

// RenderQueue is one frame's classified draw work for a queue id.
type RenderQueue struct {
	solids     map[prefabHandle][]*scene.Node
	solidOrder []prefabHandle

	instanced     []instancedBatch
	instancedByID map[prefabHandle]int

	transparents []transparentDraw
	lights       []lightEntry
	boxes        []boxDraw
	texts        []textDraw
}

func newRenderQueue() RenderQueue {
	return RenderQueue{
		solids:        make(map[prefabHandle][]*scene.Node),
		instancedByID: make(map[prefabHandle]int),
	}
}

func (q *RenderQueue) addSolid(h prefabHandle, n *scene.Node) {
	nodes, ok := q.solids[h]
	if !ok {
		q.solidOrder = append(q.solidOrder, h)
	}
	q.solids[h] = append(nodes, n)
}

// addInstanced records slot for h. The prefab is added to the instanced set
// only once per frame.
func (q *RenderQueue) addInstanced(h prefabHandle, slot int) {
	i, ok := q.instancedByID[h]
	if !ok {
		i = len(q.instanced)
		q.instancedByID[h] = i
		q.instanced = append(q.instanced, instancedBatch{prefab: h})
	}
	q.instanced[i].slots = append(q.instanced[i].slots, slot)
}

func (q *RenderQueue) addTransparent(key float32, h prefabHandle, n *scene.Node) {
	q.transparents = append(q.transparents, transparentDraw{key: key, seq: len(q.transparents), prefab: h, node: n})
}

// InstancedLen is the number of distinct instanced prefabs queued.
func (q *RenderQueue) InstancedLen() int { return len(q.instanced) }

// InstanceCount is the number of instances of h queued this frame.
func (q *RenderQueue) InstanceCount(h resource.Handle[resource.Prefab]) int {
	if i, ok := q.instancedByID[h]; ok {
		return len(q.instanced[i].slots)
	}
	return 0
}

func (q *RenderQueue) SolidLen() int {
	n := 0
	for _, nodes := range q.solids {
		n += len(nodes)
	}
	return n
}

func (q *RenderQueue) TransparentLen() int { return len(q.transparents) }
func (q *RenderQueue) LightLen() int       { return len(q.lights) }
func (q *RenderQueue) BoxLen() int         { return len(q.boxes) }
func (q *RenderQueue) TextLen() int        { return len(q.texts) }

func (q *RenderQueue) Empty() bool {
	return len(q.solidOrder) == 0 && len(q.instanced) == 0 && len(q.transparents) == 0 &&
		len(q.lights) == 0 && len(q.boxes) == 0 && len(q.texts) == 0
}

// clear empties the queue, keeping allocated storage.
func (q *RenderQueue) clear() {
	clear(q.solids)
	q.solidOrder = q.solidOrder[:0]
	clear(q.instancedByID)
	q.instanced = q.instanced[:0]
	clear(q.transparents)
	q.transparents = q.transparents[:0]
	q.lights = q.lights[:0]
	q.boxes = q.boxes[:0]
	q.texts = q.texts[:0]
}
