package math

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-4

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), v1.Add(v2))
	assert.Equal(t, NewVec3(3, 3, 3), v2.Sub(v1))
	assert.Equal(t, NewVec3(2, 4, 6), v1.Mul(2))
	assert.Equal(t, NewVec3(4, 10, 18), v1.MulVec(v2))
	assert.Equal(t, float32(32), v1.Dot(v2))

	// Right x Up = Front in a right-handed system
	assert.Equal(t, Vec3Front, Vec3Right.Cross(Vec3Up))
}

func TestVec3Normalize(t *testing.T) {
	n := NewVec3(3, 0, 0).Normalize()
	assert.Equal(t, NewVec3(1, 0, 0), n)
	assert.InDelta(t, 1, n.Length(), eps)

	// zero vector stays zero
	assert.Equal(t, Vec3Zero, Vec3Zero.Normalize())
}

func TestMat4Identity(t *testing.T) {
	m := Mat4Identity()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				assert.Equal(t, float32(1), m[i][j])
			} else {
				assert.Equal(t, float32(0), m[i][j])
			}
		}
	}
	assert.Equal(t, m, m.Mul(Mat4Identity()))
}

func TestMat4Translation(t *testing.T) {
	translation := NewVec3(1, 2, 3)
	m := Mat4Translation(translation)

	assert.Equal(t, translation, m.Translation())
	assert.Equal(t, translation, m.TransformPoint(Vec3Zero))
	// directions ignore translation
	assert.Equal(t, Vec3Up, m.TransformDir(Vec3Up))
}

func TestMat4MulAppliesLeftFirst(t *testing.T) {
	// scale by 2, then move by (1,0,0): (1,0,0) -> (2,0,0) -> (3,0,0)
	m := Mat4Scale(NewVec3(2, 2, 2)).Mul(Mat4Translation(NewVec3(1, 0, 0)))
	assert.True(t, NewVec3(3, 0, 0).ApproxEqual(m.TransformPoint(NewVec3(1, 0, 0)), eps))

	// reversed order: (1,0,0) -> (2,0,0) -> (4,0,0)
	m = Mat4Translation(NewVec3(1, 0, 0)).Mul(Mat4Scale(NewVec3(2, 2, 2)))
	assert.True(t, NewVec3(4, 0, 0).ApproxEqual(m.TransformPoint(NewVec3(1, 0, 0)), eps))
}

func TestQuaternionIdentity(t *testing.T) {
	assert.Equal(t, Quaternion{0, 0, 0, 1}, QuaternionIdentity())
}

func TestQuaternionRotation(t *testing.T) {
	// 90 degrees around Y takes +X to -Z
	q := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)
	assert.True(t, NewVec3(0, 0, -1).ApproxEqual(q.RotateVector(Vec3Right), eps))
}

func TestQuaternionToMat4MatchesRotateVector(t *testing.T) {
	q := QuaternionFromEuler(NewVec3(0.3, -1.1, 0.7))
	m := q.ToMat4()
	for _, v := range []Vec3{Vec3Right, Vec3Up, Vec3Front, NewVec3(1, -2, 3)} {
		assert.True(t, q.RotateVector(v).ApproxEqual(m.TransformDir(v), eps), "vector %v", v)
	}
}

func TestMat4TRS(t *testing.T) {
	q := QuaternionFromAxisAngle(Vec3Front, math32.Pi/2)
	m := Mat4TRS(NewVec3(5, 0, 0), q, NewVec3(2, 2, 2))

	// (1,0,0) -> scale (2,0,0) -> rotate 90° about Z (0,2,0) -> translate (5,2,0)
	assert.True(t, NewVec3(5, 2, 0).ApproxEqual(m.TransformPoint(Vec3Right), eps))
}

func TestMat4Inverse(t *testing.T) {
	m := Mat4TRS(NewVec3(1, -2, 3), QuaternionFromEuler(NewVec3(0.2, 0.4, 0.6)), NewVec3(1, 2, 3))
	assert.True(t, Mat4Identity().ApproxEqual(m.Mul(m.Inverse()), eps))
	assert.True(t, Mat4Identity().ApproxEqual(m.Inverse().Mul(m), eps))
}

func TestMat4Perspective(t *testing.T) {
	m := Mat4Perspective(math32.Pi/4, 16.0/9.0, 0.1, 100)
	assert.NotZero(t, m[0][0])
	assert.NotZero(t, m[1][1])

	// a point on the near plane lands at NDC z = -1
	p := m.TransformPoint(NewVec3(0, 0, -0.1))
	assert.InDelta(t, -1, p.Z, eps)
}

func TestMat4Orthographic(t *testing.T) {
	m := Mat4Orthographic(-10, 10, -5, 5, -1, 1)
	assert.True(t, NewVec3(1, 1, 0).ApproxEqual(m.TransformPoint(NewVec3(10, 5, 0)), eps))
	assert.True(t, NewVec3(-1, -1, 0).ApproxEqual(m.TransformPoint(NewVec3(-10, -5, 0)), eps))
}

func TestMat4LookAt(t *testing.T) {
	eye := NewVec3(0, 0, 5)
	m := Mat4LookAt(eye, Vec3Zero, Vec3Up)

	// the eye goes to the origin, the target lies down -Z
	assert.True(t, Vec3Zero.ApproxEqual(m.TransformPoint(eye), eps))
	assert.True(t, NewVec3(0, 0, -5).ApproxEqual(m.TransformPoint(Vec3Zero), eps))
}

func TestMat4Flatten(t *testing.T) {
	f := Mat4Translation(NewVec3(7, 8, 9)).Flatten()
	assert.Equal(t, []float32{7, 8, 9, 1}, f[12:16])
}

func BenchmarkVec3Add(b *testing.B) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)
	for i := 0; i < b.N; i++ {
		_ = v1.Add(v2)
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Mat4Identity()
	m2 := Mat4Identity()
	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}
