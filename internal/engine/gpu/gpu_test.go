package gpu

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestStd140Alignment(t *testing.T) {
	w := NewStd140(64)
	w.Float(1)
	w.Vec3(mgl32.Vec3{2, 3, 4}) // aligned to 16
	w.Float(5)                  // packs into the vec3's last word
	w.Vec4(mgl32.Vec4{6, 7, 8, 9})

	assert.Equal(t, 48, w.Len())
	assert.Equal(t, float32(1), ReadFloat(w.Bytes(), 0))
	assert.Equal(t, float32(2), ReadFloat(w.Bytes(), 16))
	assert.Equal(t, float32(4), ReadFloat(w.Bytes(), 24))
	assert.Equal(t, float32(5), ReadFloat(w.Bytes(), 28))
	assert.Equal(t, float32(6), ReadFloat(w.Bytes(), 32))
}

func TestStd140Mat4ColumnMajor(t *testing.T) {
	w := NewStd140(64)
	w.Mat4(mgl32.Translate3D(1, 2, 3))

	assert.Equal(t, 64, w.Len())
	// Translation lives in the fourth column.
	assert.Equal(t, float32(1), ReadFloat(w.Bytes(), 48))
	assert.Equal(t, float32(2), ReadFloat(w.Bytes(), 52))
	assert.Equal(t, float32(3), ReadFloat(w.Bytes(), 56))

	w.Reset()
	assert.Equal(t, 0, w.Len())
}

func TestBufferDescValidate(t *testing.T) {
	tests := []struct {
		name    string
		desc    BufferDesc
		wantErr bool
	}{
		{"constant", ConstantDesc(64), false},
		{"rounded", ConstantDesc(20), false},
		{"zero size", BufferDesc{Size: 0}, true},
		{"unaligned constant", BufferDesc{Size: 20, Bind: BindConstant}, true},
		{"unaligned vertex", BufferDesc{Size: 44, Bind: BindVertex}, false},
		{"unknown bind", BufferDesc{Size: 16, Bind: BindKind(9)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, 32, ConstantDesc(20).Size)
}

func TestArenaReleasesOnceInReverse(t *testing.T) {
	var a Arena
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		a.Track(func() { order = append(order, i) })
	}
	a.Track(nil)
	assert.Equal(t, 3, a.Len())

	a.Release()
	a.Release()

	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 0, a.Len())
}

func TestVertexLayoutHas(t *testing.T) {
	assert.True(t, LayoutFull.Has(AttribTangent))
	assert.True(t, LayoutLit.Has(AttribPosition|AttribNormal))
	assert.False(t, LayoutPositionUV.Has(AttribNormal))
}
