package bufferdesc

import (
	"testing"

	"github.com/qualcomm/qcnode/qctypes"
)

func nv12Image() Descriptor {
	d := Descriptor{
		Tag:          TypeImage,
		VirtualAddr:  0x1000,
		DmaHandle:    7,
		TotalSize:    1920 * 1080 * 3 / 2,
		ValidSize:    1920 * 1080 * 3 / 2,
		Format:       qctypes.ImageFormatNV12,
		BatchSize:    1,
		Width:        1920,
		Height:       1080,
		NumPlanes:    2,
	}
	d.Stride[0] = 1920
	d.PlaneBufSize[0] = 1920 * 1080
	d.PlaneBufSize[1] = 1920 * 1080 / 2
	return d
}

func TestLumaChromaTensorsS2(t *testing.T) {
	img := nv12Image()
	luma, chroma, ok := LumaChromaTensors(img)
	if !ok {
		t.Fatal("LumaChromaTensors() failed")
	}

	wantLuma := [MaxDims]uint32{1, 1080, 1920, 1}
	if luma.Dims != wantLuma {
		t.Errorf("luma.Dims = %v, want %v", luma.Dims, wantLuma)
	}
	wantChroma := [MaxDims]uint32{1, 540, 960, 2}
	if chroma.Dims != wantChroma {
		t.Errorf("chroma.Dims = %v, want %v", chroma.Dims, wantChroma)
	}
	if want := img.Offset + 1920*1080; chroma.Offset != want {
		t.Errorf("chroma.Offset = %d, want %d", chroma.Offset, want)
	}
	if luma.DmaHandle != img.DmaHandle || luma.VirtualAddr != img.VirtualAddr {
		t.Errorf("luma does not share backing allocation with image")
	}
}

func TestSubBatchViewS3(t *testing.T) {
	const singleImageSize = 4096
	img := Descriptor{
		Tag:       TypeImage,
		TotalSize: 4 * singleImageSize,
		ValidSize: 4 * singleImageSize,
		BatchSize: 4,
		Offset:    0,
	}

	view, ok := SubBatchView(img, 1, 2)
	if !ok {
		t.Fatal("SubBatchView() failed")
	}
	if want := img.Offset + singleImageSize; view.Offset != want {
		t.Errorf("view.Offset = %d, want %d", view.Offset, want)
	}
	if want := uint64(2 * singleImageSize); view.ValidSize != want {
		t.Errorf("view.ValidSize = %d, want %d", view.ValidSize, want)
	}
	if view.BatchSize != 2 {
		t.Errorf("view.BatchSize = %d, want 2", view.BatchSize)
	}
}

func TestSubBatchViewOutOfRange(t *testing.T) {
	img := Descriptor{Tag: TypeImage, TotalSize: 400, BatchSize: 4}
	if _, ok := SubBatchView(img, 3, 2); ok {
		t.Error("SubBatchView() should fail when batchOffset+batchSize > parent.BatchSize")
	}
}

func TestImageToTensorRejectsBadStride(t *testing.T) {
	img := Descriptor{
		Tag: TypeImage, Format: qctypes.ImageFormatRGB,
		Width: 10, Height: 10, NumPlanes: 1,
	}
	img.Stride[0] = 64 // padded, violates stride[0] == width*bpp
	if _, ok := ImageToTensor(img); ok {
		t.Error("ImageToTensor() should reject a padded stride")
	}
}

func TestDescriptorInvariant(t *testing.T) {
	d := Descriptor{TotalSize: 100, Offset: 50, ValidSize: 50}
	if !d.CheckInvariant() {
		t.Error("CheckInvariant() = false for offset+validSize == totalSize")
	}
	d.ValidSize = 51
	if d.CheckInvariant() {
		t.Error("CheckInvariant() = true for offset+validSize > totalSize")
	}
}

func TestDummy(t *testing.T) {
	d := Dummy()
	if !d.IsDummy() {
		t.Error("Dummy().IsDummy() = false")
	}
	if d.Name != "Dummy" || d.Tag != TypeMax {
		t.Errorf("Dummy() = %+v, want Tag=TypeMax Name=Dummy", d)
	}
}
