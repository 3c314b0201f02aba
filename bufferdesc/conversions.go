package bufferdesc

import "github.com/qualcomm/qcnode/qctypes"

// ImageToTensor converts a single-plane image to a tensor view, per
// §4.B. The conversion is pure and non-allocating: it copies the entire
// base descriptor and only then rewrites the tensor-specific fields, so
// the result shares DmaHandle/VirtualAddr with image. Returns ok=false
// when the padding invariants of §3.2 are violated.
func ImageToTensor(image Descriptor) (Descriptor, bool) {
	img, ok := image.AsImage()
	if !ok {
		return Descriptor{}, false
	}
	if img.NumPlanes != 1 {
		return Descriptor{}, false
	}
	bpp := img.Format.BytesPerPixel()
	if bpp == 0 {
		return Descriptor{}, false
	}
	if img.Stride[0] != img.Width*uint32(bpp) {
		return Descriptor{}, false
	}

	t := img // copy of the entire base descriptor, per §4.B
	t.Tag = TypeTensor
	t.ElementType = qctypes.TensorElementTypeUFixedPoint8
	t.NumDims = 4
	t.Dims = [MaxDims]uint32{}
	t.Dims[0] = img.BatchSize
	t.Dims[1] = img.Height
	t.Dims[2] = img.Width
	t.Dims[3] = uint32(bpp)
	t.ValidSize = uint64(img.BatchSize) * uint64(img.Height) * uint64(img.Width) * uint64(bpp)
	return t, true
}

// LumaChromaTensors converts an NV12 or P010 image to its luma and chroma
// tensor views, per §4.B. Requires BatchSize == 1 and even Width/Height
// (§3.2's sub-sampled-chroma invariant).
func LumaChromaTensors(image Descriptor) (luma, chroma Descriptor, ok bool) {
	img, isImage := image.AsImage()
	if !isImage {
		return Descriptor{}, Descriptor{}, false
	}
	if img.Format != qctypes.ImageFormatNV12 && img.Format != qctypes.ImageFormatP010 {
		return Descriptor{}, Descriptor{}, false
	}
	if img.BatchSize != 1 || img.Width%2 != 0 || img.Height%2 != 0 {
		return Descriptor{}, Descriptor{}, false
	}

	lumaElem := qctypes.TensorElementTypeUFixedPoint8
	chromaElem := qctypes.TensorElementTypeUFixedPoint8
	if img.Format == qctypes.ImageFormatP010 {
		lumaElem = qctypes.TensorElementTypeUFixedPoint16
		chromaElem = qctypes.TensorElementTypeUFixedPoint16
	}
	lumaBytes := uint64(lumaElem.ByteWidth())
	chromaBytes := uint64(chromaElem.ByteWidth())

	luma = img
	luma.Tag = TypeTensor
	luma.ElementType = lumaElem
	luma.NumDims = 4
	luma.Dims = [MaxDims]uint32{1, img.Height, img.Width, 1}
	luma.ValidSize = uint64(img.Height) * uint64(img.Width) * lumaBytes

	chroma = img
	chroma.Tag = TypeTensor
	chroma.ElementType = chromaElem
	chroma.NumDims = 4
	chroma.Dims = [MaxDims]uint32{1, img.Height / 2, img.Width / 2, 2}
	chroma.Offset = img.Offset + img.PlaneBufSize[0]
	chroma.ValidSize = uint64(img.Height/2) * uint64(img.Width/2) * 2 * chromaBytes

	return luma, chroma, true
}

// SubBatchView produces the §3.3/§4.B sub-batch view of image starting at
// batchOffset for batchSize images. Requires exact division of TotalSize
// by the parent's BatchSize and batchOffset+batchSize <= parent.BatchSize.
func SubBatchView(image Descriptor, batchOffset, batchSize uint32) (Descriptor, bool) {
	img, ok := image.AsImage()
	if !ok || img.BatchSize == 0 {
		return Descriptor{}, false
	}
	if img.TotalSize%uint64(img.BatchSize) != 0 {
		return Descriptor{}, false
	}
	singleImageSize := img.TotalSize / uint64(img.BatchSize)
	if batchOffset+batchSize > img.BatchSize {
		return Descriptor{}, false
	}

	view := img
	view.Offset = img.Offset + uint64(batchOffset)*singleImageSize
	view.ValidSize = uint64(batchSize) * singleImageSize
	view.BatchSize = batchSize
	return view, true
}
