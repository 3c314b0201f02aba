// Package qctypes defines the domain enumerations of §3: image format,
// tensor element type, processor kind, and log level. Every DataTree
// scalar that names one of these is the string in the name tables below:
// lowercase for formats, element types and processors, upper-case for
// log levels.
package qctypes

// ImageFormat names a pixel layout, including the compressed variants that
// only appear at video codec boundaries.
type ImageFormat int

const (
	ImageFormatUnknown ImageFormat = iota
	ImageFormatRGB
	ImageFormatBGR
	ImageFormatUYVY
	ImageFormatNV12
	ImageFormatNV12UBWC
	ImageFormatP010
	ImageFormatTP10UBWC
	ImageFormatH264
	ImageFormatH265
	// ImageFormatMax is a sentinel past the last valid format, used as the
	// "not found" return value for typed accessors.
	ImageFormatMax
)

var imageFormatNames = map[ImageFormat]string{
	ImageFormatRGB:      "rgb",
	ImageFormatBGR:      "bgr",
	ImageFormatUYVY:     "uyvy",
	ImageFormatNV12:     "nv12",
	ImageFormatNV12UBWC: "nv12_ubwc",
	ImageFormatP010:     "p010",
	ImageFormatTP10UBWC: "tp10_ubwc",
	ImageFormatH264:     "h264",
	ImageFormatH265:     "h265",
}

// String returns the lowercase DataTree name for the format, or "" for
// ImageFormatUnknown/ImageFormatMax.
func (f ImageFormat) String() string {
	return imageFormatNames[f]
}

// ParseImageFormat resolves a DataTree scalar to its tagged value. The
// second return is false when name does not match a known format.
func ParseImageFormat(name string) (ImageFormat, bool) {
	for f, n := range imageFormatNames {
		if n == name {
			return f, true
		}
	}
	return ImageFormatMax, false
}

// Compressed reports whether the format is only valid at a codec boundary.
func (f ImageFormat) Compressed() bool {
	return f == ImageFormatH264 || f == ImageFormatH265
}

// BytesPerPixel returns the per-pixel (or per-luma-sample) byte size used
// by ImageToTensor conversions. Sub-sampled chroma formats (NV12, P010)
// report the luma-plane size here; chroma handling is specific to the
// conversion routine in package bufferdesc.
func (f ImageFormat) BytesPerPixel() int {
	switch f {
	case ImageFormatRGB, ImageFormatBGR:
		return 3
	case ImageFormatUYVY:
		return 2
	case ImageFormatNV12, ImageFormatNV12UBWC:
		return 1
	case ImageFormatP010, ImageFormatTP10UBWC:
		return 2
	default:
		return 0
	}
}

// NumPlanes returns how many memory planes the format occupies.
func (f ImageFormat) NumPlanes() int {
	switch f {
	case ImageFormatNV12, ImageFormatNV12UBWC, ImageFormatP010, ImageFormatTP10UBWC:
		return 2
	default:
		return 1
	}
}

// TensorElementType names the scalar type stored in a tensor buffer.
type TensorElementType int

const (
	TensorElementTypeUnknown TensorElementType = iota
	TensorElementTypeInt8
	TensorElementTypeInt16
	TensorElementTypeInt32
	TensorElementTypeInt64
	TensorElementTypeUInt8
	TensorElementTypeUInt16
	TensorElementTypeUInt32
	TensorElementTypeUInt64
	TensorElementTypeFloat16
	TensorElementTypeFloat32
	TensorElementTypeFloat64
	TensorElementTypeSFixedPoint8
	TensorElementTypeSFixedPoint16
	TensorElementTypeSFixedPoint32
	TensorElementTypeUFixedPoint8
	TensorElementTypeUFixedPoint16
	TensorElementTypeUFixedPoint32
	TensorElementTypeMax
)

var tensorTypeNames = map[TensorElementType]string{
	TensorElementTypeInt8:           "int8",
	TensorElementTypeInt16:          "int16",
	TensorElementTypeInt32:          "int32",
	TensorElementTypeInt64:          "int64",
	TensorElementTypeUInt8:          "uint8",
	TensorElementTypeUInt16:         "uint16",
	TensorElementTypeUInt32:         "uint32",
	TensorElementTypeUInt64:         "uint64",
	TensorElementTypeFloat16:        "float16",
	TensorElementTypeFloat32:        "float32",
	TensorElementTypeFloat64:        "float64",
	TensorElementTypeSFixedPoint8:   "sfixed_point8",
	TensorElementTypeSFixedPoint16:  "sfixed_point16",
	TensorElementTypeSFixedPoint32:  "sfixed_point32",
	TensorElementTypeUFixedPoint8:   "ufixed_point8",
	TensorElementTypeUFixedPoint16:  "ufixed_point16",
	TensorElementTypeUFixedPoint32:  "ufixed_point32",
}

// String returns the lowercase DataTree name for the element type.
func (t TensorElementType) String() string {
	return tensorTypeNames[t]
}

// ParseTensorElementType resolves a DataTree scalar to its tagged value.
func ParseTensorElementType(name string) (TensorElementType, bool) {
	for t, n := range tensorTypeNames {
		if n == name {
			return t, true
		}
	}
	return TensorElementTypeMax, false
}

// ByteWidth returns the size in bytes of a single element.
func (t TensorElementType) ByteWidth() int {
	switch t {
	case TensorElementTypeInt8, TensorElementTypeUInt8,
		TensorElementTypeSFixedPoint8, TensorElementTypeUFixedPoint8:
		return 1
	case TensorElementTypeInt16, TensorElementTypeUInt16, TensorElementTypeFloat16,
		TensorElementTypeSFixedPoint16, TensorElementTypeUFixedPoint16:
		return 2
	case TensorElementTypeInt32, TensorElementTypeUInt32, TensorElementTypeFloat32,
		TensorElementTypeSFixedPoint32, TensorElementTypeUFixedPoint32:
		return 4
	case TensorElementTypeInt64, TensorElementTypeUInt64, TensorElementTypeFloat64:
		return 8
	default:
		return 0
	}
}

// Processor names a compute engine a Node stage can be bound to.
type Processor int

const (
	ProcessorUnknown Processor = iota
	ProcessorHTP0
	ProcessorHTP1
	ProcessorCPU
	ProcessorGPU
	ProcessorMax
)

var processorNames = map[Processor]string{
	ProcessorHTP0: "htp0",
	ProcessorHTP1: "htp1",
	ProcessorCPU:  "cpu",
	ProcessorGPU:  "gpu",
}

// String returns the lowercase DataTree name for the processor.
func (p Processor) String() string {
	return processorNames[p]
}

// ParseProcessor resolves a DataTree scalar to its tagged value.
func ParseProcessor(name string) (Processor, bool) {
	for p, n := range processorNames {
		if n == name {
			return p, true
		}
	}
	return ProcessorMax, false
}

// LogLevel mirrors the severities the shared logger accepts.
type LogLevel int

const (
	LogLevelVerbose LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var logLevelNames = map[LogLevel]string{
	LogLevelVerbose: "VERBOSE",
	LogLevelDebug:   "DEBUG",
	LogLevelInfo:    "INFO",
	LogLevelWarn:    "WARN",
	LogLevelError:   "ERROR",
}

// String returns the upper-case DataTree name for the level.
func (l LogLevel) String() string {
	return logLevelNames[l]
}

// ParseLogLevel resolves a DataTree scalar to its tagged value.
func ParseLogLevel(name string) (LogLevel, bool) {
	for l, n := range logLevelNames {
		if n == name {
			return l, true
		}
	}
	return LogLevelError, false
}
