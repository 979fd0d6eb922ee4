package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/terrascope/geometry"
	"golang.org/x/image/tiff"
)

// TIFF tags of interest. Pixel decoding for integer rasters is left to
// x/image/tiff; this reader only pulls the tags that library discards
// (georeferencing) plus enough layout to decode float strips itself.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagSampleFormat    = 339
	tagPixelScale      = 33550
	tagModelTiepoint   = 33922
	tagModelTransform  = 34264
	tagGeoKeyDirectory = 34735
	tagGeoDoubleParams = 34736
	tagGDALNoData      = 42113
)

const (
	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3
)

// Open loads a single-band GeoTIFF in full.
func Open(path string) (*Band, error) {
	return load(path, nil)
}

// OpenRegion loads only the pixels of a GeoTIFF covering a lon/lat
// bounding box. The window is snapped outward to pixel borders and
// clamped to the grid; an empty intersection is ErrNoOverlap.
func OpenRegion(path string, region geometry.BoundingBox) (*Band, error) {
	return load(path, &region)
}

func load(path string, region *geometry.BoundingBox) (*Band, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raster: %w", err)
	}

	tf, err := parseTIFF(raw)
	if err != nil {
		return nil, fmt.Errorf("raster: %s: %w", path, err)
	}

	b := &Band{Width: tf.width, Height: tf.height}
	if err := georeference(b, tf, path); err != nil {
		return nil, err
	}

	if tf.sampleFormat == sampleFormatFloat {
		b.Data, err = tf.decodeFloat()
	} else {
		b.Data, err = decodeViaImage(raw, tf.width, tf.height)
	}
	if err != nil {
		return nil, fmt.Errorf("raster: %s: %w", path, err)
	}

	if !math.IsNaN(tf.noData) {
		b.MaskEqual(tf.noData)
	}

	if region != nil {
		w, err := b.windowFor(*region)
		if err != nil {
			return nil, fmt.Errorf("raster: %s: %w", path, err)
		}
		b.crop(w)
	}
	return b, nil
}

// georeference fills Transform and CRS from the GeoTIFF keys, falling
// back to an ESRI world file next to the image.
func georeference(b *Band, tf *tiffFile, path string) error {
	switch {
	case len(tf.modelTransform) >= 8:
		m := tf.modelTransform
		b.Transform = [6]float64{m[3], m[0], m[1], m[7], m[4], m[5]}
	case len(tf.pixelScale) >= 2 && len(tf.tiepoint) >= 6:
		sx, sy := tf.pixelScale[0], tf.pixelScale[1]
		i, j := tf.tiepoint[0], tf.tiepoint[1]
		x, y := tf.tiepoint[3], tf.tiepoint[4]
		b.Transform = [6]float64{x - i*sx, sx, 0, y + j*sy, 0, -sy}
	default:
		wf, err := readWorldFile(path)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrNoGeoref, path)
		}
		b.Transform = wf
	}

	crs, err := crsFromGeoKeys(tf)
	if err != nil {
		return fmt.Errorf("raster: %s: %w", path, err)
	}
	b.CRS = crs
	return nil
}

// crsFromGeoKeys builds a proj4 CRS from the GeoKey directory. Geographic
// rasters and the projected systems that show up in practice for this
// kind of work (UTM zones, polar stereographic, user-defined transverse
// Mercator) are handled; anything else is an error rather than a guess.
func crsFromGeoKeys(tf *tiffFile) (CRS, error) {
	const (
		keyModelType    = 1024
		keyProjectedCS  = 3072
		keyProjCoordTC  = 3075
		keyNatOriginLon = 3080
		keyNatOriginLat = 3081
		keyFalseEasting = 3082
		keyFalseNorth   = 3083
		keyCenterLon    = 3088
		keyScaleAtNat   = 3092
	)
	const (
		modelProjected  = 1
		modelGeographic = 2
	)

	model, ok := tf.geoKeyShort(keyModelType)
	if !ok || model == modelGeographic {
		// No keys at all: assume lon/lat when the transform origin is
		// plausibly in degrees, which covers world-file-only datasets.
		return LatLonWGS84(), nil
	}
	if model != modelProjected {
		return "", fmt.Errorf("unsupported GeoTIFF model type %d", model)
	}

	if epsg, ok := tf.geoKeyShort(keyProjectedCS); ok && epsg != 32767 {
		if crs, ok := epsgCRS(epsg); ok {
			return crs, nil
		}
		return "", fmt.Errorf("unsupported projected CRS EPSG:%d", epsg)
	}

	// User-defined projection.
	ct, _ := tf.geoKeyShort(keyProjCoordTC)
	lon0, okLon := tf.geoKeyDouble(keyNatOriginLon)
	if !okLon {
		lon0, _ = tf.geoKeyDouble(keyCenterLon)
	}
	lat0, _ := tf.geoKeyDouble(keyNatOriginLat)
	k, okK := tf.geoKeyDouble(keyScaleAtNat)
	if !okK {
		k = 1
	}
	x0, _ := tf.geoKeyDouble(keyFalseEasting)
	y0, _ := tf.geoKeyDouble(keyFalseNorth)

	const ctTransverseMercator, ctPolarStereographic = 1, 15
	switch ct {
	case ctTransverseMercator:
		return CRS(fmt.Sprintf(
			`+proj=tmerc +lat_0=%g +lon_0=%g +k=%g +x_0=%g +y_0=%g +ellps=WGS84 +datum=WGS84 +units=m +no_defs`,
			lat0, lon0, k, x0, y0)), nil
	case ctPolarStereographic:
		return CRS(fmt.Sprintf(
			`+proj=stere +lat_0=%g +lat_ts=%g +lon_0=%g +k=%g +x_0=%g +y_0=%g +ellps=WGS84 +datum=WGS84 +units=m +no_defs`,
			math.Copysign(90, lat0), lat0, lon0, k, x0, y0)), nil
	}
	return "", fmt.Errorf("unsupported coordinate transformation code %d", ct)
}

// epsgCRS covers the projected codes this library meets in the wild.
func epsgCRS(code int) (CRS, bool) {
	switch {
	case code >= 32601 && code <= 32660: // UTM north
		return CRS(fmt.Sprintf(
			`+proj=utm +zone=%d +ellps=WGS84 +datum=WGS84 +units=m +no_defs`,
			code-32600)), true
	case code >= 32701 && code <= 32760: // UTM south
		return CRS(fmt.Sprintf(
			`+proj=utm +zone=%d +south +ellps=WGS84 +datum=WGS84 +units=m +no_defs`,
			code-32700)), true
	case code == 3413: // NSIDC polar stereographic north
		return CRS(`+proj=stere +lat_0=90 +lat_ts=70 +lon_0=-45 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs`), true
	case code == 3976: // NSIDC polar stereographic south
		return CRS(`+proj=stere +lat_0=-90 +lat_ts=-70 +lon_0=0 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs`), true
	case code == 3857: // web mercator
		return CRS(`+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs`), true
	}
	return "", false
}

// readWorldFile looks for path.tfw / path.wld and returns a geotransform.
func readWorldFile(path string) ([6]float64, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	var lines []string
	for _, ext := range []string{".tfw", ".wld", ".tifw"} {
		raw, err := os.ReadFile(base + ext)
		if err == nil {
			lines = strings.Fields(string(raw))
			break
		}
	}
	if len(lines) < 6 {
		return [6]float64{}, ErrNoGeoref
	}
	var v [6]float64
	for i := 0; i < 6; i++ {
		f, err := strconv.ParseFloat(lines[i], 64)
		if err != nil {
			return [6]float64{}, fmt.Errorf("world file: %w", err)
		}
		v[i] = f
	}
	// World file order: dx, roty, rotx, dy, x, y (pixel centre).
	return [6]float64{
		v[4] - v[0]/2, v[0], v[2],
		v[5] - v[3]/2, v[1], v[3],
	}, nil
}

// decodeViaImage hands integer rasters to x/image/tiff and converts the
// result to float64 grey values.
func decodeViaImage(raw []byte, width, height int) ([]float64, error) {
	img, err := tiff.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return nil, fmt.Errorf("decode: size %dx%d does not match tags %dx%d",
			bounds.Dx(), bounds.Dy(), width, height)
	}

	out := make([]float64, width*height)
	switch im := img.(type) {
	case *image.Gray:
		for i, v := range im.Pix {
			out[i] = float64(v)
		}
	case *image.Gray16:
		for i := 0; i < width*height; i++ {
			out[i] = float64(binary.BigEndian.Uint16(im.Pix[2*i:]))
		}
	default:
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
				out[i] = float64(g.Y)
				i++
			}
		}
	}
	return out, nil
}

// tiffFile is the subset of a TIFF's first IFD this package reads itself.
type tiffFile struct {
	raw   []byte
	order binary.ByteOrder

	width, height   int
	bitsPerSample   int
	compression     int
	sampleFormat    int
	rowsPerStrip    int
	stripOffsets    []int64
	stripByteCounts []int64
	tiled           bool

	pixelScale     []float64
	tiepoint       []float64
	modelTransform []float64
	geoKeys        []uint16
	geoDoubles     []float64
	noData         float64
}

func parseTIFF(raw []byte) (*tiffFile, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("truncated TIFF header")
	}
	tf := &tiffFile{raw: raw, noData: math.NaN(), compression: 1, sampleFormat: sampleFormatUint}
	switch string(raw[:2]) {
	case "II":
		tf.order = binary.LittleEndian
	case "MM":
		tf.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a TIFF file")
	}
	if tf.order.Uint16(raw[2:]) != 42 {
		return nil, fmt.Errorf("bad TIFF magic")
	}

	off := int64(tf.order.Uint32(raw[4:]))
	if off+2 > int64(len(raw)) {
		return nil, fmt.Errorf("bad IFD offset")
	}
	n := int(tf.order.Uint16(raw[off:]))
	for i := 0; i < n; i++ {
		e := off + 2 + int64(i)*12
		if e+12 > int64(len(raw)) {
			return nil, fmt.Errorf("truncated IFD")
		}
		if err := tf.readEntry(e); err != nil {
			return nil, err
		}
	}
	if tf.width == 0 || tf.height == 0 {
		return nil, fmt.Errorf("missing image dimensions")
	}
	tf.rowsDefault()
	return tf, nil
}

func (tf *tiffFile) rowsDefault() {
	if tf.rowsPerStrip == 0 {
		tf.rowsPerStrip = tf.height
	}
}

func (tf *tiffFile) readEntry(e int64) error {
	tag := int(tf.order.Uint16(tf.raw[e:]))
	typ := int(tf.order.Uint16(tf.raw[e+2:]))
	count := int(tf.order.Uint32(tf.raw[e+4:]))

	switch tag {
	case tagImageWidth:
		tf.width = int(tf.scalar(e, typ))
	case tagImageLength:
		tf.height = int(tf.scalar(e, typ))
	case tagBitsPerSample:
		tf.bitsPerSample = int(tf.scalar(e, typ))
	case tagCompression:
		tf.compression = int(tf.scalar(e, typ))
	case tagRowsPerStrip:
		tf.rowsPerStrip = int(tf.scalar(e, typ))
	case tagSampleFormat:
		tf.sampleFormat = int(tf.scalar(e, typ))
	case tagStripOffsets:
		tf.stripOffsets = tf.intSlice(e, typ, count)
	case tagStripByteCounts:
		tf.stripByteCounts = tf.intSlice(e, typ, count)
	case tagTileWidth, tagTileLength, tagTileOffsets:
		tf.tiled = true
	case tagPixelScale:
		tf.pixelScale = tf.doubleSlice(e, count)
	case tagModelTiepoint:
		tf.tiepoint = tf.doubleSlice(e, count)
	case tagModelTransform:
		tf.modelTransform = tf.doubleSlice(e, count)
	case tagGeoKeyDirectory:
		tf.geoKeys = tf.shortSlice(e, count)
	case tagGeoDoubleParams:
		tf.geoDoubles = tf.doubleSlice(e, count)
	case tagGDALNoData:
		s := strings.TrimRight(string(tf.bytesAt(e, count)), "\x00 ")
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			tf.noData = f
		}
	}
	return nil
}

func typeSize(typ int) int {
	switch typ {
	case 1, 2, 6, 7: // byte, ascii, sbyte, undefined
		return 1
	case 3, 8: // short
		return 2
	case 4, 9, 11: // long, slong, float
		return 4
	case 5, 10, 12: // rational, srational, double
		return 8
	}
	return 0
}

// payload returns the value bytes of an IFD entry, following the offset
// indirection when the value does not fit in four bytes.
func (tf *tiffFile) payload(e int64, typ, count int) []byte {
	size := typeSize(typ) * count
	if size <= 0 {
		return nil
	}
	start := e + 8
	if size > 4 {
		start = int64(tf.order.Uint32(tf.raw[e+8:]))
	}
	if start < 0 || start+int64(size) > int64(len(tf.raw)) {
		return nil
	}
	return tf.raw[start : start+int64(size)]
}

func (tf *tiffFile) bytesAt(e int64, count int) []byte {
	return tf.payload(e, 2, count)
}

func (tf *tiffFile) scalar(e int64, typ int) int64 {
	p := tf.payload(e, typ, 1)
	if p == nil {
		return 0
	}
	switch typ {
	case 3:
		return int64(tf.order.Uint16(p))
	case 4:
		return int64(tf.order.Uint32(p))
	}
	return 0
}

func (tf *tiffFile) intSlice(e int64, typ, count int) []int64 {
	p := tf.payload(e, typ, count)
	if p == nil {
		return nil
	}
	out := make([]int64, count)
	for i := 0; i < count; i++ {
		switch typ {
		case 3:
			out[i] = int64(tf.order.Uint16(p[2*i:]))
		case 4:
			out[i] = int64(tf.order.Uint32(p[4*i:]))
		}
	}
	return out
}

func (tf *tiffFile) shortSlice(e int64, count int) []uint16 {
	p := tf.payload(e, 3, count)
	if p == nil {
		return nil
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = tf.order.Uint16(p[2*i:])
	}
	return out
}

func (tf *tiffFile) doubleSlice(e int64, count int) []float64 {
	p := tf.payload(e, 12, count)
	if p == nil {
		return nil
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = math.Float64frombits(tf.order.Uint64(p[8*i:]))
	}
	return out
}

// geoKeyShort looks up a SHORT-valued GeoKey. The directory is quads of
// (key, location, count, value); location 0 means inline value.
func (tf *tiffFile) geoKeyShort(key uint16) (int, bool) {
	for i := 4; i+3 < len(tf.geoKeys); i += 4 {
		if tf.geoKeys[i] == key && tf.geoKeys[i+1] == 0 {
			return int(tf.geoKeys[i+3]), true
		}
	}
	return 0, false
}

// geoKeyDouble looks up a key stored in the GeoDoubleParams tag.
func (tf *tiffFile) geoKeyDouble(key uint16) (float64, bool) {
	for i := 4; i+3 < len(tf.geoKeys); i += 4 {
		if tf.geoKeys[i] == key && tf.geoKeys[i+1] == tagGeoDoubleParams {
			idx := int(tf.geoKeys[i+3])
			if idx < len(tf.geoDoubles) {
				return tf.geoDoubles[idx], true
			}
		}
	}
	return 0, false
}

// decodeFloat reads float32/float64 strip data. Science rasters are
// commonly written uncompressed; compressed or tiled float data is
// rejected rather than half-supported.
func (tf *tiffFile) decodeFloat() ([]float64, error) {
	if tf.tiled {
		return nil, fmt.Errorf("tiled float TIFF not supported")
	}
	if tf.compression != 1 {
		return nil, fmt.Errorf("compressed float TIFF not supported (compression %d)", tf.compression)
	}
	if tf.bitsPerSample != 32 && tf.bitsPerSample != 64 {
		return nil, fmt.Errorf("unsupported float depth %d", tf.bitsPerSample)
	}
	if len(tf.stripOffsets) == 0 || len(tf.stripOffsets) != len(tf.stripByteCounts) {
		return nil, fmt.Errorf("missing strip layout")
	}

	out := make([]float64, 0, tf.width*tf.height)
	bytesPer := tf.bitsPerSample / 8
	for s, off := range tf.stripOffsets {
		cnt := tf.stripByteCounts[s]
		if off < 0 || off+cnt > int64(len(tf.raw)) {
			return nil, fmt.Errorf("strip %d out of range", s)
		}
		p := tf.raw[off : off+cnt]
		for i := 0; i+bytesPer <= len(p); i += bytesPer {
			if bytesPer == 4 {
				out = append(out, float64(math.Float32frombits(tf.order.Uint32(p[i:]))))
			} else {
				out = append(out, math.Float64frombits(tf.order.Uint64(p[i:])))
			}
		}
	}
	if len(out) < tf.width*tf.height {
		return nil, fmt.Errorf("short pixel data: %d of %d", len(out), tf.width*tf.height)
	}
	return out[:tf.width*tf.height], nil
}
