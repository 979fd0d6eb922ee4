package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/atedstone/plotmap/pkg/cmap"
	"github.com/atedstone/plotmap/pkg/features"
	"github.com/atedstone/plotmap/pkg/plot"
	"github.com/atedstone/plotmap/pkg/raster"
	"github.com/atedstone/plotmap/pkg/shade"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "plotmap",
	Short: "Compose georeferenced map figures from rasters and shapefiles",
	Long: `plotmap builds a projected map figure from the command line:
background imagery, shaded-relief DEMs, masks, scalar data, polygon
overlays, graticules, scale bars and colorbars, saved as PNG or JPEG.`,
}

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Print the georeferencing of a raster",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var (
	extentStr  string
	lon0       float64
	projection string
	sizeStr    string
	outFile    string

	background string
	coarsen    int

	demFile string
	azdeg   float64
	altdeg  float64

	maskFile  string
	maskColor string

	dataFile string
	cmapName string
	vmin     float64
	vmax     float64
	discrete bool

	shapefiles  []string
	polyFill    string
	polyStroke  string
	pgTable     string
	pgGeomCol   string
	pgAttrs     []string

	graticuleStr string
	scaleKm      float64
	colorbar     bool
	cbarLabel    string
	cbarExtend   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a map figure from layer flags",
	Long: `Compose a figure layer by layer. Georeference it either from the
first raster layer given, or explicitly with --extent and --lon0.`,
	RunE: runRender,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	f := renderCmd.Flags()
	f.StringVar(&extentStr, "extent", "", "Geographic extent W,E,S,N in degrees")
	f.Float64Var(&lon0, "lon0", 0, "Origin meridian (with --extent)")
	f.StringVar(&projection, "projection", "tmerc", "Map projection: tmerc or stere")
	f.StringVar(&sizeStr, "size", "1000x800", "Figure size in pixels, WxH")
	f.StringVarP(&outFile, "out", "o", "map.png", "Output file (.png or .jpg)")

	f.StringVar(&background, "background", "", "Greyscale background GeoTIFF")
	f.IntVar(&coarsen, "coarsen", 0, "Coarsen background by keeping every n-th pixel")

	f.StringVar(&demFile, "dem", "", "DEM GeoTIFF to draw as shaded relief")
	f.Float64Var(&azdeg, "azdeg", 100, "Light azimuth in degrees")
	f.Float64Var(&altdeg, "altdeg", 65, "Light altitude in degrees")

	f.StringVar(&maskFile, "mask", "", "Mask GeoTIFF; nonzero cells are painted")
	f.StringVar(&maskColor, "mask-color", "turquoise", "Mask colour (name or #hex)")

	f.StringVar(&dataFile, "data", "", "Scalar data GeoTIFF drawn through a colormap")
	f.StringVar(&cmapName, "cmap", "jet", "Colormap for --data")
	f.Float64Var(&vmin, "vmin", 0, "Lower colour bound (0,0 = data range)")
	f.Float64Var(&vmax, "vmax", 0, "Upper colour bound (0,0 = data range)")
	f.BoolVar(&discrete, "discrete", false, "Bucket data into the standard boundary bins")

	f.StringArrayVar(&shapefiles, "shapefile", nil, "Polygon shapefile to overlay (repeatable)")
	f.StringVar(&polyFill, "poly-fill", "", "Polygon fill colour (empty = none)")
	f.StringVar(&polyStroke, "poly-stroke", "black", "Polygon outline colour (empty = none)")
	f.StringVar(&pgTable, "postgis", "", "PostGIS polygon table to overlay")
	f.StringVar(&pgGeomCol, "geom-col", "geom", "Geometry column for --postgis")
	f.StringArrayVar(&pgAttrs, "attr", nil, "Attribute column to load from PostGIS (repeatable)")

	f.StringVar(&graticuleStr, "graticule", "", "Graticule steps mstep,pstep in degrees")
	f.Float64Var(&scaleKm, "scale-km", 0, "Draw a scale bar of this length in km")
	f.BoolVar(&colorbar, "colorbar", false, "Draw a colorbar for the data layer")
	f.StringVar(&cbarLabel, "cbar-label", "", "Colorbar label")
	f.StringVar(&cbarExtend, "cbar-extend", "neither", "Colorbar extend: neither, min, max, both")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(renderCmd)
}

func main() {
	// PostGIS credentials come from the environment; a local .env is
	// honoured when present.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	b, err := raster.Open(args[0])
	if err != nil {
		return err
	}
	ext := b.ExtentLatLon()
	fmt.Printf("file:    %s\n", args[0])
	fmt.Printf("size:    %d x %d pixels\n", b.Width, b.Height)
	fmt.Printf("extent:  %.4f .. %.4f E, %.4f .. %.4f N\n",
		ext.Min.X, ext.Max.X, ext.Min.Y, ext.Max.Y)
	fmt.Printf("crs:     %s\n", b.CRS)
	fmt.Printf("range:   %g .. %g\n", b.Min(), b.Max())
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	opt, err := georefOption()
	if err != nil {
		return err
	}
	w, h, err := parseSize(sizeStr)
	if err != nil {
		return err
	}

	m, err := plot.New(opt, plot.Projection(projection), plot.FigSize(w, h))
	if err != nil {
		return err
	}
	defer m.Close()

	if background != "" {
		logf("drawing background %s", background)
		if err := m.DrawBackground(background, plot.BackgroundOptions{Coarsen: coarsen}); err != nil {
			return err
		}
	}
	if demFile != "" {
		logf("drawing DEM %s", demFile)
		light := shade.LightSource{Azimuth: azdeg, Altitude: altdeg}
		if err := m.DrawDEM(demFile, plot.DEMOptions{Light: &light}); err != nil {
			return err
		}
	}
	if maskFile != "" {
		logf("drawing mask %s", maskFile)
		col, err := cmap.ParseColor(maskColor)
		if err != nil {
			return err
		}
		if err := m.DrawMask(maskFile, plot.MaskStyle{Color: &col}); err != nil {
			return err
		}
	}
	if dataFile != "" {
		logf("drawing data %s", dataFile)
		b, err := raster.Open(dataFile)
		if err != nil {
			return err
		}
		cm, err := cmap.ByName(cmapName)
		if err != nil {
			return err
		}
		opts := plot.DataOptions{Vmin: vmin, Vmax: vmax, Cmap: &cm, Discrete: discrete}
		if err := m.DrawData(b, opts); err != nil {
			return err
		}
	}

	style, err := polygonStyle()
	if err != nil {
		return err
	}
	for _, shp := range shapefiles {
		logf("drawing shapefile %s", shp)
		if err := m.DrawShapefile(shp, style); err != nil {
			return err
		}
	}
	if pgTable != "" {
		if err := drawPostGIS(m, style); err != nil {
			return err
		}
	}

	if graticuleStr != "" {
		mstep, pstep, err := parsePair(graticuleStr)
		if err != nil {
			return fmt.Errorf("bad --graticule: %w", err)
		}
		if err := m.Graticule(mstep, pstep, plot.GraticuleOptions{}); err != nil {
			return err
		}
	}
	if scaleKm > 0 {
		if err := m.ScaleBar(scaleKm, plot.ScaleBarOptions{}); err != nil {
			return err
		}
	}
	if colorbar {
		opts := plot.ColorbarOptions{Label: cbarLabel, Extend: plot.ColorbarExtend(cbarExtend)}
		if err := m.Colorbar(opts); err != nil {
			return err
		}
	}

	if strings.HasSuffix(outFile, ".jpg") || strings.HasSuffix(outFile, ".jpeg") {
		err = m.SaveJPEG(outFile, 90)
	} else {
		err = m.SavePNG(outFile)
	}
	if err != nil {
		return err
	}
	log.Printf("wrote %s", outFile)
	return nil
}

// georefOption picks the map's georeferencing: explicit extent flags
// win, otherwise the first raster layer provides it.
func georefOption() (plot.Option, error) {
	if extentStr != "" {
		ext, err := parseExtent(extentStr)
		if err != nil {
			return nil, fmt.Errorf("bad --extent: %w", err)
		}
		return plot.WithExtent(ext, lon0), nil
	}
	for _, path := range []string{background, demFile, dataFile, maskFile} {
		if path != "" {
			return plot.FromRaster(path), nil
		}
	}
	return nil, fmt.Errorf("provide --extent and --lon0, or at least one raster layer")
}

func polygonStyle() (plot.PolygonStyle, error) {
	var style plot.PolygonStyle
	if polyFill != "" {
		c, err := cmap.ParseColor(polyFill)
		if err != nil {
			return style, err
		}
		style.Fill = &c
	}
	if polyStroke != "" {
		c, err := cmap.ParseColor(polyStroke)
		if err != nil {
			return style, err
		}
		style.Stroke = &c
	}
	return style, nil
}

func drawPostGIS(m *plot.Map, style plot.PolygonStyle) error {
	port, _ := strconv.Atoi(envDefault("PLOTMAP_PG_PORT", "5432"))
	src, err := features.NewPostGISSource(features.PostGISConfig{
		Host:     envDefault("PLOTMAP_PG_HOST", "localhost"),
		Port:     port,
		User:     os.Getenv("PLOTMAP_PG_USER"),
		Password: os.Getenv("PLOTMAP_PG_PASSWORD"),
		DBName:   os.Getenv("PLOTMAP_PG_DBNAME"),
		SSLMode:  os.Getenv("PLOTMAP_PG_SSLMODE"),
	})
	if err != nil {
		return err
	}
	defer src.Close()

	logf("loading PostGIS table %s", pgTable)
	t, err := src.LoadPolygons(pgTable, pgGeomCol, pgAttrs...)
	if err != nil {
		return err
	}
	return m.DrawPolygons(t.Valid(), style)
}

func parseExtent(s string) (plot.Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return plot.Extent{}, fmt.Errorf("want W,E,S,N, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return plot.Extent{}, err
		}
		vals[i] = v
	}
	return plot.Extent{West: vals[0], East: vals[1], South: vals[2], North: vals[3]}, nil
}

func parsePair(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want a,b, got %q", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad --size %q, want WxH", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if w < 100 || h < 100 {
		return 0, 0, fmt.Errorf("figure size %dx%d too small", w, h)
	}
	return w, h, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func logf(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}
