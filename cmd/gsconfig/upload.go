package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/pkg/catalog"
)

// shapefileParts are the sidecar files sent along with a .shp.
var shapefileParts = []string{"shp", "shx", "dbf", "prj", "cpg"}

// shapefileData turns path into upload data: a .zip is sent as is, a .shp
// is bundled with the sidecar files next to it. It also reports the bytes
// on disk.
func shapefileData(path string) (catalog.UploadData, uint64, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".zip":
		size, err := fileSize(path)
		return catalog.UploadData{Archive: path}, size, err
	case ".shp":
	default:
		return catalog.UploadData{}, 0, fmt.Errorf("%s: expected a .shp or .zip file", path)
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	files := make(map[string]string)
	var total uint64
	for _, part := range shapefileParts {
		p := base + "." + part
		size, err := fileSize(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return catalog.UploadData{}, 0, err
		}
		files[part] = p
		total += size
	}
	for _, required := range []string{"shp", "shx", "dbf"} {
		if _, ok := files[required]; !ok {
			return catalog.UploadData{}, 0, fmt.Errorf("%s: missing %s.%s", path, filepath.Base(base), required)
		}
	}
	return catalog.UploadData{Files: files}, total, nil
}

func fileSize(path string) (uint64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(fi.Size()), nil
}

func (a *app) newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Create stores from local data files",
	}
	cmd.AddCommand(a.newUploadShapefileCmd(), a.newUploadGeoTIFFCmd())
	return cmd
}

func (a *app) newUploadShapefileCmd() *cobra.Command {
	var opts catalog.UploadOptions
	var into bool
	cmd := &cobra.Command{
		Use:   "shapefile <store> <file.shp|bundle.zip>",
		Short: "Create a data store from a shapefile",
		Long: "Create a data store from a shapefile. With --into the data is added\n" +
			"to an existing store as a new feature type named after the file.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			store, path := args[0], args[1]
			data, size, err := shapefileData(path)
			if err != nil {
				return err
			}

			if into {
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				if err := c.AddDataToStore(cmd.Context(), store, name, data, opts); err != nil {
					return err
				}
				printf(a.out, "Added %s to store %s (%s)", name, store, humanize.Bytes(size))
				return nil
			}
			if err := c.CreateFeatureStore(cmd.Context(), store, data, opts); err != nil {
				return err
			}
			printf(a.out, "Created store %s (%s)", store, humanize.Bytes(size))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Workspace, "workspace", "w", "", "target workspace (default: the server default)")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace existing data")
	cmd.Flags().StringVar(&opts.Charset, "charset", "", "encoding of the .dbf attributes")
	cmd.Flags().BoolVar(&into, "into", false, "add to an existing store")
	return cmd
}

func (a *app) newUploadGeoTIFFCmd() *cobra.Command {
	var opts catalog.UploadOptions
	var worldFile string
	cmd := &cobra.Command{
		Use:   "geotiff <store> <file>",
		Short: "Create a coverage store from a GeoTIFF or a world image",
		Long: "Create a coverage store from a GeoTIFF. With --world-file the image\n" +
			"is sent as a world image together with its .tfw.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			store, path := args[0], args[1]
			size, err := fileSize(path)
			if err != nil {
				return err
			}

			data := catalog.UploadData{Archive: path}
			if worldFile != "" {
				wsize, err := fileSize(worldFile)
				if err != nil {
					return err
				}
				size += wsize
				ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
				data = catalog.UploadData{Files: map[string]string{ext: path, "tfw": worldFile}}
			}
			if err := c.CreateCoverageStoreFromFile(cmd.Context(), store, data, opts); err != nil {
				return err
			}
			printf(a.out, "Created coverage store %s (%s)", store, humanize.Bytes(size))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Workspace, "workspace", "w", "", "target workspace (default: the server default)")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace an existing store")
	cmd.Flags().StringVar(&worldFile, "world-file", "", "world file (.tfw) georeferencing the image")
	return cmd
}
