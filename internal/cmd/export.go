package cmd

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/Coelancanth/Darklands-sub002/internal/preview"
	"github.com/Coelancanth/Darklands-sub002/internal/wind"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
	"github.com/Coelancanth/Darklands-sub002/internal/worldstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a field of a stored world as PNG",
	Long:  `Export one field of a world stored with "generate --db" as a grayscale PNG.`,
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Int64("id", 0, "Stored world id (default: latest world matching --seed/--width/--height)")
	exportCmd.Flags().Int64("seed", 1337, "World seed")
	exportCmd.Flags().Int("width", 256, "World width in cells")
	exportCmd.Flags().Int("height", 256, "World height in cells")
	exportCmd.Flags().String("field", string(world.FieldFinalPrecipitation), "Field to export (see \"fields\")")
	exportCmd.Flags().Int("size", 0, "Longest edge in pixels (0 = one pixel per cell)")
	exportCmd.Flags().Bool("wind", false, "Overlay prevailing wind arrows")
	exportCmd.Flags().StringP("output", "o", "", "Output PNG path (required)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"export.id", "id"},
		{"export.seed", "seed"},
		{"export.width", "width"},
		{"export.height", "height"},
		{"export.field", "field"},
		{"export.size", "size"},
		{"export.wind", "wind"},
		{"export.output", "output"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, exportCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	id := viper.GetInt64("export.id")
	seed := viper.GetInt64("export.seed")
	width := viper.GetInt("export.width")
	height := viper.GetInt("export.height")
	fieldName := viper.GetString("export.field")
	size := viper.GetInt("export.size")
	withWind := viper.GetBool("export.wind")
	output := viper.GetString("export.output")
	dbPath := viper.GetString("db")

	if logger == nil {
		initLogging()
	}

	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	if output == "" {
		return fmt.Errorf("--output is required")
	}
	if size < 0 || size > preview.MaxSize {
		return fmt.Errorf("--size must be within [0,%d]", preview.MaxSize)
	}
	name, err := world.LookupField(fieldName)
	if err != nil {
		return err
	}

	store, err := worldstore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if id <= 0 {
		if id, err = store.Find(ctx, seed, width, height); err != nil {
			return err
		}
	}
	wd, err := store.Load(ctx, id)
	if err != nil {
		return err
	}

	field, err := wd.Field(name)
	if err != nil {
		return err
	}
	if field.Empty() {
		return fmt.Errorf("world %d has no %s field", id, name)
	}

	var overlay wind.Model
	if withWind {
		overlay = wind.Latitude{}
	}
	img, err := preview.Render(field, size, overlay)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Info("Field exported", "world", id, "seed", wd.Seed, "field", name, "output", output)
	return nil
}
