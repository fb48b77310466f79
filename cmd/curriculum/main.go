package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h3nok/curriculum-learning-optimization/internal/models"
	"github.com/h3nok/curriculum-learning-optimization/pkg/config"
	"github.com/h3nok/curriculum-learning-optimization/pkg/measures"
	"github.com/h3nok/curriculum-learning-optimization/pkg/patch"
	"github.com/h3nok/curriculum-learning-optimization/pkg/visualization"
)

func main() {
	// Parse command line arguments
	imagePath := flag.String("image", "", "Sample image to decompose and reconstruct (JPEG or PNG)")
	configPath := flag.String("config", "config.yaml", "Configuration file path")
	patchSize := flag.Int("patch-size", 0, "Square patch edge length in pixels (0: use config)")
	outputDir := flag.String("output", "", "Output directory for reconstructions (empty: use config)")
	measureList := flag.String("measures", "", "Comma-separated measure list (empty: use config)")
	orderingName := flag.String("ordering", "", "Placement ordering: identity, ascending or descending (empty: use config)")
	workers := flag.Int("workers", 0, "Number of scoring goroutines (0: use config)")
	pad := flag.Bool("pad", false, "Zero-pad images not divisible by the patch size")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line flags override the configuration file
	if *imagePath != "" {
		cfg.Input.ImagePath = *imagePath
	}
	if *patchSize > 0 {
		cfg.Patch.Size = *patchSize
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *measureList != "" {
		cfg.Processing.Measures = strings.Split(*measureList, ",")
	}
	if *orderingName != "" {
		cfg.Processing.Ordering = *orderingName
	}
	if *workers > 0 {
		cfg.Processing.NumWorkers = *workers
	}
	if *pad {
		cfg.Patch.Pad = true
	}

	if cfg.Input.ImagePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	ordering, err := patch.ParseOrdering(cfg.Processing.Ordering)
	if err != nil {
		log.Fatalf("Invalid ordering: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("PATCH-ORDERED RECONSTRUCTION UNDER CONTENT MEASURES")
	fmt.Println("================================")

	// Load the sample image
	img, err := loadSample(cfg.Input.ImagePath)
	if err != nil {
		log.Fatalf("Failed to load sample: %v", err)
	}
	if img.Height != img.Width {
		log.Fatalf("Sample must be square, got %dx%d", img.Width, img.Height)
	}
	if cfg.Input.Size > 0 && img.Height != cfg.Input.Size {
		fmt.Printf("Note: sample is %dx%d, configuration expects %dx%d\n",
			img.Width, img.Height, cfg.Input.Size, cfg.Input.Size)
	}
	fmt.Printf("Loaded sample %s (%dx%dx%d)\n", cfg.Input.ImagePath, img.Height, img.Width, img.Channels)

	// Split the sample into patches. With padding enabled the grid
	// covers the next multiple of the patch size, so reconstructions
	// target the padded dimensions.
	patches, err := patch.Split(img, img.Height, img.Width, cfg.Patch.Size, cfg.Patch.Size, cfg.Patch.Pad)
	if err != nil {
		log.Fatalf("Failed to split sample: %v", err)
	}
	gridSize := img.Height
	if rem := gridSize % cfg.Patch.Size; rem != 0 {
		gridSize += cfg.Patch.Size - rem
	}
	fmt.Printf("Split into %d patches of %dx%dx3\n", len(patches), cfg.Patch.Size, cfg.Patch.Size)

	evaluator := &measures.StatEvaluator{Bins: cfg.Processing.HistogramBins}
	reconstructor := patch.NewReconstructor(evaluator, cfg.Processing.NumWorkers)

	// Sanity oracle: the identity ordering must reproduce the sample
	// exactly whenever no padding was applied.
	identity, err := reconstructor.Reconstruct(patches, gridSize, gridSize, measures.Entropy, patch.OrderIdentity)
	if err != nil {
		log.Fatalf("Identity reconstruction failed: %v", err)
	}
	if !cfg.Patch.Pad {
		if patch.Conserves(img, identity) {
			fmt.Println("Data conservation check: PASSED")
		} else {
			log.Fatal("Data conservation check FAILED: identity reconstruction differs from sample")
		}
	}

	// Reconstruct under every configured measure
	reconstructions := make([]models.Image, 0, len(cfg.Processing.Measures))
	titles := make([]string, 0, len(cfg.Processing.Measures))

	startTime := time.Now()
	for _, name := range cfg.Processing.Measures {
		m, err := measures.ParseMeasure(name)
		if err != nil {
			log.Fatalf("Invalid measure list: %v", err)
		}

		measureStart := time.Now()
		reconstructed, err := reconstructor.Reconstruct(patches, gridSize, gridSize, m, ordering)
		if err != nil {
			log.Fatalf("Reconstruction under %s failed: %v", m, err)
		}

		if cfg.Output.Verbose {
			fmt.Printf("  %-8s reconstructed in %v\n", m, time.Since(measureStart).Round(time.Microsecond))
		}

		if cfg.Output.SaveIndividual {
			path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("%s.jpg", strings.ToLower(m.String())))
			if err := visualization.SaveJPEG(path, reconstructed.ToRGBA()); err != nil {
				log.Printf("Warning: failed to save %s reconstruction: %v", m, err)
			}
		}

		reconstructions = append(reconstructions, reconstructed)
		titles = append(titles, m.String())
	}

	// Render the summary montage
	montage := visualization.NewMontage(cfg.Output.MontageColumns, gridSize)
	grid, err := montage.Render(reconstructions, titles)
	if err != nil {
		log.Fatalf("Failed to render montage: %v", err)
	}

	montagePath := filepath.Join(cfg.Output.Dir, "montage.jpg")
	if err := visualization.SaveJPEG(montagePath, grid); err != nil {
		log.Fatalf("Failed to save montage: %v", err)
	}

	fmt.Printf("\nReconstructed under %d measures in %.2f seconds\n",
		len(reconstructions), time.Since(startTime).Seconds())
	fmt.Printf("Ordering: %s, workers: %d\n", ordering, cfg.Processing.NumWorkers)
	fmt.Printf("Montage saved to: %s\n", montagePath)
}

// loadSample decodes an image file and converts it to the pipeline's
// float tensor representation.
func loadSample(path string) (models.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.Image{}, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return models.Image{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return models.FromImage(img), nil
}
