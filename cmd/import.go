package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Register every image in a directory",
	Long: `Register every image in a directory. The file name without its extension
is the person's name; underscores become spaces.

Examples:
  # jane_doe.jpg is registered as "jane doe"
  caregiver-faces import ./faces

  # Register the directory as caregivers with 8 parallel extractions
  caregiver-faces import ./staff --role caregiver --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("concurrency", 4, "Number of parallel workers")
	importCmd.Flags().String("role", "", "Add every imported person to a role set (caregiver or patient)")
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// importItem is one image file and the name it registers.
type importItem struct {
	Path string
	Name string
}

// collectImages lists the images directly inside dir, sorted by file name.
func collectImages(dir string) ([]importItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var items []importItem
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !slices.Contains(imageExtensions, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
		if name == "" {
			continue
		}
		items = append(items, importItem{Path: filepath.Join(dir, e.Name()), Name: name})
	}
	return items, nil
}

// importResult counts the outcome of a bulk import.
type importResult struct {
	Registered int
	Failed     map[string]error
}

// importFaces registers items with at most concurrency registrations in flight.
// A failed item does not stop the others; progress is called once per item.
func importFaces(
	ctx context.Context, items []importItem, concurrency int,
	register func(ctx context.Context, name string, image []byte) error,
	progress func(),
) importResult {
	result := importResult{Failed: make(map[string]error)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))

	for _, item := range items {
		g.Go(func() error {
			defer progress()

			err := ctx.Err()
			if err == nil {
				var image []byte
				image, err = os.ReadFile(item.Path)
				if err == nil {
					err = register(ctx, item.Name, image)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[item.Path] = err
			} else {
				result.Registered++
			}
			return nil
		})
	}
	g.Wait()

	return result
}

func runImport(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")

	items, err := collectImages(args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No images found")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	register, err := registerFunc(a, mustGetString(cmd, "role"))
	if err != nil {
		return err
	}

	fmt.Printf("Images to import: %d\n\n", len(items))
	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetDescription("Registering faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	result := importFaces(ctx, items, concurrency, register, func() { bar.Add(1) })

	fmt.Printf("\n\nImport complete: %d registered, %d failed (%d faces total)\n",
		result.Registered, len(result.Failed), a.service.Count())

	failed := make([]string, 0, len(result.Failed))
	for path := range result.Failed {
		failed = append(failed, path)
	}
	slices.Sort(failed)
	for _, path := range failed {
		fmt.Printf("  %s: %v\n", path, result.Failed[path])
	}
	return nil
}
