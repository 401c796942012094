package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/caregiver-faces/internal/roles"
)

var registerCmd = &cobra.Command{
	Use:   "register <name> <image>",
	Short: "Register a face from an image file",
	Long: `Register the face in an image under a person's name.
Registering an existing name replaces the stored embedding.

Examples:
  caregiver-faces register "Jane Doe" jane.jpg
  caregiver-faces register "Bob" bob.png --role caregiver`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Identify the face in an image file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecognize,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered names",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a registered face, or all of them with --all",
	Long: `Delete a registered face. Role memberships are kept; use
"roles remove" to drop them as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(registerCmd, recognizeCmd, listCmd, deleteCmd)

	registerCmd.Flags().String("role", "", "Also add the person to a role set (caregiver or patient)")
	recognizeCmd.Flags().Bool("json", false, "Print the outcome as JSON")
	listCmd.Flags().String("filter", "", "Only show names containing this text (case and accent insensitive)")
	deleteCmd.Flags().Bool("all", false, "Delete every registered face")
}

// registerFunc returns the service call that registers a face with the given role flag.
func registerFunc(a *app, role string) (func(ctx context.Context, name string, image []byte) error, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", "family":
		return a.service.RegisterFace, nil
	case "caregiver":
		return a.service.RegisterCaregiver, nil
	case "patient":
		return a.service.RegisterPatient, nil
	default:
		return nil, fmt.Errorf("unknown role %q (want caregiver or patient)", role)
	}
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	register, err := registerFunc(a, mustGetString(cmd, "role"))
	if err != nil {
		return err
	}

	image, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if err := register(ctx, args[0], image); err != nil {
		return fmt.Errorf("failed to register %s: %w", args[0], err)
	}

	fmt.Printf("Registered %s (%d faces total)\n", args[0], a.service.Count())
	return nil
}

// recognizeOutput is the --json form of a recognition outcome.
type recognizeOutput struct {
	Name              string     `json:"name"`
	Recognized        bool       `json:"recognized"`
	Confidence        float64    `json:"confidence"`
	ConfidencePercent string     `json:"confidence_percent"`
	Tier              string     `json:"tier"`
	Role              roles.Role `json:"role"`
	Label             string     `json:"label"`
	Authorized        bool       `json:"authorized"`
	EmptyRegistry     bool       `json:"empty_registry"`
}

func runRecognize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	outcome, err := a.service.Recognize(ctx, image)
	if err != nil {
		return fmt.Errorf("failed to recognize: %w", err)
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recognizeOutput{
			Name:              outcome.Name,
			Recognized:        outcome.Recognized,
			Confidence:        outcome.Confidence,
			ConfidencePercent: outcome.ConfidencePercent(),
			Tier:              outcome.Tier,
			Role:              outcome.Role,
			Label:             outcome.Role.Label(),
			Authorized:        outcome.Authorized(),
			EmptyRegistry:     outcome.EmptyRegistry,
		})
	}

	switch {
	case outcome.EmptyRegistry:
		fmt.Println("No faces registered yet")
	case !outcome.Recognized:
		fmt.Println("Unknown person")
	default:
		fmt.Printf("%s (%s, %s confidence)\n", outcome.Name, outcome.Role.Label(), outcome.ConfidencePercent())
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	names := a.service.ListNames()
	if filter := mustGetString(cmd, "filter"); filter != "" {
		names = a.service.Search(filter)
	}

	for _, name := range names {
		var labels []string
		for _, r := range a.service.Roles(name) {
			labels = append(labels, r.Label())
		}
		if len(labels) > 0 {
			fmt.Printf("%s\t%s\n", name, strings.Join(labels, ", "))
		} else {
			fmt.Println(name)
		}
	}
	fmt.Printf("\n%d of %d faces\n", len(names), a.service.Count())
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	all := mustGetBool(cmd, "all")
	if all == (len(args) == 1) {
		return errors.New("specify either a name or --all")
	}

	ctx := context.Background()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if all {
		deleted, total, err := a.service.DeleteAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete faces: %w", err)
		}
		fmt.Printf("Deleted %d of %d faces\n", deleted, total)
		return nil
	}

	deleted, err := a.service.DeleteFace(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", args[0], err)
	}
	if !deleted {
		return fmt.Errorf("no face registered as %q", args[0])
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
