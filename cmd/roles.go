package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage caregiver and patient role sets",
}

var rolesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List caregivers and patients",
	Args:  cobra.NoArgs,
	RunE:  runRolesShow,
}

var rolesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a person from every role set",
	Long: `Remove a person from the caregiver and patient sets.
The registered face is kept, so the person is recognized as a family member.`,
	Args: cobra.ExactArgs(1),
	RunE: runRolesRemove,
}

func init() {
	rootCmd.AddCommand(rolesCmd)
	rolesCmd.AddCommand(rolesShowCmd, rolesRemoveCmd)
}

func runRolesShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Caregivers: %s\n", joinOrNone(a.service.Caregivers()))
	fmt.Printf("Patients:   %s\n", joinOrNone(a.service.Patients()))
	return nil
}

func runRolesRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.service.RemoveRole(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	if !removed {
		fmt.Printf("%s has no role\n", args[0])
		return nil
	}
	fmt.Printf("Removed %s from the role sets\n", args[0])
	return nil
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
