package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query routing core state",
	}

	cmd.AddCommand(statusNodeCmd())
	cmd.AddCommand(statusParentsCmd())
	cmd.AddCommand(statusDAGCmd())

	return cmd
}

func statusNodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node",
		Short: "Show node state (mobility, timeout period, EWMA)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			n, err := fetchNode()
			if err != nil {
				return err
			}

			out, err := formatNode(n, outputFormat)
			if err != nil {
				return fmt.Errorf("format node: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

func statusParentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parents",
		Short: "List parents in the current DAG",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			parents, err := fetchParents()
			if err != nil {
				return err
			}

			out, err := formatParents(parents, outputFormat)
			if err != nil {
				return fmt.Errorf("format parents: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

func statusDAGCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dag",
		Short: "Show the current DAG (grounded, rank, preferred parent)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			d, err := fetchDAG()
			if err != nil {
				return err
			}

			out, err := formatDAG(d, outputFormat)
			if err != nil {
				return fmt.Errorf("format dag: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

func healthzCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "healthz",
		Short: "Check daemon health",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			h, err := fetchHealthz()
			if err != nil {
				return err
			}

			fmt.Println(h.Status)
			return nil
		},
	}
}
