package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Faultbox/glbviewer/internal/library"
)

func (c *cli) modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the model library",
	}
	cmd.AddCommand(c.modelAddCmd(), c.modelListCmd(), c.modelRemoveCmd(), c.modelRenameCmd(), c.modelInfoCmd())
	return cmd
}

func (c *cli) modelAddCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <file.glb>...",
		Short: "Import GLB files into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return fmt.Errorf("--name needs exactly one file")
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			if name != "" {
				m, err := svc.Library.Import(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				c.printf("Imported %s as %s\n", m.Name, m.ID)
				return nil
			}
			models, err := svc.Library.ImportAll(cmd.Context(), args)
			for _, m := range models {
				if m.ID != "" {
					c.printf("Imported %s as %s\n", m.Name, m.ID)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (default: file name)")
	return cmd
}

func (c *cli) modelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imported models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			models, err := svc.Library.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			if len(models) == 0 {
				c.printf("No models found.\n")
				return nil
			}

			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTHUMBNAIL\tADDED")
			for _, m := range models {
				thumb := "no"
				if m.ThumbnailPath != "" {
					thumb = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.Name, thumb, m.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func (c *cli) modelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a model and its files",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			if err := svc.Library.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) modelRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Change a model's display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			m, err := svc.Library.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			c.printf("Renamed %s to %s\n", m.ID, m.Name)
			return nil
		},
	}
}

func (c *cli) modelInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show a model's file details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			m, err := svc.Library.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printf("%s", library.Details(m))
			return nil
		},
	}
}
