package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/ehr/praxis/internal/listedit"
	"github.com/ehr/praxis/internal/ui"
)

func resourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the record types the console can manage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, res := range a.registry.Resources() {
				var traits []string
				if res.ReadOnly {
					traits = append(traits, "read-only")
				}
				if res.Upload {
					traits = append(traits, "upload")
				}
				if res.RouteTokenParam != "" {
					traits = append(traits, "needs --token")
				}
				for _, act := range res.Actions {
					traits = append(traits, "action "+act.Name)
				}
				line := fmt.Sprintf("%-22s %s", res.Path, res.Title)
				if len(traits) > 0 {
					line += "  [" + strings.Join(traits, ", ") + "]"
				}
				fmt.Fprintln(a.out, line)
			}
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	var (
		page    int
		limit   int
		filters []string
		token   string
	)
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Show one page of records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			f, err := parseAssignments(filters)
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("--page starts at 1")
			}

			opts := []listedit.Option{listedit.WithFilters(f), listedit.WithRouteToken(token)}
			if limit > 0 {
				opts = append(opts, listedit.WithPageSize(limit))
			}
			c := a.controller(res, opts...)
			defer c.Close()

			if err := c.SetPage(cmd.Context(), page-1); err != nil {
				return err
			}
			v := c.View()
			if err := ui.RenderList(a.out, res, v); err != nil {
				return err
			}
			return v.LoadError
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default PAGE_SIZE)")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "field=value filter, repeatable")
	cmd.Flags().StringVar(&token, "token", "", "route token for scoped resources")
	return cmd
}

func getCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			rec, err := listedit.NewLoader(a.client, res).Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("%s %s not found", res.Title, args[1])
			}
			return ui.RenderRecord(a.out, res, rec)
		},
	}
}

func createCmd(a *app) *cobra.Command {
	var (
		interactive bool
		token       string
	)
	cmd := &cobra.Command{
		Use:   "create <resource> [field=value...]",
		Short: "Create a record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			c := a.controller(res, listedit.WithRouteToken(token))
			defer c.Close()
			if err := c.OpenCreate(); err != nil {
				return err
			}
			return a.edit(cmd, c, res, args[1:], interactive)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for every field")
	cmd.Flags().StringVar(&token, "token", "", "route token for scoped resources")
	return cmd
}

func updateCmd(a *app) *cobra.Command {
	var (
		interactive bool
		token       string
	)
	cmd := &cobra.Command{
		Use:   "update <resource> <id> [field=value...]",
		Short: "Change a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			c := a.controller(res, listedit.WithRouteToken(token))
			defer c.Close()
			if err := c.OpenEdit(cmd.Context(), args[1]); err != nil {
				return err
			}
			return a.edit(cmd, c, res, args[2:], interactive)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for every field")
	cmd.Flags().StringVar(&token, "token", "", "route token for scoped resources")
	return cmd
}

// edit fills the open dialog from prompts and assignments, then submits.
func (a *app) edit(cmd *cobra.Command, c *listedit.Controller, res *listedit.Resource, assignments []string, interactive bool) error {
	fields, err := parseAssignments(assignments)
	if err != nil {
		return err
	}
	err = checkFieldNames(fields, func(name string) (bool, bool) {
		f, ok := res.Field(name)
		return f.ReadOnly, ok
	})
	if err != nil {
		return err
	}

	if interactive {
		if !a.interactive() {
			return fmt.Errorf("--interactive needs a terminal")
		}
		edited, err := ui.PromptDraft(cmd.Context(), res, c.View().Dialog.Draft)
		if err != nil {
			return err
		}
		for name, v := range edited {
			if err := c.SetField(name, v); err != nil {
				return err
			}
		}
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.SetField(name, fields[name]); err != nil {
			return err
		}
	}

	if err := c.Submit(cmd.Context()); err != nil {
		a.printFieldErrors(c.View(), err)
		return err
	}
	return nil
}

func (a *app) printFieldErrors(v listedit.View, err error) {
	fe := listedit.FieldErrorsOf(err)
	if len(fe) == 0 && v.Dialog != nil {
		fe = v.Dialog.FieldErrors
	}
	for _, e := range fe {
		if e.Field == "" {
			fmt.Fprintf(a.errOut, "  %s\n", e.Message)
			continue
		}
		fmt.Fprintf(a.errOut, "  %s: %s\n", e.Field, e.Message)
	}
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			c := a.controller(res)
			defer c.Close()

			sent, err := c.Delete(cmd.Context(), args[1], a.confirmer())
			if err != nil {
				return err
			}
			if !sent {
				fmt.Fprintln(a.out, "Nothing deleted")
			}
			return nil
		},
	}
}

func actionCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "action <resource> <id> <action>",
		Short: "Run a resource action such as approve or regenerate-api-key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			c := a.controller(res, listedit.WithRouteToken(token))
			defer c.Close()

			rec, err := c.RunAction(cmd.Context(), args[1], args[2], a.confirmer())
			if err != nil {
				return err
			}
			if rec == nil {
				return nil
			}
			return ui.RenderRecord(a.out, res, rec)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "route token for scoped resources")
	return cmd
}

func uploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <resource> <file> [field=value...]",
		Short: "Upload a file as a new record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resource(args[0])
			if err != nil {
				return err
			}
			fields, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}

			path := args[1]
			mt, err := mimetype.DetectFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			c := a.controller(res)
			defer c.Close()
			rec, err := c.Upload(cmd.Context(), listedit.File{
				Name:        filepath.Base(path),
				ContentType: mt.String(),
				Content:     f,
			}, fields)
			if errors.Is(err, listedit.ErrUploadUnsupported) {
				return fmt.Errorf("%s does not accept uploads", res.Path)
			}
			if err != nil {
				return err
			}
			if rec == nil {
				return nil
			}
			return ui.RenderRecord(a.out, res, rec)
		},
	}
}
