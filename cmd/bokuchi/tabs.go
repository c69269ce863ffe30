package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/justyntemme/bokuchi/internal/app"
)

func newOpenCommand() *cobra.Command {
	var dialog bool
	cmd := &cobra.Command{
		Use:   "open [file...]",
		Short: "Open files as tabs in the saved session",
		Long: `Open files in the session. Files already open are activated instead of
being opened twice. With --dialog the path is asked for interactively.

Examples:
  bokuchi open notes.md todo.txt
  bokuchi open --dialog`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				if dialog {
					if _, err := s.editor.OpenDialog(ctx); err != nil {
						return err
					}
				}
				// same path as OS file-association signals
				inbox := app.NewInbox(s.editor)
				inbox.MarkReady(ctx)
				for _, path := range args {
					if !inbox.Signal(ctx, path) {
						fmt.Printf("! skipped %s\n", path)
					}
				}
				printTabs(s)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dialog, "dialog", false, "Ask for a file to open")
	return cmd
}

func newTabsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "List the tabs of the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				printTabs(s)
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "select <tab>",
		Short: "Make a tab active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				doc, err := s.resolveTab(args[0])
				if err != nil {
					return err
				}
				s.editor.Select(doc.ID)
				printTabs(s)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Add an untitled tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				s.editor.New()
				printTabs(s)
				return nil
			})
		},
	})
	return cmd
}

func printTabs(s *session) {
	st := s.editor.State()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\t#\tTITLE\tSIZE\tPATH\tID")
	for i, d := range st.Documents {
		mark := " "
		if d.ID == st.ActiveID {
			mark = "*"
		}
		title := d.Title
		if d.IsModified {
			title += " (modified)"
		}
		path := d.FilePath
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", mark, i+1, title,
			humanize.Bytes(uint64(len(d.Content))), path, shortID(d.ID))
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newSaveCommand() *cobra.Command {
	var as bool
	var onConflict string
	cmd := &cobra.Command{
		Use:   "save [tab]",
		Short: "Save a tab (the active one by default)",
		Long: `Save a tab to its file. Untitled tabs ask for a destination.

If the file was changed by another program since it was opened, nothing is
written unless --on-conflict says how to resolve it:
  abort   leave both versions alone (default)
  keep    overwrite the file with the tab's content
  reload  take the file's content into the tab`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				id, err := targetTab(s, args)
				if err != nil {
					return err
				}
				var res app.SaveResult
				if as {
					res = s.editor.SaveAs(ctx, id)
				} else {
					res = s.editor.Save(ctx, id)
				}
				res = resolveConflict(ctx, res, onConflict)
				return reportSave(res)
			})
		},
	}
	cmd.Flags().BoolVar(&as, "as", false, "Always ask for a destination")
	cmd.Flags().StringVar(&onConflict, "on-conflict", "abort", "abort | keep | reload")
	return cmd
}

func targetTab(s *session, args []string) (string, error) {
	if len(args) == 1 {
		doc, err := s.resolveTab(args[0])
		return doc.ID, err
	}
	doc, ok := s.editor.Active()
	if !ok {
		return "", fmt.Errorf("no active tab")
	}
	return doc.ID, nil
}

func resolveConflict(ctx context.Context, res app.SaveResult, mode string) app.SaveResult {
	if res.Outcome != app.ConflictDetected {
		return res
	}
	switch mode {
	case "keep":
		return res.Conflict.Cancel(ctx)
	case "reload":
		return res.Conflict.Reload(ctx)
	}
	return res
}

func reportSave(res app.SaveResult) error {
	switch res.Outcome {
	case app.Saved:
		fmt.Printf("saved %s\n", res.Path)
	case app.Reloaded:
		fmt.Printf("reloaded %s from disk\n", res.Path)
	case app.Cancelled:
		fmt.Println("not saved")
	case app.ConflictDetected:
		fmt.Printf("%s changed on disk; rerun with --on-conflict keep or reload\n", res.Conflict.FileName)
	case app.Failed:
		return res.Err
	}
	return nil
}

func newCloseCommand() *cobra.Command {
	var save, discard bool
	cmd := &cobra.Command{
		Use:   "close [tab]",
		Short: "Close a tab (the active one by default)",
		Long: `Close a tab. A tab with unsaved changes is kept open unless --save or
--discard decides what happens to the changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if save && discard {
				return fmt.Errorf("--save and --discard are exclusive")
			}
			return withSession(func(ctx context.Context, s *session) error {
				id, err := targetTab(s, args)
				if err != nil {
					return err
				}
				res := s.editor.Close(ctx, id)
				switch res.Outcome {
				case app.CloseFailed:
					return res.Err
				case app.ClosePrompt:
					switch {
					case save:
						if err := reportSave(res.Prompt.Save(ctx)); err != nil {
							return err
						}
					case discard:
						res.Prompt.Discard()
					default:
						res.Prompt.Cancel()
						fmt.Printf("%s has unsaved changes; use --save or --discard\n", res.Prompt.FileName)
					}
				}
				printTabs(s)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Save unsaved changes before closing")
	cmd.Flags().BoolVar(&discard, "discard", false, "Drop unsaved changes")
	return cmd
}

func newCheckCommand() *cobra.Command {
	var onConflict string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether the active tab's file changed on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				c := s.editor.CheckActive(ctx)
				if c == nil {
					fmt.Println("unchanged")
					return nil
				}
				switch onConflict {
				case "keep":
					c.Cancel(ctx)
					fmt.Printf("kept the tab's version of %s\n", c.FileName)
				case "reload":
					if res := c.Reload(ctx); res.Outcome == app.Failed {
						return res.Err
					}
					fmt.Printf("reloaded %s\n", c.FileName)
				default:
					fmt.Printf("%s changed on disk\n", c.FileName)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&onConflict, "on-conflict", "report", "report | keep | reload")
	return cmd
}
