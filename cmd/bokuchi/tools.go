package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/justyntemme/bokuchi/internal/config"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/outline"
	"github.com/justyntemme/bokuchi/internal/search"
)

func newRecentCommand() *cobra.Command {
	var clearAll bool
	var forget []string
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened and saved files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				if s.db == nil {
					return fmt.Errorf("recent files need the database (drop --no-store)")
				}
				if clearAll {
					if err := s.db.ClearRecent(ctx); err != nil {
						return err
					}
					fmt.Println("recent files cleared")
					return nil
				}
				for _, path := range forget {
					s.recent.Forget(ctx, absolute(path))
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tOPENED\tCOUNT\tSIZE\tPREVIEW")
				for _, e := range s.recent.List(ctx) {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.FileName, humanize.Time(e.LastOpened),
						e.OpenCount, humanize.Bytes(uint64(e.FileSize)), clip(e.Preview, 40))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Forget all recent files")
	cmd.Flags().StringSliceVar(&forget, "forget", nil, "Remove these files from the list")
	return cmd
}

func clip(s string, n int) string {
	return truncate.StringWithTail(s, uint(n), "…")
}

func newHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the change-detection snapshot of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			local := fs.NewLocal(nil)
			local.MaxFileSize = cfg.Files.MaxFileSize

			info, err := local.HashFile(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("hash   %s\nsize   %s (%d bytes)\nmtime  %s\n", info.Hash,
				humanize.Bytes(uint64(info.Size)), info.Size, humanize.Time(time.Unix(info.ModTime, 0)))
			return nil
		},
	}
}

func newOutlineCommand() *cobra.Command {
	var showMeta bool
	cmd := &cobra.Command{
		Use:   "outline <file|tab>",
		Short: "List the headings of a file or tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, ok := readIfFile(args[0])
			if !ok {
				err := withSession(func(ctx context.Context, s *session) error {
					doc, err := s.resolveTab(args[0])
					if err != nil {
						return err
					}
					content = doc.Content
					return nil
				})
				if err != nil {
					return err
				}
			}
			if showMeta {
				meta, _, _ := outline.Split(content)
				keys := make([]string, 0, len(meta))
				for k := range meta {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("%s: %v\n", k, meta[k])
				}
			}
			for _, h := range outline.Headings(content) {
				fmt.Printf("%4d  %s%s\n", h.Line, strings.Repeat("  ", h.Level-1), h.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMeta, "meta", false, "Also print the front matter fields")
	return cmd
}

func newExpandCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expand <tab>",
		Short: "Print a tab's content with variables substituted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				doc, err := s.resolveTab(args[0])
				if err != nil {
					return err
				}
				out, err := s.editor.Expanded(doc.ID)
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			})
		},
	}
}

func newVarsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vars",
		Short: "Manage global template variables",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print global variables as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				out, err := s.editor.Variables().ExportYAML()
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Merge global variables from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withSession(func(ctx context.Context, s *session) error {
				return s.editor.ImportVariables(string(data))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <value>",
		Short: "Set one global variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				return s.editor.SetVariable(args[0], args[1])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every global variable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				s.editor.ClearVariables()
				return nil
			})
		},
	})
	return cmd
}

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [dir]",
		Short: "List editable files below a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			cfg := loadConfig()
			local := fs.NewLocal(nil)
			local.Extensions = cfg.Files.Extensions

			entries, err := local.Scan(context.Background(), root)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, e := range entries {
				rel, err := filepath.Rel(root, e.Path)
				if err != nil {
					rel = e.Path
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", rel, humanize.Bytes(uint64(e.Size)), humanize.Time(e.ModTime))
			}
			return w.Flush()
		},
	}
}

func newFindCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Search open tabs or a folder",
		Long: `Search open tabs, or the editable files below --dir.

Query directives (all must match):
  word              file name contains word (* wildcards allowed)
  contents:text     document text contains text
  heading:text      a heading contains text
  ext:md            file extension
  size:>10KB        size comparison (>, <, >=, <=, =)
  modified:>week    date comparison (YYYY-MM-DD, today, yesterday, week, month, year)

Examples:
  bokuchi find contents:todo
  bokuchi find --dir ~/notes 'heading:"release notes"' ext:md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if dir != "" {
				cfg := loadConfig()
				local := fs.NewLocal(nil)
				local.MaxFileSize = cfg.Files.MaxFileSize
				local.Extensions = cfg.Files.Extensions
				results, err := search.Folder(context.Background(), local, dir, search.Parse(query))
				if err != nil {
					return err
				}
				printResults(results)
				return nil
			}
			return withSession(func(ctx context.Context, s *session) error {
				printResults(s.editor.Find(query))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Search files below this folder instead of open tabs")
	return cmd
}

func printResults(results []search.Result) {
	for _, r := range results {
		where := r.Path
		if where == "" {
			where = r.Name
		}
		fmt.Println(where)
		for _, h := range r.Hits {
			fmt.Printf("%6d: %s\n", h.Line, clip(h.Text, 80))
		}
	}
	if len(results) == 0 {
		fmt.Println("no matches")
	}
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Back up the config file and write fresh defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigPath()
			backup, err := config.GenerateConfig(path)
			if err != nil {
				return err
			}
			if backup != "" {
				fmt.Printf("Backed up existing config to %s\n", backup)
			}
			fmt.Printf("Wrote default config to %s\n", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report parse and validation problems in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := config.NewManager()
			if err := m.Load(); err != nil {
				return err
			}
			if err := m.ParseError(); err != nil {
				return fmt.Errorf("%s: %w", m.Path(), err)
			}
			if err := m.ValidationError(); err != nil {
				return fmt.Errorf("%s: %w", m.Path(), err)
			}
			fmt.Printf("%s: ok\n", m.Path())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.ConfigPath())
		},
	})
	return cmd
}

func loadConfig() config.Config {
	m := config.NewManager()
	if err := m.Load(); err != nil {
		return *config.DefaultConfig()
	}
	return m.Get()
}

func readIfFile(arg string) (string, bool) {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return "", false
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", false
	}
	return string(data), true
}
