package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Zoidster/BirbBot/pkg/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the dedup store",
}

var cacheListCmd = &cobra.Command{
	Use:   "list [namespace]",
	Short: "List namespaces, or the entries of one namespace",
	Long: `Without arguments, list every namespace in the dedup store with its
entry count. With a namespace, list its filenames and post titles.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheList,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}

	h, err := cache.NewOpener(cfg.Cache.Backend, log).Open(cfg.Cache.StorePath)
	if err != nil {
		return err
	}
	defer h.Close()

	if len(args) == 1 {
		entries, err := h.Namespace(args[0])
		if err != nil {
			return err
		}
		return printEntries(cmd.OutOrStdout(), entries)
	}
	return printNamespaces(cmd.OutOrStdout(), h)
}

func printNamespaces(w io.Writer, h cache.Handle) error {
	names, err := h.Namespaces()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tIMAGES")
	for _, name := range names {
		entries, err := h.Namespace(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\n", name, len(entries))
	}
	return tw.Flush()
}

func printEntries(w io.Writer, entries map[string]string) error {
	files := make([]string, 0, len(entries))
	for f := range entries {
		files = append(files, f)
	}
	sort.Strings(files)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTITLE")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\n", f, entries[f])
	}
	return tw.Flush()
}
