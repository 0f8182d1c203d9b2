package ctl

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"settingsd/pkg/types"
)

type Config struct {
	Addr   string
	LogLvl string
}

// buildRootCmd is a convenience for help-only fallbacks.
func buildRootCmd() *cobra.Command {
	return buildRootCmdWith(&Config{Addr: "localhost:8080", LogLvl: "info"})
}

// buildRootCmdWith constructs the Cobra command tree over the HTTP
// client. The client is built lazily so persistent flags apply.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "settingsctl",
		Short:         "Inspect and edit a settingsd server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().String("addr", cfg.Addr, "settingsd address (defaults SETTINGSD_ADDR or localhost:8080)")
	root.PersistentFlags().String("log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults SETTINGSCTL_LOG_LEVEL or info)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if f := cmd.InheritedFlags().Lookup("addr"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.Addr = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("log-level"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.LogLvl = v
			}
		}
		SetLogLevel(cfg.LogLvl)
	}
	client := func() *Client { return NewClient(cfg.Addr) }

	desksCmd := &cobra.Command{Use: "desks", Short: "List desk names", RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		desks, err := client().Desks()
		if err != nil {
			return err
		}
		for _, d := range desks {
			fmt.Fprintln(out, d)
		}
		return nil
	}}

	printDesk := func(out io.Writer, dr types.DeskResponse) {
		buckets := make([]string, 0, len(dr.Buckets))
		for b := range dr.Buckets {
			buckets = append(buckets, b)
		}
		sort.Strings(buckets)
		for _, b := range buckets {
			keys := make([]string, 0, len(dr.Buckets[b]))
			for k := range dr.Buckets[b] {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s/%s\t%s\n", b, k, formatValue(dr.Buckets[b][k]))
			}
		}
	}

	deskCmd := &cobra.Command{Use: "desk <desk>", Short: "Show every bucket of a desk", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		dr, err := client().Desk(args[0])
		if err != nil {
			return err
		}
		printDesk(cmd.OutOrStdout(), dr)
		return nil
	}}

	mergedCmd := &cobra.Command{Use: "merged <desk>", Short: "Show a desk merged over the global desk", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		dr, err := client().Merged(args[0])
		if err != nil {
			return err
		}
		printDesk(cmd.OutOrStdout(), dr)
		return nil
	}}

	getCmd := &cobra.Command{Use: "get <desk> [bucket] [key]", Short: "Read a desk, bucket or one entry", Args: cobra.RangeArgs(1, 3), RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c := client()
		if len(args) == 1 {
			dr, err := c.Desk(args[0])
			if err != nil {
				return err
			}
			printDesk(out, dr)
			return nil
		}
		if len(args) == 3 {
			v, err := c.GetEntry(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, formatValue(v))
			return nil
		}
		br, err := c.Bucket(args[0], args[1])
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(br.Entries))
		for k := range br.Entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s\t%s\n", k, formatValue(br.Entries[k]))
		}
		return nil
	}}

	putCmd := &cobra.Command{Use: "put <desk> <bucket> <key> <value>", Short: "Write one entry", Example: "  settingsctl put groups display theme dark --kind text", Args: cobra.ExactArgs(4), RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		v, err := parseValue(kind, args[3])
		if err != nil {
			return err
		}
		debug("put %s/%s/%s kind=%s", args[0], args[1], args[2], v.Kind)
		return client().PutEntry(args[0], args[1], args[2], v)
	}}
	putCmd.Flags().String("kind", "", "Value kind: text|number|flag|list (inferred when omitted)")

	delCmd := &cobra.Command{Use: "del <desk> [bucket [key]]", Short: "Delete a desk, bucket or entry", Args: cobra.RangeArgs(1, 3), RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		switch len(args) {
		case 1:
			return c.DelDesk(args[0])
		case 2:
			return c.DelBucket(args[0], args[1])
		default:
			return c.DelEntry(args[0], args[1], args[2])
		}
	}}

	entriesCmd := &cobra.Command{Use: "entries <desk> <bucket>", Short: "Page through bucket entries in key order", Example: "  settingsctl entries groups display --from top --limit 10\n  settingsctl entries groups display --after theme", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		after, _ := cmd.Flags().GetString("after")
		from, _ := cmd.Flags().GetString("from")
		limit, _ := cmd.Flags().GetInt("limit")
		er, err := client().Entries(args[0], args[1], after, from, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range er.Entries {
			fmt.Fprintf(out, "%s\t%s\n", e.Key, formatValue(e.Value))
		}
		return nil
	}}
	entriesCmd.Flags().String("after", "", "Return keys strictly after this one")
	entriesCmd.Flags().String("from", "", "Page anchor: top or bottom")
	entriesCmd.Flags().Int("limit", 0, "Page size (server default when 0)")

	awaitCmd := &cobra.Command{Use: "await <path>", Short: "Block until a settings event fires at path", Example: "  settingsctl await /groups/display --event put-entry --key theme", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		event, _ := cmd.Flags().GetString("event")
		key, _ := cmd.Flags().GetString("key")
		timeout, _ := cmd.Flags().GetInt("timeout")
		info("waiting on %s", args[0])
		resp, err := client().Await(types.AwaitRequest{Path: args[0], Event: event, Key: key, TimeoutSeconds: timeout})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", resp.Path, resp.Status)
		return nil
	}}
	awaitCmd.Flags().String("event", "", "Match only this event name (put-entry, del-entry, ...)")
	awaitCmd.Flags().String("key", "", "Match only this entry key")
	awaitCmd.Flags().Int("timeout", 0, "Wait budget in seconds (server default when 0)")

	statusCmd := &cobra.Command{Use: "status", Short: "Show server counters", RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client().Status()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "desks\t%d\nbuckets\t%d\nentries\t%d\nrevision\t%d\nwatchers\t%d\nuptime_seconds\t%d\n",
			st.Desks, st.Buckets, st.Entries, st.Revision, st.Watchers, st.UptimeSeconds)
		return nil
	}}

	root.AddCommand(desksCmd, deskCmd, mergedCmd, getCmd, putCmd, delCmd, entriesCmd, awaitCmd, statusCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}

// MainWithArgs runs the CLI with explicit args and returns an exit code.
func MainWithArgs(args []string) int {
	cfg := &Config{
		Addr:   envStr("SETTINGSD_ADDR", "localhost:8080"),
		LogLvl: envStr("SETTINGSCTL_LOG_LEVEL", "info"),
	}
	root := buildRootCmdWith(cfg)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if strings.HasPrefix(err.Error(), "unknown command") {
			return 2
		}
		return 1
	}
	return 0
}

// Main returns an exit code for use by cmd/settingsctl.
func Main() int { return MainWithArgs(os.Args[1:]) }
