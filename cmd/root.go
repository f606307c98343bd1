package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ValentinKolb/kvbench/cmd/bench"
	"github.com/ValentinKolb/kvbench/cmd/util"
	"github.com/ValentinKolb/kvbench/cmd/verify"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines"
	"github.com/spf13/cobra"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvbench",
		Short: "embedded key-value store benchmark",
		Long: fmt.Sprintf(`kvbench (v%s)

A micro-benchmark suite for embedded key-value stores written in Go.
It writes, reads, scans and verifies the same generated dataset in
every selected engine and reports the time per operation.`, util.Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvbench",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvbench v%s\n", util.Version)
		},
	}

	// storesCmd lists the adapters with their engine versions and features
	storesCmd = &cobra.Command{
		Use:   "stores",
		Short: "List the available stores and their features",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ListStores(os.Stdout, os.TempDir())
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(verify.VerifyCmd)
	RootCmd.AddCommand(storesCmd)
	RootCmd.AddCommand(versionCmd)
}

// ListStores opens every adapter in a temporary directory below tmp and
// prints its engine and feature set.
func ListStores(w io.Writer, tmp string) error {
	for _, impl := range engines.Implementations() {
		dir, err := os.MkdirTemp(tmp, "kvbench-"+string(impl)+"-")
		if err != nil {
			return err
		}
		info, err := probe(impl, dir)
		_ = os.RemoveAll(dir)
		if err != nil {
			fmt.Fprintf(w, "%-12s%v\n", impl, err)
			continue
		}

		features := make([]string, len(info.SupportedFeatures))
		for i, f := range info.SupportedFeatures {
			features[i] = f.String()
		}
		fmt.Fprintf(w, "%-12s%-28s%s\n", impl, info.Engine, strings.Join(features, ", "))
	}

	if aliases := engines.AliasNames(); len(aliases) > 0 {
		fmt.Fprintln(w)
		for _, alias := range aliases {
			impl, _ := engines.Resolve(alias)
			fmt.Fprintf(w, "%-12salias of %s\n", alias, impl)
		}
	}
	return nil
}

func probe(impl store.Implementation, dir string) (store.Info, error) {
	s, err := engines.New(string(impl), store.Options{Dir: dir, Entries: 1, KeySize: 8, ValueSize: 8})
	if err != nil {
		return store.Info{}, err
	}
	defer s.Close()
	return s.Info(), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
