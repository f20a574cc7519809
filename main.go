package main

import (
	"os"
	"path/filepath"
	"strings"
	"unusedjars/analysis"
	"unusedjars/config"
	"unusedjars/models"
	"unusedjars/report"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "unusedjars",
		Short: "Finds the library jars a Java build ships but never uses",
	}
	rootCtx      = models.RootCtx{}
	analysisOpts = analysis.Options{}
	analysisCtx  = struct {
		ConfigFile      string
		OutputFile      string
		GraphFile       string
		SelfJars        []string
		Whitelist       []string
		Required        []string
		Retain          []string
		CountReferenced bool
		ListUnused      bool
	}{}
)

func resolvePath(path string) string {
	resolved, err := homedir.Expand(path)
	if err != nil {
		log.Fatalf("Failed to resolve path with home dir: %s: %s", path, err)
	}
	absolute, err := filepath.Abs(resolved)
	if err != nil {
		log.Fatalf("Failed to resolve absolute path: %s: %s", absolute, err)
	}
	return absolute
}

func resolveIn(dir, path string) string {
	if filepath.IsAbs(path) || strings.HasPrefix(path, "~") {
		return resolvePath(path)
	}
	return filepath.Join(dir, path)
}

func processRootConfig(cmd *cobra.Command, cfg *config.Config) models.RootCtx {
	if !cmd.Flag("large-threshold").Changed && cfg.LargeThreshold != "" {
		rootCtx.LargeDependencyThreshold = cfg.LargeThreshold
	}
	b, err := humanize.ParseBytes(rootCtx.LargeDependencyThreshold)
	if err != nil {
		log.Fatalf("Unable to parse threshold %s as a size", rootCtx.LargeDependencyThreshold)
	}
	rootCtx.LargeDependencyThresholdBytes = b
	return rootCtx
}

func processLogLevel() {
	switch strings.ToUpper(rootCtx.LogLevel) {
	case "TRACE":
		log.SetLevel(log.TraceLevel)
		rootCtx.LogLevel = "TRACE"
	case "DEBUG":
		log.SetLevel(log.DebugLevel)
		rootCtx.LogLevel = "DEBUG"
	case "INFO":
		log.SetLevel(log.InfoLevel)
		rootCtx.LogLevel = "INFO"
	default:
		log.Fatalf("Unknown log level: %s", rootCtx.LogLevel)
	}
}

// loadConfig reads the config file and lets explicitly set flags override it.
// Without --config, DIR/unusedjars.yaml is used when it exists.
func loadConfig(cmd *cobra.Command, dir string) *config.Config {
	var cfg *config.Config
	var err error
	if analysisCtx.ConfigFile == "" {
		cfg, err = config.LoadOrDefault(filepath.Join(dir, config.DefaultFile))
	} else {
		cfg, err = config.Load(resolveIn(dir, analysisCtx.ConfigFile))
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}

	if cmd.Flag("self-jar").Changed {
		cfg.SelfJars = analysisCtx.SelfJars
	}
	if cmd.Flag("whitelist").Changed {
		cfg.Whitelist = analysisCtx.Whitelist
	}
	if cmd.Flag("required").Changed {
		cfg.Required = analysisCtx.Required
	}
	if cmd.Flag("retain").Changed {
		cfg.Retain = analysisCtx.Retain
	}
	if cmd.Flag("count-referenced").Changed {
		cfg.CountReferenced = analysisCtx.CountReferenced
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	return cfg
}

func runAnalysis(cmd *cobra.Command, args []string) (string, *analysis.Result) {
	dir := resolvePath(args[0])
	cfg := loadConfig(cmd, dir)
	processRootConfig(cmd, cfg)

	opts := analysis.ResolveOptions(dir, analysisOpts)
	opts.Config = cfg
	result, err := analysis.Run(opts)
	if err != nil {
		log.Fatalf("Analysis failed: %s", err)
	}
	return dir, result
}

func writeFile(path string, write func(f *os.File) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %s", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		log.Fatalf("Failed to write %s: %s", path, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to write %s: %s", path, err)
	}
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&analysisOpts.LibsDir,
		"libs",
		"",
		"libs",
		"Directory of the jars to analyze")
	cmd.Flags().StringVarP(&analysisOpts.TreeFile,
		"tree",
		"",
		"deps_tree.txt",
		"Dependency tree written by Maven or Gradle, or a flat properties listing")
	cmd.Flags().StringVarP(&analysisOpts.TreeFormat,
		"tree-format",
		"",
		analysis.FormatAuto,
		"Format of the dependency tree: auto, maven, gradle or properties")
	cmd.Flags().StringVarP(&analysisOpts.GradleConfiguration,
		"configuration",
		"",
		"",
		"Gradle configuration to read from the dependency tree")
	cmd.Flags().StringVarP(&analysisOpts.JdepsFile,
		"jdeps",
		"",
		"jdeps.out",
		"Output of jdeps run over the jars")
	cmd.Flags().StringSliceVarP(&analysisCtx.SelfJars,
		"self-jar",
		"",
		nil,
		"Jar of the analyzed application itself; jdeps lines mentioning it are skipped")
	cmd.Flags().StringSliceVarP(&analysisCtx.Whitelist,
		"whitelist",
		"",
		nil,
		"group:artifact that must never be reported unused or excluded")
	cmd.Flags().StringSliceVarP(&analysisCtx.Required,
		"required",
		"",
		nil,
		"group:artifact that must be found used")
	cmd.Flags().StringSliceVarP(&analysisCtx.Retain,
		"retain",
		"",
		nil,
		"Keep unused deps whose group or artifact contains this text out of the unused list")
	cmd.Flags().BoolVarP(&analysisCtx.CountReferenced,
		"count-referenced",
		"",
		false,
		"Also count jars that are only referenced by other jars as used")
}

func init() {
	cobra.OnInitialize(processLogLevel)
	rootCmd.PersistentFlags().StringVarP(&rootCtx.LogLevel,
		"logging",
		"",
		"INFO",
		"The level of logging to use")
	rootCmd.PersistentFlags().StringVarP(&rootCtx.LargeDependencyThreshold,
		"large-threshold",
		"",
		"3MB",
		"Size above which a jar is highlighted")
	rootCmd.PersistentFlags().BoolVarP(&rootCtx.LargeDependenciesOnly,
		"large-deps-only",
		"",
		false,
		"Only show dependency trees that exceed the threshold")
	rootCmd.PersistentFlags().StringVarP(&analysisCtx.ConfigFile,
		"config",
		"",
		"",
		"Configuration file (default DIR/unusedjars.yaml)")

	var analyzeCmd = cobra.Command{
		Use:   "analyze [options] path/to/dir",
		Short: "Reports unused jars and writes the Maven exclusions that drop them",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir, result := runAnalysis(cmd, args)
			out := cmd.OutOrStdout()

			summary := report.NewSummary(result.All, result.Used, result.Unused, result.Retained)
			if err := summary.Print(out); err != nil {
				log.Fatalf("Failed to print summary: %s", err)
			}
			if analysisCtx.ListUnused {
				if err := report.PrintUnused(out, result.Unused, rootCtx.LargeDependencyThresholdBytes); err != nil {
					log.Fatalf("Failed to list unused jars: %s", err)
				}
			}

			output := resolveIn(dir, analysisCtx.OutputFile)
			if err := report.WriteExclusionsFile(output, result.Exclusions); err != nil {
				log.Fatalf("Failed to write exclusions: %s", err)
			}
			log.Infof("Wrote exclusions for %d dependencies to %s", result.Exclusions.Len(), output)

			if analysisCtx.GraphFile != "" {
				graphFile := resolveIn(dir, analysisCtx.GraphFile)
				writeFile(graphFile, func(f *os.File) error {
					return report.WriteUsageGraph(f, result.Usage)
				})
				log.Infof("Wrote usage graph to %s", graphFile)
			}
		},
	}
	addAnalysisFlags(&analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analysisCtx.OutputFile,
		"output",
		"",
		"exclusions.xml",
		"Where to write the exclusions")
	analyzeCmd.Flags().StringVarP(&analysisCtx.GraphFile,
		"graph",
		"",
		"",
		"Also write the jar usage graph in DOT format to this file")
	analyzeCmd.Flags().BoolVarP(&analysisCtx.ListUnused,
		"list-unused",
		"",
		false,
		"List every unused jar with its size")
	rootCmd.AddCommand(&analyzeCmd)

	var treeCmd = cobra.Command{
		Use:   "tree [options] path/to/dir",
		Short: "Prints the dependency tree with jar sizes, marking unused jars",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, result := runAnalysis(cmd, args)
			report.PrintTree(cmd.OutOrStdout(), result.Tree, report.Sizes(result.All), result.Unused, rootCtx)
		},
	}
	addAnalysisFlags(&treeCmd)
	rootCmd.AddCommand(&treeCmd)

	var graphCmd = cobra.Command{
		Use:   "graph [options] path/to/dir",
		Short: "Prints which jar uses which in DOT format",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, result := runAnalysis(cmd, args)
			if err := report.WriteUsageGraph(cmd.OutOrStdout(), result.Usage); err != nil {
				log.Fatalf("Failed to write usage graph: %s", err)
			}
		},
	}
	addAnalysisFlags(&graphCmd)
	rootCmd.AddCommand(&graphCmd)
}

type LogFormatter struct {
}

func (*LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level >= log.DebugLevel {
		return []byte(color.New(color.FgWhite).Sprintf("%s\n", entry.Message)), nil
	} else if entry.Level <= log.WarnLevel {
		return []byte(color.New(color.FgYellow).Sprintf("%s\n", entry.Message)), nil
	}
	return []byte(color.New(color.Reset).Sprintf("%s\n", entry.Message)), nil
}

func main() {
	log.SetFormatter(&LogFormatter{})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
