package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rhyrak/go-allocate/internal/allocator"
	"github.com/rhyrak/go-allocate/internal/config"
	"github.com/rhyrak/go-allocate/internal/csvio"
	"github.com/rhyrak/go-allocate/internal/logging"
)

// app carries what PersistentPreRunE resolves for the subcommands.
type app struct {
	configFile string
	cfg        *allocator.Configuration
	logger     *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate elective courses to students by merit",
		Long: `allocate assigns each student at most one elective course.

Students are served in descending CGPA order and receive the first preferred
course that still has a free seat reserved for their department.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), a.configFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Verbose, cfg.JSONLogs)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	config.AddFlags(root.PersistentFlags())
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "optional YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the allocation over an input workbook and export the result",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "template",
			Short: "Write a sample input workbook",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := csvio.WriteTemplate(a.cfg.TemplateFile, a.cfg.Delim()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Template written to: "+a.cfg.TemplateFile)
				return nil
			},
		},
	)
	return root
}

func (a *app) run(out io.Writer) error {
	wb, err := csvio.OpenWorkbook(a.cfg.InputPath, a.cfg.Delim())
	if err != nil {
		return err
	}
	ds, report, err := csvio.LoadDataset(wb)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Loading...")
	fmt.Fprintf(out, "Students: %d\n", len(ds.Students))
	fmt.Fprintf(out, "Courses: %d\n", len(ds.Courses))
	fmt.Fprintf(out, "Department offerings: %d\n", len(ds.Departments))

	start := time.Now()
	result, warnings := allocator.NewEngine(a.cfg.Options(), a.logger, nil).Run(ds)
	elapsed := time.Since(start)
	report.Warnings = append(report.Warnings, warnings...)

	if !report.Empty() {
		fmt.Fprintln(out, "\nInput warnings:")
		fmt.Fprint(out, report.String())
	}

	outPath, err := csvio.ExportAllocations(&result, a.cfg.ExportFile)
	if err != nil {
		return err
	}

	valid, msg := allocator.Validate(result, ds.Courses)
	if !valid {
		fmt.Fprintln(out, "\nInvalid allocation:")
	} else {
		fmt.Fprintln(out, "\nPassed all tests")
	}
	fmt.Fprint(out, msg)

	csvio.PrintAllocations(out, &result)

	fmt.Fprintf(out, "Timer: %f ms\n", float64(elapsed.Nanoseconds())/1000000.0)
	fmt.Fprintln(out, "Exported output to: "+outPath)
	return nil
}
