package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapscan/heap"
	"github.com/joshuapare/heapscan/scan"
)

var verifyObjects []string

func init() {
	cmd := newVerifyCmd()
	cmd.Flags().StringSliceVar(&verifyObjects, "obj", nil, "Verify only these object addresses")
	rootCmd.AddCommand(cmd)
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <image>",
		Short: "Check embedded alignment patterns and scan consistency",
		Long: `The verify command checks every record's embedded alignment pattern
against the one recomputed from its type's layout, and confirms that the
fast and generic scan paths report the same edges for every object.

Example:
  heapscan verify heap.img
  heapscan verify heap.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args)
		},
	}
	return cmd
}

type verifyProblem struct {
	Object string `json:"object"`
	Error  string `json:"error"`
}

type verifyReport struct {
	Objects  int             `json:"objects"`
	Problems []verifyProblem `json:"problems"`
}

func runVerify(args []string) error {
	ss, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer ss.Close()

	objs, err := ss.objects(verifyObjects)
	if err != nil {
		return err
	}

	report := verifyReport{Objects: len(objs), Problems: []verifyProblem{}}
	for _, obj := range objs {
		if err := ss.verifyObject(obj); err != nil {
			report.Problems = append(report.Problems, verifyProblem{Object: obj.String(), Error: err.Error()})
			printVerbose("FAIL %s: %v\n", obj, err)
		}
	}

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		for _, p := range report.Problems {
			printInfo("%s: %s\n", p.Object, p.Error)
		}
		if len(report.Problems) == 0 {
			printInfo("OK: %d objects verified\n", report.Objects)
		}
	}
	if n := len(report.Problems); n > 0 {
		return fmt.Errorf("%d of %d objects failed verification", n, report.Objects)
	}
	return nil
}

func (ss *session) verifyObject(obj heap.Address) error {
	var fast, slow scan.EdgeSet
	var mismatch error
	err := guard(func() {
		if mismatch = ss.s.VerifyPattern(obj); mismatch != nil {
			return
		}
		ss.s.Scan(obj, &fast)
		ss.s.ScanFallback(obj, &slow)
	})
	switch {
	case err != nil:
		return err
	case mismatch != nil:
		return mismatch
	case !fast.Equal(&slow):
		return fmt.Errorf("fast path reports %d edges, generic path %d", fast.Len(), slow.Len())
	}
	return nil
}
