// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The mthreaddemo binary exercises the mthread runtime with small,
// realistic parallel programs, one per subcommand.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/spf13/pflag"

	"github.com/4nuit/mthread"
	"github.com/4nuit/mthread/buildinfo"
	"github.com/4nuit/mthread/cmd/flagvar"
	"github.com/4nuit/mthread/cmd/pflagvar"
	"github.com/4nuit/mthread/cmdline"
	"github.com/4nuit/mthread/timing"
	"github.com/4nuit/mthread/uniqueid"
	"github.com/4nuit/mthread/workloads"
)

// globalFlags holds the handful of GNU-style (--long/-x) flags that apply
// across every subcommand. These are parsed separately from the
// per-subcommand flag.FlagSets cmdline.Command builds, via pflagvar, since
// cmdline's flag parsing is stdlib flag.FlagSet and has no notion of a
// flag shared ahead of the subcommand name.
var globalFlags struct {
	Quiet bool `flag:"quiet,false,suppress the live-thread diagnostic printed after each workload"`
}

// parseGlobalFlags scans os.Args for globalFlags before cmdline.Main does
// its own subcommand/flag parsing. Unknown flags and the subcommand name
// itself are left alone for cmdline to handle.
func parseGlobalFlags() {
	pfs := pflag.NewFlagSet("mthreaddemo", pflag.ContinueOnError)
	pfs.ParseErrorsWhitelist.UnknownFlags = true
	if err := pflagvar.RegisterFlagsInStruct(pfs, "flag", &globalFlags, nil, nil); err != nil {
		panic(err)
	}
	pfs.Parse(os.Args[1:])
}

// runTimed runs fn under a timing.Timer named name, printing the interval
// tree to env.Stdout when timed is true.
func runTimed(env *cmdline.Env, name string, timed bool, fn func() error) error {
	if !timed {
		return fn()
	}
	t := timing.NewFullTimer(name)
	err := fn()
	t.Finish()
	timing.IntervalPrinter{}.Print(env.Stdout, t.Root())
	return err
}

// reportLiveThreads surfaces mthread.LiveIDs as a leak-check diagnostic:
// every workload below joins every thread it creates, so a nonempty
// result here means a thread descriptor outlived its Join, which is
// worth a warning rather than silent accumulation in the arena.
func reportLiveThreads(env *cmdline.Env) {
	if globalFlags.Quiet {
		return
	}
	if live := mthread.LiveIDs(); len(live) > 0 {
		fmt.Fprintf(env.Stdout, "warning: %d thread descriptor(s) still live: %v\n", len(live), live)
	}
}

func main() {
	parseGlobalFlags()
	cmdline.Main(root)
}

// mustRegisterFlags registers structWithFlags's tagged fields as flags on
// fs, panicking on error: the struct/tag pairs here are fixed at compile
// time, so a mismatch is a programming error in this file, not a
// runtime condition callers should need to handle.
func mustRegisterFlags(fs *flag.FlagSet, structWithFlags interface{}, valueDefaults map[string]interface{}) {
	if err := flagvar.RegisterFlagsInStruct(fs, "cmdline", structWithFlags, valueDefaults, nil); err != nil {
		panic(err)
	}
}

var root = &cmdline.Command{
	Name:  "mthreaddemo",
	Short: "runs mthread workload demonstrations",
	Long: `
Command mthreaddemo drives the mthread user-level threading runtime
through a handful of realistic workloads: a mutex counter, a bounded
semaphore section, a Monte Carlo estimate of π, a sparse matrix-vector
product, a map-reduce word count and a blocked Cholesky factorization.
`,
	Children: []*cmdline.Command{
		cmdCounter,
		cmdBounded,
		cmdPi,
		cmdSpMV,
		cmdWordCount,
		cmdCholesky,
		cmdVersion,
	},
}

var cmdVersion = &cmdline.Command{
	Name:   "version",
	Short:  "prints build information",
	Runner: cmdline.RunnerFunc(runVersion),
}

func runVersion(env *cmdline.Env, args []string) error {
	runID, err := uniqueid.Random()
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "run %x %s\n", runID, buildinfo.Info().String())
	return nil
}

type counterFlags struct {
	NumThreads int  `cmdline:"threads,,number of threads contending on the mutex"`
	Timing     bool `cmdline:"timing,,print an interval-timing breakdown of the run"`
}

var counterArgs counterFlags

var cmdCounter = &cmdline.Command{
	Name:   "counter",
	Short:  "runs the mutex-protected counter scenario",
	Runner: cmdline.RunnerFunc(runCounter),
}

func init() {
	mustRegisterFlags(&cmdCounter.Flags, &counterArgs, map[string]interface{}{"threads": 64, "timing": false})
}

func runCounter(env *cmdline.Env, args []string) error {
	var n int
	err := runTimed(env, "counter", counterArgs.Timing, func() error {
		var err error
		n, err = workloads.MutexCounter(counterArgs.NumThreads)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "counter = %d (want %d)\n", n, counterArgs.NumThreads)
	reportLiveThreads(env)
	return workloads.MutexDestroyWhileBusy()
}

type boundedFlags struct {
	Max        int  `cmdline:"max,,maximum concurrent holders of the semaphore"`
	NumThreads int  `cmdline:"threads,,number of threads entering the bounded section"`
	Timing     bool `cmdline:"timing,,print an interval-timing breakdown of the run"`
}

var boundedArgs boundedFlags

var cmdBounded = &cmdline.Command{
	Name:   "bounded",
	Short:  "runs the bounded-semaphore section scenario",
	Runner: cmdline.RunnerFunc(runBounded),
}

func init() {
	mustRegisterFlags(&cmdBounded.Flags, &boundedArgs, map[string]interface{}{"max": 2, "threads": 5, "timing": false})
}

func runBounded(env *cmdline.Env, args []string) error {
	var counter int
	var finalValue uint32
	err := runTimed(env, "bounded", boundedArgs.Timing, func() error {
		var err error
		counter, finalValue, err = workloads.BoundedSection(uint32(boundedArgs.Max), boundedArgs.NumThreads)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "counter = %d, semaphore settled at %d\n", counter, finalValue)
	reportLiveThreads(env)
	return workloads.SemaphoreDestroyWhileBusy(uint32(boundedArgs.Max))
}

type piFlags struct {
	Trials  int  `cmdline:"trials,,number of Monte Carlo samples"`
	Threads int  `cmdline:"threads,,number of mthread threads to partition the trials across"`
	Timing  bool `cmdline:"timing,,print an interval-timing breakdown of the run"`
}

var piArgs piFlags

var cmdPi = &cmdline.Command{
	Name:   "pi",
	Short:  "estimates π with a Monte Carlo method",
	Runner: cmdline.RunnerFunc(runPi),
}

func init() {
	mustRegisterFlags(&cmdPi.Flags, &piArgs, map[string]interface{}{"trials": 1 << 20, "threads": 8, "timing": false})
}

func runPi(env *cmdline.Env, args []string) error {
	var estimate float64
	err := runTimed(env, "pi", piArgs.Timing, func() error {
		var err error
		estimate, err = workloads.MonteCarloPi(piArgs.Trials, piArgs.Threads)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "pi ~= %.6f (error %.6f)\n", estimate, math.Abs(estimate-math.Pi))
	reportLiveThreads(env)
	return nil
}

type spmvFlags struct {
	Size    int `cmdline:"size,,side length of the synthetic 2D Laplacian grid"`
	Threads int `cmdline:"threads,,number of mthread threads to partition rows across"`
}

var spmvArgs spmvFlags

var cmdSpMV = &cmdline.Command{
	Name:   "spmv",
	Short:  "multiplies a synthetic sparse Laplacian by a vector",
	Runner: cmdline.RunnerFunc(runSpMV),
}

func init() {
	mustRegisterFlags(&cmdSpMV.Flags, &spmvArgs, map[string]interface{}{"size": 64, "threads": 8})
}

func runSpMV(env *cmdline.Env, args []string) error {
	a := buildLaplacian(spmvArgs.Size)
	x := make([]float64, a.NRows)
	for i := range x {
		x[i] = 1
	}
	y, err := workloads.SpMV(a, x, spmvArgs.Threads)
	if err != nil {
		return err
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	fmt.Fprintf(env.Stdout, "rows=%d nnz=%d sum(A*1)=%.6f\n", a.NRows, a.NNZ, sum)
	reportLiveThreads(env)
	return nil
}

// buildLaplacian builds the 5-point Laplacian stencil on a side-by-side
// grid, the same matrix original_source/OpenMP/td3/CODE/SpMV/CSRMatrix.c's
// buildLaplacian constructs, in CSR form.
func buildLaplacian(side int) *workloads.CSRMatrix {
	n := side * side
	ia := make([]int, n+1)
	var ja []int
	var values []float64

	idx := func(r, c int) int { return r*side + c }
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			row := idx(r, c)
			ia[row] = len(values)
			if r > 0 {
				ja = append(ja, idx(r-1, c))
				values = append(values, -1)
			}
			if c > 0 {
				ja = append(ja, idx(r, c-1))
				values = append(values, -1)
			}
			ja = append(ja, row)
			values = append(values, 4)
			if c < side-1 {
				ja = append(ja, idx(r, c+1))
				values = append(values, -1)
			}
			if r < side-1 {
				ja = append(ja, idx(r+1, c))
				values = append(values, -1)
			}
		}
	}
	ia[n] = len(values)
	return &workloads.CSRMatrix{NRows: n, NNZ: len(values), Values: values, Ja: ja, Ia: ia}
}

var cmdWordCount = &cmdline.Command{
	Name:     "wordcount",
	Short:    "runs a map-reduce word count over its arguments",
	ArgsName: "<doc>...",
	ArgsLong: "Each argument is treated as one document's text.",
	Runner:   cmdline.RunnerFunc(runWordCount),
}

func runWordCount(env *cmdline.Env, args []string) error {
	if len(args) == 0 {
		return env.UsageErrorf("wordcount requires at least one document argument")
	}
	counts, err := workloads.WordCount(args, 0)
	if err != nil {
		return err
	}
	for word, n := range counts {
		fmt.Fprintf(env.Stdout, "%s %d\n", word, n)
	}
	reportLiveThreads(env)
	return nil
}

type choleskyFlags struct {
	NumTiles int  `cmdline:"tiles,,number of tiles per side of the block matrix"`
	TileSize int  `cmdline:"tile-size,,side length of each square tile"`
	Timing   bool `cmdline:"timing,,print an interval-timing breakdown of the run"`
}

var choleskyArgs choleskyFlags

var cmdCholesky = &cmdline.Command{
	Name:   "cholesky",
	Short:  "factors a synthetic block-diagonal-dominant matrix",
	Runner: cmdline.RunnerFunc(runCholesky),
}

func init() {
	mustRegisterFlags(&cmdCholesky.Flags, &choleskyArgs, map[string]interface{}{"tiles": 4, "tile-size": 8, "timing": false})
}

func runCholesky(env *cmdline.Env, args []string) error {
	nt, ts := choleskyArgs.NumTiles, choleskyArgs.TileSize
	a := make([][]workloads.Tile, nt)
	for i := range a {
		a[i] = make([]workloads.Tile, nt)
		for j := range a[i] {
			a[i][j] = make(workloads.Tile, ts*ts)
			if i == j {
				for k := 0; k < ts; k++ {
					a[i][j][k*ts+k] = float64(nt * ts)
				}
			}
		}
	}
	err := runTimed(env, "cholesky", choleskyArgs.Timing, func() error {
		return workloads.BlockedCholesky(a, nt, ts)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "factored a %dx%d tile grid (tile size %d)\n", nt, nt, ts)
	reportLiveThreads(env)
	return nil
}
