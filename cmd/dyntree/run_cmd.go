package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pbanos/dyntree"
	"github.com/pbanos/dyntree/dataset/csv"
	"github.com/pbanos/dyntree/pointset"
	"github.com/pbanos/dyntree/runner"
	"github.com/pbanos/dyntree/tree"
	"github.com/spf13/cobra"
)

type runCmdConfig struct {
	*rootCmdConfig
	trueValue           string
	delimiter           string
	skipFirstLine       bool
	testType            string
	datasetSize         int
	evalProbability     float64
	seed                int64
	maxHeight           int
	epsilon             float64
	epsilonTransmission float64
	epsilonMax          float64
	epsilonStep         float64
	nbUpdates           int
	insertProbability   float64
	minSplitPoints      int
	minSplitGini        float64
	csvOutput           bool
}

func runCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &runCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "run DATAFILE",
		Short: "Benchmark a dynamic tree against an update stream",
		Long: `Benchmark a dynamic tree against the update stream derived from a points file.

The points file must be a CSV featuring a header with as many columns as the
rest of the file. Each column must contain a single character: 'l' if the
column contains the decision label, 'n' if the column is numeric, 'b' if it is
binary and 'c' if it is categorical. The file may also feature a single line of
irrelevant data, in which case this line must be at the beginning of the file,
before the header, and the --skip flag must be provided.

In SLIDING mode the tree holds a sliding window over the file's points: each
step deletes the oldest windowed point and adds the next one. In RANDOM mode
the file's points are shuffled and each step randomly adds an unused point or
deletes one of the points currently in the tree.

With --epsilon-max and --epsilon-step several epsilon values are benchmarked
over the same event stream, one tree clone per value. With --csv the output is
one unheaded CSV row per epsilon value with the columns
seed;epsilon;true_positive;true_negative;false_positive;false_negative;init_time;iter_time;nb_build;mean_training_error`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if err = config.Run(args[0]); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&(config.trueValue), "true-value", "1", "value of the label that will be considered as true")
	cmd.PersistentFlags().StringVarP(&(config.delimiter), "delimiter", "d", ";", "character that separates data in the file")
	cmd.PersistentFlags().BoolVarP(&(config.skipFirstLine), "skip", "s", false, "indicates that the file has a header line before the one describing field types")
	cmd.PersistentFlags().StringVarP(&(config.testType), "type", "t", "S", "type of test to run, between 'S' or 'SLIDING' for sliding window, and 'R' or 'RANDOM' for random unordered sampling")
	cmd.PersistentFlags().IntVarP(&(config.datasetSize), "dataset-size", "b", 3000, "size of the window in SLIDING mode or of the initial dataset in RANDOM mode")
	cmd.PersistentFlags().Float64VarP(&(config.evalProbability), "proba", "a", 0.01, "probability of a point after the window to be an evaluation point")
	cmd.PersistentFlags().Int64VarP(&(config.seed), "seed", "r", -1, "seed for the random operations (if -1: time-based)")
	cmd.PersistentFlags().IntVar(&(config.maxHeight), "max-height", 5, "max number of vertices between root and leaf (included)")
	cmd.PersistentFlags().Float64VarP(&(config.epsilon), "epsilon", "e", -1, "epsilon of the algorithm, determining when to rebuild a node (if -1: min(min-split-gini/6, 1/(min-split-points+2)))")
	cmd.PersistentFlags().Float64VarP(&(config.epsilonTransmission), "epsilon-transmission", "w", -1, "epsilon to apply when choosing which layer to recompute (if -1: epsilon)")
	cmd.PersistentFlags().Float64VarP(&(config.epsilonMax), "epsilon-max", "f", -1, "for making several runs, set this to the max epsilon to test (if -1: epsilon)")
	cmd.PersistentFlags().Float64VarP(&(config.epsilonStep), "epsilon-step", "j", 0.1, "for making several runs, set this to the step between epsilon values to test")
	cmd.PersistentFlags().IntVarP(&(config.nbUpdates), "nb-updates", "u", 1000, "number of updates (add and del) to include in RANDOM mode")
	cmd.PersistentFlags().Float64VarP(&(config.insertProbability), "insert-proba", "i", 0.5, "probability of each update in RANDOM mode to be an insertion")
	cmd.PersistentFlags().IntVarP(&(config.minSplitPoints), "min-split-points", "m", 0, "minimal number of points in a vertex to make it have children")
	cmd.PersistentFlags().Float64VarP(&(config.minSplitGini), "min-split-gini", "g", 0, "minimal gini value of the point set of a vertex to make it have children")
	cmd.PersistentFlags().BoolVarP(&(config.csvOutput), "csv", "c", false, "format the output as CSV")
	return cmd
}

func (rcc *runCmdConfig) Validate() error {
	if len(rcc.delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", rcc.delimiter)
	}
	if !rcc.sliding() && !rcc.random() {
		return fmt.Errorf("unknown test type %q: supported types are 'S', 'SLIDING', 'R' and 'RANDOM'", rcc.testType)
	}
	if rcc.datasetSize < 1 {
		return fmt.Errorf("dataset size must be at least 1, got %d", rcc.datasetSize)
	}
	if rcc.maxHeight < 1 {
		return fmt.Errorf("max height must be at least 1, got %d", rcc.maxHeight)
	}
	if rcc.evalProbability < 0 || rcc.evalProbability > 1 {
		return fmt.Errorf("evaluation probability must be within [0, 1], got %g", rcc.evalProbability)
	}
	if rcc.insertProbability < 0 || rcc.insertProbability > 1 {
		return fmt.Errorf("insertion probability must be within [0, 1], got %g", rcc.insertProbability)
	}
	if rcc.epsilonMax > rcc.resolvedEpsilon() && rcc.epsilonStep <= 0 {
		return fmt.Errorf("epsilon step must be positive to sweep epsilon values up to %g", rcc.epsilonMax)
	}
	return nil
}

func (rcc *runCmdConfig) sliding() bool {
	return rcc.testType == "S" || rcc.testType == "SLIDING"
}

func (rcc *runCmdConfig) random() bool {
	return rcc.testType == "R" || rcc.testType == "RANDOM"
}

func (rcc *runCmdConfig) resolvedEpsilon() float64 {
	if rcc.epsilon < 0 {
		return dyntree.DefaultEpsilon(rcc.minSplitPoints, rcc.minSplitGini)
	}
	return rcc.epsilon
}

func (rcc *runCmdConfig) Run(dataPath string) error {
	seed := rcc.seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	epsilon := rcc.resolvedEpsilon()
	epsilonMax := rcc.epsilonMax
	if epsilonMax < 0 {
		epsilonMax = epsilon
	}
	builds := tree.NewBuildCounter()

	initStart := time.Now()
	rcc.Logf("Opening %s to read points...", dataPath)
	schema, points, err := csv.ReadPointsFromFilePath(dataPath, &csv.Options{
		Delimiter:     rune(rcc.delimiter[0]),
		TrueValue:     rcc.trueValue,
		SkipFirstLine: rcc.skipFirstLine,
	})
	if err != nil {
		return err
	}
	rcc.Logf("Read %d points with %d features", len(points), schema.Dimension())
	rng := rand.New(rand.NewSource(seed))
	var events []runner.Event
	var initialTreePoints []*pointset.Point
	if rcc.sliding() {
		initialTreePoints, events = runner.SlidingWindow(points, rcc.datasetSize, rcc.evalProbability, rng)
	} else {
		initialTreePoints, events = runner.RandomSampling(points, rcc.datasetSize, rcc.nbUpdates, rcc.evalProbability, rcc.insertProbability, rng)
	}
	rcc.Logf("Prepared %d events over an initial dataset of %d points", len(events), len(initialTreePoints))
	referenceTransmission := rcc.epsilonTransmission
	if referenceTransmission < 0 {
		referenceTransmission = epsilon
	}
	reference, err := tree.New(tree.Config{
		Dimension:           schema.Dimension(),
		Kinds:               schema.Kinds(),
		MaxHeight:           rcc.maxHeight,
		Epsilon:             epsilon,
		EpsilonTransmission: referenceTransmission,
		MinSplitPoints:      rcc.minSplitPoints,
		MinSplitGini:        rcc.minSplitGini,
		Builds:              builds,
	}, initialTreePoints)
	if err != nil {
		return err
	}
	initTime := time.Since(initStart)

	if !rcc.csvOutput {
		fmt.Print(reference.Render())
	}
	for currentEpsilon := epsilon; currentEpsilon <= epsilonMax; currentEpsilon += rcc.epsilonStep {
		transmission := rcc.epsilonTransmission
		if transmission < 0 {
			transmission = currentEpsilon
		}
		current := reference.CloneWithEpsilon(currentEpsilon, transmission)
		builds.Reset()
		iterStart := time.Now()
		result, err := runner.Run(events, current)
		if err != nil {
			return err
		}
		iterTime := time.Since(iterStart)
		if rcc.csvOutput {
			fmt.Printf("%d;%g;%d;%d;%d;%d;%g;%g;%d;%g\n",
				seed, currentEpsilon,
				result.TruePositive, result.TrueNegative, result.FalsePositive, result.FalseNegative,
				float64(initTime.Nanoseconds())/1e6, float64(iterTime.Nanoseconds())/1e6,
				builds.Value(), result.MeanTrainingError())
		} else {
			fmt.Printf("TP : %d; TN : %d\n", result.TruePositive, result.TrueNegative)
			fmt.Printf("FP : %d; FN : %d\n", result.FalsePositive, result.FalseNegative)
			fmt.Print(current.Render())
			fmt.Printf("Initialization time (ms) : %g\n", float64(initTime.Nanoseconds())/1e6)
			fmt.Printf("Iteration time (ms) : %g\n", float64(iterTime.Nanoseconds())/1e6)
			fmt.Printf("Nb builds : %d\n", builds.Value())
			fmt.Printf("Mean training error : %g\n", result.MeanTrainingError())
		}
	}
	return nil
}
