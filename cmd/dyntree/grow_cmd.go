package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/pbanos/dyntree"
	"github.com/pbanos/dyntree/dataset"
	"github.com/pbanos/dyntree/dataset/csv"
	"github.com/pbanos/dyntree/dataset/mongosource"
	"github.com/pbanos/dyntree/dataset/redissource"
	"github.com/pbanos/dyntree/dataset/sqlsource"
	"github.com/pbanos/dyntree/dataset/sqlsource/pgadapter"
	"github.com/pbanos/dyntree/dataset/sqlsource/sqlite3adapter"
	"github.com/pbanos/dyntree/feature/yaml"
	"github.com/spf13/cobra"
	mgo "gopkg.in/mgo.v2"
	redis "gopkg.in/redis.v5"
)

type growCmdConfig struct {
	*rootCmdConfig
	dataInput           string
	metadataInput       string
	label               string
	trueValue           string
	delimiter           string
	skipFirstLine       bool
	maxHeight           int
	epsilon             float64
	epsilonTransmission float64
	minSplitPoints      int
	minSplitGini        float64
	concurrency         int
	ctx                 context.Context
}

func growCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &growCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow a tree from a point source and print it",
		Long: `Grow a dynamic tree from a point source and print its rendering.

The input may be a CSV points file (default STDIN), a PostgreSQL or MongoDB or
redis connection URL, or the path to an SQLite3 (.db) file. Sources other than
CSV carry no schema header, so they require a YAML metadata file describing
the features with the --metadata flag, plus the --label flag naming the label
column or property.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			src, err := config.pointSource()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			epsilon := config.epsilon
			if epsilon < 0 {
				epsilon = dyntree.DefaultEpsilon(config.minSplitPoints, config.minSplitGini)
			}
			transmission := config.epsilonTransmission
			if transmission < 0 {
				transmission = epsilon
			}
			t, err := dyntree.Grow(config.Context(), src, dyntree.Params{
				MaxHeight:           config.maxHeight,
				Epsilon:             epsilon,
				EpsilonTransmission: transmission,
				MinSplitPoints:      config.minSplitPoints,
				MinSplitGini:        config.minSplitGini,
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			config.Logf("Grown a tree over %d points with a training error of %d", t.Size(), t.TrainingError())
			fmt.Print(t.Render())
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL, MongoDB or redis connection URL with points to grow the tree from (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVar(&(config.metadataInput), "metadata", "", "path to a YML file with the feature schema of the points, required for SQL, MongoDB and redis inputs")
	cmd.PersistentFlags().StringVarP(&(config.label), "label", "l", "label", "name of the label column or property on SQL, MongoDB and redis inputs")
	cmd.PersistentFlags().StringVar(&(config.trueValue), "true-value", "1", "value of the label that will be considered as true")
	cmd.PersistentFlags().StringVarP(&(config.delimiter), "delimiter", "d", ";", "character that separates data in CSV and redis records")
	cmd.PersistentFlags().BoolVarP(&(config.skipFirstLine), "skip", "s", false, "indicates that a CSV file has a header line before the one describing field types")
	cmd.PersistentFlags().IntVar(&(config.maxHeight), "max-height", 5, "max number of vertices between root and leaf (included)")
	cmd.PersistentFlags().Float64VarP(&(config.epsilon), "epsilon", "e", -1, "epsilon of the algorithm, determining when to rebuild a node (if -1: min(min-split-gini/6, 1/(min-split-points+2)))")
	cmd.PersistentFlags().Float64VarP(&(config.epsilonTransmission), "epsilon-transmission", "w", -1, "epsilon to apply when choosing which layer to recompute (if -1: epsilon)")
	cmd.PersistentFlags().IntVarP(&(config.minSplitPoints), "min-split-points", "m", 0, "minimal number of points in a vertex to make it have children")
	cmd.PersistentFlags().Float64VarP(&(config.minSplitGini), "min-split-gini", "g", 0, "minimal gini value of the point set of a vertex to make it have children")
	cmd.PersistentFlags().IntVar(&(config.concurrency), "concurrency", 1, "limit to concurrent DB connections opened at a time (defaults to 1)")
	return cmd
}

func (gcc *growCmdConfig) Validate() error {
	if len(gcc.delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", gcc.delimiter)
	}
	if gcc.maxHeight < 1 {
		return fmt.Errorf("max height must be at least 1, got %d", gcc.maxHeight)
	}
	if gcc.concurrency < 1 {
		return fmt.Errorf("number of concurrent DB connections needs to be greater than 0")
	}
	if gcc.externalInput() {
		if gcc.metadataInput == "" {
			return fmt.Errorf("required metadata flag was not set for input %q", gcc.dataInput)
		}
		if gcc.label == "" {
			return fmt.Errorf("required label flag was not set for input %q", gcc.dataInput)
		}
	}
	return nil
}

func (gcc *growCmdConfig) externalInput() bool {
	return strings.HasPrefix(gcc.dataInput, "postgresql://") ||
		strings.HasPrefix(gcc.dataInput, "mongodb://") ||
		strings.HasPrefix(gcc.dataInput, "redis://") ||
		strings.HasSuffix(gcc.dataInput, ".db")
}

func (gcc *growCmdConfig) pointSource() (dataset.Source, error) {
	if !gcc.externalInput() {
		gcc.Logf("Reading points from %s...", gcc.csvInputName())
		return csv.ReadSource(gcc.dataInput, &csv.Options{
			Delimiter:     rune(gcc.delimiter[0]),
			TrueValue:     gcc.trueValue,
			SkipFirstLine: gcc.skipFirstLine,
		})
	}
	schema, err := yaml.ReadSchemaFromFile(gcc.metadataInput)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(gcc.dataInput, "postgresql://") {
		gcc.Logf("Creating PostgreSQL adapter for url %s to read points...", gcc.dataInput)
		adapter, err := pgadapter.New(gcc.dataInput)
		if err != nil {
			return nil, err
		}
		return sqlsource.Open(adapter, schema, gcc.label, gcc.trueValue)
	}
	if strings.HasPrefix(gcc.dataInput, "mongodb://") {
		gcc.Logf("Opening point source over MongoDB at url %s...", gcc.dataInput)
		msession, err := mgo.Dial(gcc.dataInput)
		if err != nil {
			return nil, err
		}
		return mongosource.Open(msession, schema, gcc.label, gcc.trueValue), nil
	}
	if strings.HasPrefix(gcc.dataInput, "redis://") {
		gcc.Logf("Opening point source over redis at url %s...", gcc.dataInput)
		rc, prefix, err := redisClient(gcc.dataInput)
		if err != nil {
			return nil, err
		}
		return redissource.New(rc, prefix, schema, gcc.delimiter, gcc.trueValue), nil
	}
	gcc.Logf("Creating SQLite3 adapter for file %s to read points...", gcc.dataInput)
	adapter, err := sqlite3adapter.New(gcc.dataInput, gcc.concurrency)
	if err != nil {
		return nil, err
	}
	return sqlsource.Open(adapter, schema, gcc.label, gcc.trueValue)
}

func (gcc *growCmdConfig) csvInputName() string {
	if gcc.dataInput == "" {
		return "STDIN"
	}
	return gcc.dataInput
}

func (gcc *growCmdConfig) Context() context.Context {
	if gcc.ctx == nil {
		gcc.ctx = context.Background()
	}
	return gcc.ctx
}

// redisClient parses a redis://[:password@]host[:port]/prefix URL into a
// client and the key prefix of the point list. The whole URL path, inner
// slashes included, is the prefix; no database number is read from it,
// so the client always uses the server's default DB.
func redisClient(redisURL string) (*redis.Client, string, error) {
	u, err := url.Parse(redisURL)
	if err != nil {
		return nil, "", fmt.Errorf("parsing redis url %q: %v", redisURL, err)
	}
	addr := u.Host
	if !strings.Contains(addr, ":") {
		addr = addr + ":6379"
	}
	var password string
	if u.User != nil {
		password, _ = u.User.Password()
	}
	prefix := strings.Trim(u.Path, "/")
	if prefix == "" {
		return nil, "", fmt.Errorf("redis url %q names no key prefix", redisURL)
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password}), prefix, nil
}
