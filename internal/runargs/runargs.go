// Package runargs reads the named job arguments a workflow passes on the
// command line, in the `--NAME value` / `--NAME=value` form.
package runargs

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"price-pipeline/pkg/models"

	"github.com/spf13/pflag"
)

const (
	WorkflowName  = "WORKFLOW_NAME"
	WorkflowRunId = "WORKFLOW_RUN_ID"
	SourceBucket  = "SOURCE_BUCKET"
	SourceKey     = "SOURCE_KEY"
	EnvFile       = "env"
)

var ErrMissingArgument = errors.New("missing required argument")

// Parse reads the named arguments from argv. Flags that are not named, such as
// the bookkeeping flags a scheduler injects, are skipped along with their
// values. A named flag followed directly by another flag (or nothing) is
// read as empty. Positional arguments are ignored.
func Parse(argv []string, names ...string) (map[string]string, error) {
	flags := pflag.NewFlagSet("job", pflag.ContinueOnError)
	flags.ParseErrorsAllowlist.UnknownFlags = true
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	values := make(map[string]*string, len(names))
	for _, name := range names {
		if _, ok := values[name]; !ok {
			values[name] = flags.String(name, "", "")
		}
	}

	if err := flags.Parse(withEmptyValues(argv)); err != nil {
		return nil, fmt.Errorf("error parsing job arguments: %w", err)
	}

	args := make(map[string]string, len(values))
	for name, value := range values {
		args[name] = strings.TrimSpace(*value)
	}
	return args, nil
}

// withEmptyValues rewrites a bare `--NAME` that has no value after it to
// `--NAME=`, otherwise the flag parser would take the next flag as its value.
func withEmptyValues(argv []string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = arg
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 || strings.Contains(arg, "=") {
			continue
		}
		if i+1 == len(argv) || strings.HasPrefix(argv[i+1], "--") {
			out[i] = arg + "="
		}
	}
	return out
}

// Resolve returns the requested arguments, failing if any of them is absent or
// empty.
func Resolve(argv []string, names ...string) (map[string]string, error) {
	args, err := Parse(argv, names...)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range names {
		if args[name] == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingArgument, strings.Join(missing, ", "))
	}
	return args, nil
}

func RunContextFromArgs(argv []string) (models.RunContext, error) {
	args, err := Resolve(argv, WorkflowName, WorkflowRunId)
	if err != nil {
		return models.RunContext{}, err
	}
	return models.RunContext{
		WorkflowName: args[WorkflowName],
		RunId:        args[WorkflowRunId],
	}, nil
}

// SourceOverride returns the object named by --SOURCE_BUCKET and --SOURCE_KEY.
// Both must be given together; supplying only one is an error.
func SourceOverride(argv []string) (*models.ObjectRef, error) {
	args, err := Parse(argv, SourceBucket, SourceKey)
	if err != nil {
		return nil, err
	}
	bucket, key := args[SourceBucket], args[SourceKey]
	switch {
	case bucket == "" && key == "":
		return nil, nil
	case bucket == "":
		return nil, fmt.Errorf("%w: %s (required with %s)", ErrMissingArgument, SourceBucket, SourceKey)
	case key == "":
		return nil, fmt.Errorf("%w: %s (required with %s)", ErrMissingArgument, SourceKey, SourceBucket)
	}
	return &models.ObjectRef{Bucket: bucket, Key: key}, nil
}

// EnvFilePath returns the --env argument, or "" when it is not given.
func EnvFilePath(argv []string) (string, error) {
	args, err := Parse(argv, EnvFile)
	if err != nil {
		return "", err
	}
	return args[EnvFile], nil
}
