package utils

import (
	"errors"
	"flag"
	"strings"

	"github.com/kballard/go-shellquote"
)

const DefaultConfigPath = "recordctl.yaml"

// CLIInputs holds the flags given to recordctl. Empty strings mean the flag
// was not set and the config file value applies.
type CLIInputs struct {
	ConfigPath string
	Directory  string
	DataFile   string
	HintFile   string
	Policy     string
}

func HandleCLIInputs() *CLIInputs {
	inputs := &CLIInputs{}

	flag.StringVar(&inputs.ConfigPath, "config", DefaultConfigPath, "Path to a YAML config file")
	flag.StringVar(&inputs.Directory, "dir", "", "Directory holding the data log and hint stream")
	flag.StringVar(&inputs.DataFile, "data", "", "Data log file name")
	flag.StringVar(&inputs.HintFile, "hint", "", "Hint stream file name")
	flag.StringVar(&inputs.Policy, "policy", "", "Corruption policy on open: stop or skip")
	flag.Parse()

	return inputs
}

// SplitStringIntoCommandAndArguments splits a shell-style input line into a
// lower-cased command name and its arguments. Quoted arguments may contain
// spaces.
func SplitStringIntoCommandAndArguments(line string) (string, []string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", nil, err
	}

	if len(words) == 0 {
		return "", nil, errors.New("empty command")
	}

	return strings.ToLower(words[0]), words[1:], nil
}
