package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/0xRadioAc7iv/bitcask-format/core"
	"github.com/0xRadioAc7iv/bitcask-format/internal"
	"github.com/0xRadioAc7iv/bitcask-format/internal/lock"
	"github.com/0xRadioAc7iv/bitcask-format/internal/utils"
)

func main() {
	inputs := utils.HandleCLIInputs()

	cfg, err := internal.LoadConfig(inputs.ConfigPath)
	if err != nil {
		log.Fatal(err)
	}
	applyInputs(cfg, inputs)

	policy, err := core.ParseCorruptionPolicy(cfg.CorruptionPolicy)
	if err != nil {
		log.Fatal(err)
	}

	logger := cfg.NewLogger()

	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		log.Fatal(err)
	}

	lf, err := lock.LockDirectory(cfg.Directory)
	if err != nil {
		log.Fatal(err)
	}
	defer lock.UnlockDirectory(lf)

	lp, err := core.OpenLogPair(core.Options{
		DataPath:    cfg.DataPath(),
		HintPath:    cfg.HintPath(),
		Policy:      policy,
		SyncOnWrite: cfg.SyncOnWrite,
		Logger:      logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer lp.Close()

	fmt.Printf("Opened %v (hints: %v)\n", cfg.DataPath(), cfg.HintPath())
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	sh := &shell{pair: lp}
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("input error:", err)
			return
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if line == "exit" {
			return
		}

		cmd, args, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}

		fmt.Println(sh.execute(cmd, args))
	}
}

// applyInputs lets flags override values from the config file.
func applyInputs(cfg *internal.Config, inputs *utils.CLIInputs) {
	if inputs.Directory != "" {
		cfg.Directory = inputs.Directory
	}
	if inputs.DataFile != "" {
		cfg.DataFile = inputs.DataFile
	}
	if inputs.HintFile != "" {
		cfg.HintFile = inputs.HintFile
	}
	if inputs.Policy != "" {
		cfg.CorruptionPolicy = inputs.Policy
	}
}
