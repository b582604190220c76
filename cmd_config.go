package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/provider"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
	}

	var checkModel string
	check := &cobra.Command{
		Use:   "check",
		Short: "Check that the configured provider responds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			p, err := provider.FromConfig(cfg)
			if err != nil {
				return err
			}
			if err := prepareProvider(cmd.Context(), p, checkModel); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is reachable (model %s)\n", cfg.Provider.Type, p.GetModel())
			return nil
		},
	}
	check.Flags().StringVar(&checkModel, "model", "", "model to check instead of the configured one")

	cmd.AddCommand(
		check,
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change a setting in config.toml, e.g. agent.max_turns 30",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return config.UpdateSetting(cfg.DataDir(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "set-key PROVIDER",
			Short: "Store a provider API key in the OS keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id := strings.ToLower(args[0])
				if !config.RequiresAPIKey(id) {
					return fmt.Errorf("%s does not use an API key", id)
				}
				key, err := readSecret(fmt.Sprintf("%s API key: ", id))
				if err != nil {
					return err
				}
				if key == "" {
					return fmt.Errorf("no key entered")
				}
				return config.StoreAPIKey(id, key)
			},
		},
		&cobra.Command{
			Use:   "delete-key PROVIDER",
			Short: "Remove a provider API key from the OS keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return config.DeleteAPIKey(strings.ToLower(args[0]))
			},
		},
	)
	return cmd
}

// readSecret reads a line without echo when stdin is a terminal, so keys
// can also be piped in.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
