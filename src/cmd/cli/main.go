// Command ldctl drives a running light-dict engine over the session bus.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"light-dict/src/api"
	"light-dict/src/config"
	"light-dict/src/windowing"
)

type cliOptions struct {
	busName    string
	envFile    string
	jsonOutput bool
	timeout    time.Duration
}

// engineClient is what ldctl needs from api.Client.
type engineClient interface {
	Toggle(ctx context.Context) error
	Run(ctx context.Context, kind, text, info string) error
	RunAt(ctx context.Context, kind, text, info string, rect windowing.Rect) error
	OCR(ctx context.Context, params string) error
	Get(ctx context.Context, props ...string) ([][]int32, error)
	Close() error
}

var dial = func(name string) (engineClient, error) { return api.Dial(name) }

func main() {
	if err := runWithArgs(os.Args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string, out io.Writer) error {
	if len(args) == 0 {
		args = []string{"ldctl"}
	}
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetOut(out)
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ldctl",
		Short:         "Control a running light-dict engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.busName, "bus-name", "", "Engine bus name (default from BUS_NAME or "+config.DefaultBusName+")")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to .env file (highest precedence)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "Call timeout")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "toggle",
			Short: "Flip the trigger style between swift and popup",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClient(cmd, opts, func(ctx context.Context, c engineClient) error {
					return c.Toggle(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "run KIND TEXT [INFO]",
			Short: "Run swift[:name], popup, display or auto on TEXT at the pointer",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				info := ""
				if len(args) == 3 {
					info = args[2]
				}
				return withClient(cmd, opts, func(ctx context.Context, c engineClient) error {
					return c.Run(ctx, args[0], args[1], info)
				})
			},
		},
		&cobra.Command{
			Use:   "run-at KIND TEXT INFO X Y W H",
			Short: "Run KIND on TEXT anchored at a rectangle",
			Args:  cobra.ExactArgs(7),
			RunE: func(cmd *cobra.Command, args []string) error {
				rect, err := parseRect(args[3:])
				if err != nil {
					return err
				}
				return withClient(cmd, opts, func(ctx context.Context, c engineClient) error {
					return c.RunAt(ctx, args[0], args[1], args[2], rect)
				})
			},
		},
		&cobra.Command{
			Use:   "ocr [PARAMS]",
			Short: "Start the OCR helper, optionally replacing its arguments",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				params := ""
				if len(args) == 1 {
					params = args[0]
				}
				return withClient(cmd, opts, func(ctx context.Context, c engineClient) error {
					return c.OCR(ctx, params)
				})
			},
		},
		newGetCmd(opts),
	)
	return cmd
}

func newGetCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get PROP...",
		Short: "Query display, pointer or focused geometry (OCR helper only)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c engineClient) error {
				values, err := c.Get(ctx, args...)
				if err != nil {
					return err
				}
				return printValues(cmd.OutOrStdout(), args, values, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

func withClient(cmd *cobra.Command, opts *cliOptions, fn func(context.Context, engineClient) error) error {
	name, err := busName(opts)
	if err != nil {
		return err
	}
	c, err := dial(name)
	if err != nil {
		return err
	}
	defer c.Close()
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	return fn(ctx, c)
}

func busName(opts *cliOptions) (string, error) {
	if opts.busName != "" {
		return opts.busName, nil
	}
	cfg, err := config.LoadWithOptions(config.LoadOptions{EnvFileOverride: opts.envFile})
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg.BusName, nil
}

func parseRect(args []string) (windowing.Rect, error) {
	var v [4]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return windowing.Rect{}, fmt.Errorf("rect value %q is not an integer", a)
		}
		v[i] = n
	}
	return windowing.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func printValues(w io.Writer, props []string, values [][]int32, jsonOutput bool) error {
	if jsonOutput {
		obj := make(map[string][]int32, len(props))
		for i, p := range props {
			if i < len(values) {
				obj[p] = values[i]
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	for i, p := range props {
		if i >= len(values) {
			break
		}
		nums := make([]string, len(values[i]))
		for j, n := range values[i] {
			nums[j] = strconv.Itoa(int(n))
		}
		fmt.Fprintln(w, strings.TrimSpace(p+" "+strings.Join(nums, " ")))
	}
	return nil
}
