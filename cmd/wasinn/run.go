package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wasinn-dev/wasinn-sdk/config"
	"github.com/wasinn-dev/wasinn-sdk/host"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run MODULE.wasm [ARGS...]",
		Short: "Run a WASI command with the wasi_ephemeral_nn host module",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runHandler,
	}
	runCmd.Flags().SetInterspersed(false)
	runCmd.Flags().StringP("config", "c", "", "Host configuration file (YAML)")
	runCmd.Flags().String("log-level", "", "Override the log level (debug, info, warn, error)")
	runCmd.Flags().Bool("image", false, "Export image_to_tensor and convert_image")
	runCmd.Flags().StringSlice("image-root", nil, "Directory guests may read images from (repeatable)")
	runCmd.Flags().StringArrayP("env", "e", nil, "Guest environment variable KEY=VALUE (repeatable)")
	runCmd.Flags().StringArrayP("mount", "m", nil, "Mount HOST:GUEST[:ro] into the guest (repeatable)")
	return runCmd
}

func runHandler(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}

	wasm, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read guest module: %w", err)
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	ctx := cmd.Context()
	exec, err := host.NewExecutorFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)

	opts := host.RunOptionsFromConfig(cfg.Guest)
	opts.Args = append(opts.Args, args[1:]...)
	opts.Stdin = cmd.InOrStdin()
	opts.Stdout = cmd.OutOrStdout()
	opts.Stderr = cmd.ErrOrStderr()

	code, err := exec.Run(ctx, wasm, opts)
	if err != nil {
		return err
	}
	if code != 0 {
		return &exitCodeError{code: code}
	}
	return nil
}

// runConfig loads the config file, if any, and applies flag overrides.
func runConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if enabled, _ := cmd.Flags().GetBool("image"); enabled {
		cfg.Image.Enabled = true
	}
	if roots, _ := cmd.Flags().GetStringSlice("image-root"); len(roots) > 0 {
		cfg.Image.Roots = roots
	}

	envs, _ := cmd.Flags().GetStringArray("env")
	for _, kv := range envs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env %q: want KEY=VALUE", kv)
		}
		if cfg.Guest.Env == nil {
			cfg.Guest.Env = map[string]string{}
		}
		cfg.Guest.Env[k] = v
	}

	mounts, _ := cmd.Flags().GetStringArray("mount")
	for _, spec := range mounts {
		m, err := parseMount(spec)
		if err != nil {
			return nil, err
		}
		cfg.Guest.Mounts = append(cfg.Guest.Mounts, m)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseMount(spec string) (config.Mount, error) {
	parts := strings.Split(spec, ":")
	switch {
	case len(parts) == 2:
		return config.Mount{Host: parts[0], Guest: parts[1]}, nil
	case len(parts) == 3 && parts[2] == "ro":
		return config.Mount{Host: parts[0], Guest: parts[1], ReadOnly: true}, nil
	default:
		return config.Mount{}, fmt.Errorf("invalid --mount %q: want HOST:GUEST[:ro]", spec)
	}
}
