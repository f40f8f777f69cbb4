package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
)

func newConvertCmd() *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert IMAGE",
		Short: "Convert an image to tensor bytes the way image_to_tensor does",
		Args:  cobra.ExactArgs(1),
		RunE:  convertHandler,
	}
	convertCmd.Flags().Uint32("width", 224, "Output width in pixels")
	convertCmd.Flags().Uint32("height", 224, "Output height in pixels")
	convertCmd.Flags().String("precision", "f32", "Element type (f16, f32, u8, i32)")
	convertCmd.Flags().Bool("rgb", false, "Emit RGB instead of BGR channel order")
	convertCmd.Flags().Bool("planar", false, "Emit one plane per channel (CHW) instead of interleaved (HWC)")
	convertCmd.Flags().StringP("output", "o", "", "Write the tensor bytes to this file")
	return convertCmd
}

func convertHandler(cmd *cobra.Command, args []string) error {
	width, _ := cmd.Flags().GetUint32("width")
	height, _ := cmd.Flags().GetUint32("height")
	precisionName, _ := cmd.Flags().GetString("precision")
	precision, err := entities.ParseTensorType(precisionName)
	if err != nil {
		return err
	}

	opts := []hostfuncs.ImageOption{hostfuncs.WithPathPolicy(hostfuncs.AllowAll())}
	if rgb, _ := cmd.Flags().GetBool("rgb"); rgb {
		opts = append(opts, hostfuncs.WithColorOrder(hostfuncs.ColorRGB))
	}
	if planar, _ := cmd.Flags().GetBool("planar"); planar {
		opts = append(opts, hostfuncs.WithMemoryLayout(hostfuncs.LayoutPlanar))
	}

	data, err := hostfuncs.NewImage(opts...).Convert(args[0], width, height, precision)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // tensor dumps are not secret
			return fmt.Errorf("failed to write tensor: %w", err)
		}
		fmt.Fprintf(out, "wrote %d bytes (%dx%dx3 %s) to %s\n", len(data), width, height, precision, path)
		return nil
	}
	fmt.Fprintf(out, "%d bytes (%dx%dx3 %s)\n", len(data), width, height, precision)
	return nil
}
