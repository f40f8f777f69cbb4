package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/postprocess"
)

func newTopCmd() *cobra.Command {
	topCmd := &cobra.Command{
		Use:   "top OUTPUT",
		Short: "Rank the classes of a raw output tensor dumped by a guest",
		Args:  cobra.ExactArgs(1),
		RunE:  topHandler,
	}
	topCmd.Flags().String("type", "f32", "Element type of the tensor (f16, f32, u8, i32)")
	topCmd.Flags().IntP("count", "k", 5, "Number of classes to print")
	topCmd.Flags().String("labels", "", "Labels file, one per line")
	topCmd.Flags().Bool("softmax", false, "Apply softmax before ranking")
	return topCmd
}

func topHandler(cmd *cobra.Command, args []string) error {
	typeName, _ := cmd.Flags().GetString("type")
	typ, err := entities.ParseTensorType(typeName)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read output tensor: %w", err)
	}
	if len(data)%typ.ByteWidth() != 0 {
		return fmt.Errorf("output size %d is not a multiple of %s width %d", len(data), typ, typ.ByteWidth())
	}

	var labels []string
	if path, _ := cmd.Flags().GetString("labels"); path != "" {
		if labels, err = postprocess.LoadLabels(path); err != nil {
			return err
		}
	}

	k, _ := cmd.Flags().GetInt("count")
	softmax, _ := cmd.Flags().GetBool("softmax")
	tensor := entities.NewTensor([]uint32{uint32(len(data) / typ.ByteWidth())}, typ, data) //nolint:gosec // G115: bounded by file size
	top, err := postprocess.Classify(tensor, k, labels, softmax)
	if err != nil {
		return err
	}

	table := newTable(cmd.OutOrStdout(), "RANK", "INDEX", "SCORE", "LABEL")
	for i, p := range top {
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(p.Index),
			strconv.FormatFloat(float64(p.Score), 'f', 4, 32),
			p.Label,
		})
	}
	table.Render()
	return nil
}
