package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wasinn-dev/wasinn-sdk/backend/echo"
	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
)

// signatures lists parameter names of each import, in ABI order.
var signatures = map[string]string{
	hostfuncs.FuncLoad:                 "builder_ptr, builder_len, encoding, target, out_graph",
	hostfuncs.FuncInitExecutionContext: "graph, out_context",
	hostfuncs.FuncSetInput:             "context, index, tensor_ptr",
	hostfuncs.FuncCompute:              "context",
	hostfuncs.FuncGetOutput:            "context, index, out_buffer, out_buffer_max, out_bytes_written",
	hostfuncs.FuncImageToTensor:        "path_ptr, path_len, width, height, precision, out_buffer, out_buffer_max",
	hostfuncs.FuncConvertImage:         "path_ptr, path_len, width, height, precision, out_buffer, out_buffer_max, out_bytes_written",
}

func newABICmd() *cobra.Command {
	abiCmd := &cobra.Command{
		Use:   "abi",
		Short: "Print the wasi_ephemeral_nn imports, enums and status codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeABI(cmd.OutOrStdout())
		},
	}
	return abiCmd
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func writeABI(w io.Writer) error {
	nn := hostfuncs.NewNN(echo.New())
	funcs := append(nn.Funcs(), hostfuncs.NewImage().Funcs()...)

	fmt.Fprintln(w, "IMPORTS (module wasi_ephemeral_nn, all i32, result i32 status)")
	table := newTable(w, "NAME", "PARAMS", "SIGNATURE")
	for _, fn := range funcs {
		table.Append([]string{fn.Name, strconv.Itoa(fn.Params), signatures[fn.Name]})
	}
	table.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "ENUMS")
	table = newTable(w, "TYPE", "VALUE", "NAME")
	for e := entities.EncodingOpenVINO; e.Valid(); e++ {
		table.Append([]string{"graph_encoding", strconv.Itoa(int(e)), e.String()})
	}
	for t := entities.TargetCPU; t.Valid(); t++ {
		table.Append([]string{"execution_target", strconv.Itoa(int(t)), t.String()})
	}
	for t := entities.TensorF16; t.Valid(); t++ {
		table.Append([]string{"tensor_type", strconv.Itoa(int(t)), t.String()})
	}
	table.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "STATUS CODES")
	table = newTable(w, "CODE", "NAME")
	for e := hostfuncs.ErrnoSuccess; e <= hostfuncs.ErrnoNotFound; e++ {
		table.Append([]string{strconv.Itoa(int(e)), e.String()})
	}
	table.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "LAYOUTS (little-endian u32 words)")
	table = newTable(w, "RECORD", "BYTES", "FIELDS")
	table.Append([]string{"graph_builder", "8", "ptr, len"})
	table.Append([]string{"tensor", "20", "dims_ptr, dims_len, type, data_ptr, data_len"})
	table.Render()
	return nil
}
