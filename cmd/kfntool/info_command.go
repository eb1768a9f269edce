package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/EchoTools/kfntools/pkg/kfn"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.kfn>",
		Short: "Show the headers and subfiles of a KFN file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := kfn.ReadFile(args[0])
			if err != nil {
				return err
			}
			ctx.loggerFor().Debug("read container", "path", args[0], "subfiles", c.SubfileCount())
			printInfo(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func printInfo(out io.Writer, c *kfn.Container) {
	headerRows := make([][]string, 0, c.Headers.Len())
	for _, e := range c.Headers.Entries() {
		headerRows = append(headerRows, []string{e.Tag.String(), e.Value.Kind.String(), e.Value.String()})
	}
	fmt.Fprintln(out, renderTable([]string{"Tag", "Kind", "Value"}, headerRows, nil))

	subfileRows := make([][]string, 0, c.SubfileCount())
	for i, sf := range c.Subfiles {
		subfileRows = append(subfileRows, []string{
			strconv.Itoa(i),
			displayName(sf.Name),
			sf.Type.String(),
			strconv.FormatUint(uint64(sf.Length), 10),
			strconv.Itoa(len(sf.Data)),
			yesNo(sf.Encrypted),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Name", "Type", "Length", "Stored", "Encrypted"},
		subfileRows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))

	encryption := "none"
	if !c.HasZeroKey() && c.Key() != nil {
		encryption = "AES-128 ECB"
	}
	fmt.Fprintf(out, "%d subfiles, %d payload bytes, encryption: %s\n", c.SubfileCount(), c.PayloadSize(), encryption)
}
