package cmd

import (
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
	"github.com/spf13/cobra"
)

var keyPath string

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate the key file that names a node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := identity.GenerateKeyFile(keyPath)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "key saved to %s for node %s\n", keyPath, address)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genkeyCmd)
	genkeyCmd.Flags().StringVarP(&keyPath, "path", "p", "zblock/node.ecdsa", "Path of the key file to write.")
}
