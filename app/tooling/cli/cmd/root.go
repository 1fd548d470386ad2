// Package cmd contains the node admin commands.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	nodeURL string
	timeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:5000", "Url of the node.")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 2*time.Minute, "Time to wait for the node to answer.")
}

var rootCmd = &cobra.Command{
	Use:          "cli",
	Short:        "Administer a proof of work node",
	SilenceUsage: true,
}

// Execute runs the command selected on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// call sends the request to the node and prints the document the node
// responds with. A non 2xx status is returned as an error after printing.
func call(cmd *cobra.Command, method string, path string, body any) error {
	client := resty.New().
		SetTimeout(timeout).
		SetBaseURL(strings.TrimSuffix(nodeURL, "/")).
		SetHeader("Accept", "application/json")

	req := client.R().SetContext(cmd.Context())
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("calling node: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, resp.Body(), "", "  "); err != nil {
		out.Reset()
		out.Write(resp.Body())
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())

	if resp.IsError() {
		return fmt.Errorf("node returned %s", resp.Status())
	}

	return nil
}
