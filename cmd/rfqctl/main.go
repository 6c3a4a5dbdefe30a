// Command rfqctl is a thin CLI client for the admin HTTP API: submit
// an RFQ, respond to one on the client's behalf, or check its status.
package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
)

var adminAddr string

func main() {
	root := &cobra.Command{
		Use:   "rfqctl",
		Short: "Submit and inspect structured-product RFQs",
	}
	root.PersistentFlags().StringVar(&adminAddr, "addr", "http://localhost:8080", "admin API base URL")

	root.AddCommand(submitCmd(), respondCmd(), statusCmd(), termSheetCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func submitCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new RFQ from a JSON request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			return postJSON(adminAddr+"/rfqs/", body)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the RFQ request JSON file")
	cmd.MarkFlagRequired("file")
	return cmd
}

func respondCmd() *cobra.Command {
	var rfqID, action, hash, message string
	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Respond to an outstanding term sheet (ACCEPT, REJECT, or REFRESH)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]string{"action": action, "term_sheet_hash": hash, "message": message})
			if err != nil {
				return err
			}
			return postJSON(fmt.Sprintf("%s/rfqs/%s/respond", adminAddr, rfqID), body)
		},
	}
	cmd.Flags().StringVar(&rfqID, "rfq-id", "", "RFQ identifier")
	cmd.Flags().StringVar(&action, "action", "", "ACCEPT, REJECT, or REFRESH")
	cmd.Flags().StringVar(&hash, "term-sheet-hash", "", "document hash from the outstanding term sheet (required for ACCEPT)")
	cmd.Flags().StringVar(&message, "message", "", "optional free-form message attached to the response")
	cmd.MarkFlagRequired("rfq-id")
	cmd.MarkFlagRequired("action")
	return cmd
}

func statusCmd() *cobra.Command {
	var rfqID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current status of an RFQ negotiation",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			resp, err := http.Get(fmt.Sprintf("%s/rfqs/%s/status", adminAddr, rfqID))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			fmt.Printf("%s (queried in %s)\n", body, humanize.RelTime(start, time.Now(), "ago", ""))
			return nil
		},
	}
	cmd.Flags().StringVar(&rfqID, "rfq-id", "", "RFQ identifier")
	cmd.MarkFlagRequired("rfq-id")
	return cmd
}

func termSheetCmd() *cobra.Command {
	var rfqID string
	cmd := &cobra.Command{
		Use:   "term-sheet",
		Short: "Print the outstanding term sheet, including the hash to echo back on ACCEPT",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(fmt.Sprintf("%s/rfqs/%s/term-sheet", adminAddr, rfqID))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&rfqID, "rfq-id", "", "RFQ identifier")
	cmd.MarkFlagRequired("rfq-id")
	return cmd
}

func postJSON(url string, body []byte) error {
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
