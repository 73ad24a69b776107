package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/raceviz/race-view-service-go/log"
)

var (
	addr     string
	jsonPath string
)

func NewClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "commands against a running server",
	}
	cmd.PersistentFlags().StringVar(&addr,
		"addr",
		"http://localhost:8000",
		"base URL of the server")
	cmd.PersistentFlags().StringVar(&jsonPath,
		"path",
		"",
		"JSONPath expression applied to the response")
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newInsightCmd())
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "shows the current race status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(cmd.Context(), http.MethodGet, "/api/race-status")
		},
	}
}

func newInsightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insight <driver>",
		Short: "fetches the analysis report for a driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(cmd.Context(), http.MethodPost,
				"/api/driver-insight/"+url.PathEscape(args[0]))
		},
	}
}

func printResponse(ctx context.Context, method, path string) error {
	logger := log.DevLogger(os.Stderr, log.InfoLevel)
	log.ResetDefault(logger)

	cli := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, method, addr+path, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := cli.Do(req)
	if err != nil {
		log.Error("request failed", log.ErrorField(err))
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	obj, err := oj.Parse(body)
	if err != nil {
		return fmt.Errorf("unexpected response: %w", err)
	}
	if jsonPath != "" {
		path, err := jp.ParseString(jsonPath)
		if err != nil {
			return fmt.Errorf("invalid path expression: %w", err)
		}
		obj = path.Get(obj)
	}
	fmt.Println(oj.JSON(obj, 2))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server responded with status %d", resp.StatusCode)
	}
	return nil
}
