package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tracewell/remotedbg/pkg/cli"
	"github.com/tracewell/remotedbg/pkg/sessionaudit"
)

func newAuditCmd() *cobra.Command {
	var (
		device      string
		agent       string
		since       string
		successOnly bool
		failureOnly bool
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the session audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := sessionaudit.NewFileLogger(auditPath, sessionaudit.RotationConfig{})
			if err != nil {
				return err
			}
			defer logger.Close()

			filter := sessionaudit.Filter{
				Device:      device,
				Agent:       agent,
				SuccessOnly: successOnly,
				FailureOnly: failureOnly,
				Limit:       limit,
			}
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return err
				}
				filter.Since = t
			}

			events, err := logger.Query(filter)
			if err != nil {
				return err
			}
			cli.RenderAuditEvents(events)
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "filter by device id")
	cmd.Flags().StringVar(&agent, "agent", "", "filter by agent id")
	cmd.Flags().StringVar(&since, "since", "", "filter to events at or after this RFC3339 timestamp")
	cmd.Flags().BoolVar(&successOnly, "success-only", false, "show only successful operations")
	cmd.Flags().BoolVar(&failureOnly, "failure-only", false, "show only failed operations")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum events to return; 0 means unbounded")
	return cmd
}
