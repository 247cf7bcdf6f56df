package main

import (
	"github.com/spf13/cobra"

	"github.com/tracewell/remotedbg/pkg/cli"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List live sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator()
			if err != nil {
				return err
			}
			sessions := o.Sessions()
			rows := make([]cli.SessionRow, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, cli.SessionRow{
					ID:        s.ID,
					AgentID:   s.AgentID,
					DeviceID:  s.DeviceID,
					State:     string(s.State),
					CreatedAt: s.CreatedAt,
				})
			}
			cli.RenderSessions(rows)
			return nil
		},
	}
}
