package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
	"github.com/tracewell/remotedbg/pkg/orchestrator"
)

var healthInterval time.Duration

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON-line request/response loop over stdin/stdout",
		Long: `serve reads one JSON request object per line from stdin and writes one
JSON response object per line to stdout. Every request carries an "op" field
naming start_session, send_command, convert_address, or stop_session.

This is a convenience binding for manual testing and scripted callers, not a
contractual RPC transport — embed pkg/orchestrator directly for anything
that needs a real wire protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator()
			if err != nil {
				return fmt.Errorf("build orchestrator: %w", err)
			}
			defer o.Shutdown()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if healthInterval > 0 {
				o.StartHealthChecks(ctx, healthInterval)
			}

			return runServeLoop(ctx, o, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&healthInterval, "health-interval", 30*time.Second, "device liveness poll interval; 0 disables")
	return cmd
}

// request is the envelope for every line on stdin. Unused fields for a given
// op are ignored.
type request struct {
	Op         string `json:"op"`
	AgentID    string `json:"agent_id"`
	RequestID  string `json:"request_id"`
	TimeoutMS  int64  `json:"timeout_ms"`
	SessionID  string `json:"session_id"`
	Command    string `json:"command"`
	IDAAddress uint64 `json:"ida_address"`
}

// response is the envelope written for every request. Fields irrelevant to
// the originating op are omitted via omitempty.
type response struct {
	Status         string `json:"status"`
	RequestID      string `json:"request_id"`
	Error          string `json:"error,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	Output         string `json:"output,omitempty"`
	IDAAddress     uint64 `json:"ida_address,omitempty"`
	RuntimeAddress uint64 `json:"runtime_address,omitempty"`
	IDABase        uint64 `json:"ida_base,omitempty"`
	RuntimeBase    uint64 `json:"runtime_base,omitempty"`
	Offset         uint64 `json:"offset,omitempty"`
}

func runServeLoop(ctx context.Context, o *orchestrator.Orchestrator, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			encoder.Encode(response{Status: "error", Error: fmt.Sprintf("malformed request: %v", err)})
			continue
		}
		encoder.Encode(dispatch(ctx, o, req))
	}
	return scanner.Err()
}

func dispatch(ctx context.Context, o *orchestrator.Orchestrator, req request) response {
	switch req.Op {
	case "start_session":
		return doStartSession(ctx, o, req)
	case "send_command":
		return doSendCommand(o, req)
	case "convert_address":
		return doConvertAddress(o, req)
	case "stop_session":
		return doStopSession(o, req)
	default:
		return response{Status: "error", RequestID: req.RequestID, Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

func doStartSession(ctx context.Context, o *orchestrator.Orchestrator, req request) response {
	timeout := time.Duration(req.TimeoutMS) * time.Millisecond
	if req.TimeoutMS < 0 {
		timeout = orchestrator.Infinite
	}
	sessionID, err := o.StartSession(ctx, req.AgentID, req.RequestID, timeout)
	if err != nil {
		return errResponse(req.RequestID, err)
	}
	return response{Status: "success", RequestID: req.RequestID, SessionID: sessionID}
}

func doSendCommand(o *orchestrator.Orchestrator, req request) response {
	output, err := o.SendCommand(req.SessionID, req.AgentID, req.Command)
	if err != nil {
		return errResponse(req.RequestID, err)
	}
	return response{Status: "success", RequestID: req.RequestID, Output: output}
}

func doConvertAddress(o *orchestrator.Orchestrator, req request) response {
	result, err := o.ConvertAddress(req.SessionID, req.AgentID, req.IDAAddress)
	if err != nil {
		return errResponse(req.RequestID, err)
	}
	return response{
		Status:         "success",
		RequestID:      req.RequestID,
		IDAAddress:     result.IDAAddress,
		RuntimeAddress: result.RuntimeAddress,
		IDABase:        result.IDABase,
		RuntimeBase:    result.RuntimeBase,
		Offset:         result.Offset,
	}
}

func doStopSession(o *orchestrator.Orchestrator, req request) response {
	if err := o.StopSession(req.SessionID, req.AgentID); err != nil {
		return errResponse(req.RequestID, err)
	}
	return response{Status: "success", RequestID: req.RequestID}
}

func errResponse(requestID string, err error) response {
	obs.WithField("kind", dbgerr.KindOf(err)).Warnf("remotedbgd: request failed: %v", err)
	return response{Status: "error", RequestID: requestID, Error: err.Error()}
}
