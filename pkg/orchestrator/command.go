package orchestrator

import (
	"strings"
	"time"

	"github.com/tracewell/remotedbg/pkg/dbgerr"
	"github.com/tracewell/remotedbg/pkg/ptydriver"
	"github.com/tracewell/remotedbg/pkg/sessionaudit"
)

// blockedCommandSubstring would be interpreted by the debugger as a
// local-shell escape, confusing host and target; rejecting it is a
// non-bypassable safety rail, not a user preference.
const blockedCommandSubstring = "platform shell"

// SendCommand validates session ownership, rejects any command the debugger
// would interpret as a local-shell escape without contacting the remote, and
// otherwise writes the command and reads to the next prompt.
func (o *Orchestrator) SendCommand(sessionID, agentID, command string) (string, error) {
	sess, err := o.lookupSession(sessionID, agentID)
	if err != nil {
		return "", err
	}

	if strings.Contains(command, blockedCommandSubstring) {
		err := dbgerr.New(dbgerr.Rejected, "orchestrator.send_command", errBlockedCommand)
		o.audit(sessionaudit.NewEvent(agentID, sessionaudit.OpSessionCommand).
			WithSession(sessionID).WithDevice(sess.DeviceID).WithCommand(command).WithError(err))
		return "", err
	}

	start := time.Now()
	if err := sess.driver.Write(command); err != nil {
		o.audit(sessionaudit.NewEvent(agentID, sessionaudit.OpSessionCommand).
			WithSession(sessionID).WithDevice(sess.DeviceID).WithCommand(command).WithError(err))
		return "", err
	}

	output := sess.driver.ReadToPrompt(ptydriver.DefaultReadTimeout)
	o.audit(sessionaudit.NewEvent(agentID, sessionaudit.OpSessionCommand).
		WithSession(sessionID).WithDevice(sess.DeviceID).WithCommand(command).
		WithDuration(time.Since(start)).WithSuccess())
	return output, nil
}

// AddressResult is the resolved address translation plus the inputs used to
// compute it, matching the convert_address response surface.
type AddressResult struct {
	IDAAddress     uint64
	RuntimeAddress uint64
	IDABase        uint64
	RuntimeBase    uint64
	Offset         uint64
}

// ConvertAddress validates session ownership and translates a static
// analysis address into the attached process's runtime address space:
// runtime = runtime_base + (ida_address - static_base).
func (o *Orchestrator) ConvertAddress(sessionID, agentID string, idaAddress uint64) (AddressResult, error) {
	sess, err := o.lookupSession(sessionID, agentID)
	if err != nil {
		return AddressResult{}, err
	}

	staticBase, err := o.StaticImage.StaticImageBase()
	if err != nil {
		return AddressResult{}, dbgerr.New(dbgerr.Internal, "orchestrator.convert_address", err)
	}

	translation, err := sess.driver.ConvertAddress(staticBase, idaAddress)
	if err != nil {
		return AddressResult{}, err
	}

	return AddressResult{
		IDAAddress:     translation.IDAAddress,
		RuntimeAddress: translation.RuntimeAddr,
		IDABase:        translation.StaticBase,
		RuntimeBase:    translation.RuntimeBase,
		Offset:         translation.IDAAddress - translation.StaticBase,
	}, nil
}
