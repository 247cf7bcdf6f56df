package ptydriver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tracewell/remotedbg/pkg/dbgerr"
)

// imageBaseRegex matches the first image-list row, e.g.:
//
//	[  0] 4AA1B2C3-D4E5-F607-1829-3A4B5C6D7E8F 0x0000000100000000 /path/to/binary
//
// and captures the runtime load address of image index 0.
var imageBaseRegex = regexp.MustCompile(`\[\s*0\]\s+[0-9A-Fa-f-]+\s+(0x[0-9A-Fa-f]+)`)

// AddressTranslation carries the inputs and computed result of a static-to-
// runtime address conversion.
type AddressTranslation struct {
	StaticBase  uint64
	IDAAddress  uint64
	RuntimeBase uint64
	RuntimeAddr uint64
}

// ConvertAddress queries the live process's loaded image base via "image
// list", parses it, and computes runtime_address = runtime_base +
// (ida_address - static_base). staticBase is the load address IDA (or
// another static analysis tool) assumed when idaAddress was recorded.
func (d *Driver) ConvertAddress(staticBase, idaAddress uint64) (AddressTranslation, error) {
	if err := d.Write("image list"); err != nil {
		return AddressTranslation{}, err
	}
	output := d.ReadToPrompt(d.ReadTimeout)

	runtimeBase, err := parseImageBase(output)
	if err != nil {
		return AddressTranslation{}, dbgerr.New(dbgerr.Driver, "ptydriver.convertaddress", err).
			WithDiagnostic(output)
	}

	runtimeAddr := runtimeBase + (idaAddress - staticBase)
	return AddressTranslation{
		StaticBase:  staticBase,
		IDAAddress:  idaAddress,
		RuntimeBase: runtimeBase,
		RuntimeAddr: runtimeAddr,
	}, nil
}

func parseImageBase(output string) (uint64, error) {
	match := imageBaseRegex.FindStringSubmatch(output)
	if match == nil {
		return 0, fmt.Errorf("no image list entry found for index 0")
	}
	hex := strings.TrimPrefix(match[1], "0x")
	base, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse image base %q: %w", match[1], err)
	}
	return base, nil
}
