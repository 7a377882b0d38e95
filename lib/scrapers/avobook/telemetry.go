package avobook

import "gymwatch-backend/lib/restyutil"

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput routes request/response dumps of clients
// created afterwards to the given output. Call it before NewClient.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
