package frame

// Assembler consumes demodulated symbols and assembles them into messages.
type Assembler interface {
	// Receive expects one symbol per byte.  No bit packing is done, so a
	// dibit stream carries values 0 through 3.
	Receive([]byte)
}
