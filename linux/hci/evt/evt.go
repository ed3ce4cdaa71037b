package evt

// Event codes [Vol 2, Part E, 7.7].
const (
	CommandCompleteCode = 0x0E
	CommandStatusCode   = 0x0F
	HardwareErrorCode   = 0x10
	VendorCode          = 0xFF
)

// HeaderLen is event code + parameter total length.
const HeaderLen = 2

// Packet is an HCI event without the H4 packet type byte.
type Packet []byte

// CommandComplete is a whole Command Complete event, header included:
//
//	code, plen, num hci command packets, opcode (LE), status, return params...
//
// Return parameters of every command this gateway issues start with a status
// byte, so status sits at a fixed offset.
type CommandComplete []byte

// CommandStatus is a whole Command Status event, header included:
//
//	code, plen, status, num hci command packets, opcode (LE)
type CommandStatus []byte

func (e Packet) Code() uint8 {
	v, _ := e.CodeWErr()
	return v
}

func (e Packet) ParamLen() uint8 {
	v, _ := e.ParamLenWErr()
	return v
}

func (e CommandComplete) NumHCICommandPackets() uint8 {
	v, _ := e.NumHCICommandPacketsWErr()
	return v
}

func (e CommandComplete) CommandOpcode() uint16 {
	v, _ := e.CommandOpcodeWErr()
	return v
}

// Status defaults to 0xFF (failure) when the event is too short.
func (e CommandComplete) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e CommandComplete) ReturnParameters() []byte {
	v, _ := e.ReturnParametersWErr()
	return v
}

func (e CommandStatus) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e CommandStatus) NumHCICommandPackets() uint8 {
	v, _ := e.NumHCICommandPacketsWErr()
	return v
}

func (e CommandStatus) CommandOpcode() uint16 {
	v, _ := e.CommandOpcodeWErr()
	return v
}

// NewCommandComplete builds a Command Complete event carrying only a status.
// Used to hand a Command Status result to a completion that expects the
// Command Complete layout.
func NewCommandComplete(ncmd uint8, opcode uint16, status uint8) CommandComplete {
	return CommandComplete{CommandCompleteCode, 4, ncmd, byte(opcode), byte(opcode >> 8), status}
}
